// Package rag implements the hybrid BM25 + dense + rerank citation
// suggestion pipeline used by the review DAG's citation_suggestion node
// (spec §4.11). The sparse side is grounded on the teacher's
// internal/retrieval/sparse.go (weighted scoring over a tokenized corpus,
// guarded by a mutex, served from an in-memory cache) generalized from
// ripgrep-driven file search to a true BM25 inverted index over paper
// documents. The dense side is grounded on internal/embedding (adapted from
// the teacher's Ollama-backed embedding engine and cosine-similarity
// utilities).
package rag

// Document is one citable work in the retrieval corpus.
type Document struct {
	ID       string
	Title    string
	Authors  []string
	Abstract string
	Venue    string
	Year     int
	DOI      string
	URL      string
	Content  string
}

// searchableText concatenates the fields BM25 and the embedder should see.
func (d Document) searchableText() string {
	return d.Title + " " + d.Abstract + " " + d.Content
}

// Candidate is a scored document produced by one retrieval stage.
type Candidate struct {
	DocID string
	Score float64
	Doc   Document
}
