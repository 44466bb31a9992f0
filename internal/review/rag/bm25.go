package rag

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// BM25 tuning parameters (Robertson-Sparck Jones defaults, as used by most
// production search engines including Elasticsearch's default similarity).
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

var tokenRe = regexp.MustCompile(`[a-zA-Z0-9]+`)

func tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// BM25Index is an in-memory inverted index over a fixed document corpus.
// Generalized from the teacher's SparseRetriever (internal/retrieval
// /sparse.go), which scores ripgrep hits against an IssueKeywords.Weights
// map; here the index holds real term frequencies and IDF computed over the
// corpus instead of caller-supplied keyword weights, since BM25 needs a
// corpus-wide document frequency rather than per-query weights.
type BM25Index struct {
	mu        sync.RWMutex
	docs      map[string]Document
	termFreq  map[string]map[string]int // docID -> term -> count
	docLen    map[string]int
	postings  map[string]map[string]bool // term -> set of docIDs containing it
	avgDocLen float64
}

// NewBM25Index builds an empty index.
func NewBM25Index() *BM25Index {
	return &BM25Index{
		docs:     make(map[string]Document),
		termFreq: make(map[string]map[string]int),
		docLen:   make(map[string]int),
		postings: make(map[string]map[string]bool),
	}
}

// AddDocument indexes (or reindexes) one document.
func (idx *BM25Index) AddDocument(doc Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if oldFreq, exists := idx.termFreq[doc.ID]; exists {
		for term := range oldFreq {
			delete(idx.postings[term], doc.ID)
		}
	}

	tokens := tokenize(doc.searchableText())
	freq := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freq[tok]++
		if idx.postings[tok] == nil {
			idx.postings[tok] = make(map[string]bool)
		}
		idx.postings[tok][doc.ID] = true
	}

	idx.docs[doc.ID] = doc
	idx.termFreq[doc.ID] = freq
	idx.docLen[doc.ID] = len(tokens)
	idx.recomputeAvgDocLen()
}

func (idx *BM25Index) recomputeAvgDocLen() {
	if len(idx.docLen) == 0 {
		idx.avgDocLen = 0
		return
	}
	total := 0
	for _, l := range idx.docLen {
		total += l
	}
	idx.avgDocLen = float64(total) / float64(len(idx.docLen))
}

// Search returns the topK documents ranked by BM25 score against query.
func (idx *BM25Index) Search(query string, topK int) []Candidate {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.docs)
	if n == 0 {
		return nil
	}

	queryTerms := tokenize(query)
	scores := make(map[string]float64)
	for _, term := range queryTerms {
		docsWithTerm := idx.postings[term]
		if len(docsWithTerm) == 0 {
			continue
		}
		idf := math.Log(1 + (float64(n)-float64(len(docsWithTerm))+0.5)/(float64(len(docsWithTerm))+0.5))
		for docID := range docsWithTerm {
			f := float64(idx.termFreq[docID][term])
			dl := float64(idx.docLen[docID])
			denom := f + bm25K1*(1-bm25B+bm25B*dl/idx.avgDocLen)
			scores[docID] += idf * (f * (bm25K1 + 1)) / denom
		}
	}

	results := make([]Candidate, 0, len(scores))
	for docID, score := range scores {
		results = append(results, Candidate{DocID: docID, Score: score, Doc: idx.docs[docID]})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Len returns the number of indexed documents.
func (idx *BM25Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}
