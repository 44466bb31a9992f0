package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scitorrent/arandu-repro/internal/logging"
)

// OllamaEngine generates embeddings via a local Ollama-compatible server.
// Adapted from the teacher's internal/embedding/ollama.go, with per-call
// logging.StartTimer/logging.Embedding calls replaced by this domain's
// logging.LogStep spans.
type OllamaEngine struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewOllamaEngine builds an OllamaEngine, defaulting endpoint and model the
// same way the teacher's constructor does.
func NewOllamaEngine(endpoint, model string) (*OllamaEngine, error) {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "embeddinggemma"
	}
	return &OllamaEngine{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed requests a single embedding vector for text.
func (e *OllamaEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	span := logging.LogStep("embedding", "", "ollama_embed")
	var embedErr error
	defer func() { span.End(embedErr) }()

	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		embedErr = fmt.Errorf("marshaling embed request: %w", err)
		return nil, embedErr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		embedErr = fmt.Errorf("building embed request: %w", err)
		return nil, embedErr
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		embedErr = fmt.Errorf("ollama request failed: %w", err)
		return nil, embedErr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		embedErr = fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(data))
		return nil, embedErr
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		embedErr = fmt.Errorf("decoding embed response: %w", err)
		return nil, embedErr
	}
	return result.Embedding, nil
}

// EmbedBatch embeds each text sequentially; Ollama has no native batch
// embedding endpoint.
func (e *OllamaEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions reports the embeddinggemma vector width; other models served
// from the same endpoint would need their own engine variant.
func (e *OllamaEngine) Dimensions() int { return 768 }

// Name identifies the engine for logging and artifact provenance.
func (e *OllamaEngine) Name() string { return fmt.Sprintf("ollama:%s", e.model) }

// HealthCheck verifies the Ollama server is reachable.
func (e *OllamaEngine) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.endpoint+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health check returned status %d", resp.StatusCode)
	}
	return nil
}
