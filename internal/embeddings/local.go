package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// LocalEmbedder talks to an Ollama-style embedding endpoint. The server
// exposes one embedding per call, so batches are sequential.
type LocalEmbedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewLocalEmbedder builds an embedder against a local inference server.
func NewLocalEmbedder(baseURL, model string, client *http.Client) *LocalEmbedder {
	if client == nil {
		client = http.DefaultClient
	}
	return &LocalEmbedder{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		httpClient: client,
	}
}

type localEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type localEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

func (e *LocalEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	body, err := json.Marshal(localEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("local embed call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("local embedder returned status %d", resp.StatusCode)
	}

	var out localEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("local embedder response decode failed: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("local embedder error: %s", out.Error)
	}

	vec := make(Vector, len(out.Embedding))
	for i, f := range out.Embedding {
		vec[i] = float32(f)
	}
	return vec, nil
}

func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	vecs := make([]Vector, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}
