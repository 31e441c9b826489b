package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"clin-summ/internal/errdefs"
)

// LocalBackend runs inference against a locally hosted model server
// (Ollama-style /api/generate). Calls are blocking compute with no network
// failure mode worth retrying: every error is non-retryable, including a
// caller timeout, since local inference cannot be preempted mid-run.
type LocalBackend struct {
	baseURL    string
	httpClient *http.Client
}

// NewLocalBackend builds a local backend for the given server URL.
func NewLocalBackend(baseURL string, client *http.Client) *LocalBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &LocalBackend{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: client,
	}
}

func (b *LocalBackend) ID() string { return "local" }

type localGenerateRequest struct {
	Model   string       `json:"model"`
	Prompt  string       `json:"prompt"`
	Stream  bool         `json:"stream"`
	Options localOptions `json:"options"`
}

type localOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type localGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (b *LocalBackend) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	body, err := json.Marshal(localGenerateRequest{
		Model:  p.Model,
		Prompt: prompt,
		Stream: false,
		Options: localOptions{
			Temperature: p.Temperature,
			NumPredict:  p.MaxNewTokens,
		},
	})
	if err != nil {
		return "", errdefs.MalformedRequest(err, "local: encode request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", errdefs.MalformedRequest(err, "local: build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		// Deterministic given fixed inputs; not retried.
		return "", fmt.Errorf("local model call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("local model response read failed: %w", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return "", errdefs.MalformedRequest(nil, "local: server rejected request (%d): %s",
			resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("local model returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out localGenerateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("local model response decode failed: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("local model error: %s", out.Error)
	}
	return out.Response, nil
}
