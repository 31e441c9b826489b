package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPScorer calls a scoring service over HTTP. The service owns the metric
// implementations (BLEU/ROUGE/embedding similarity); this client only moves
// pairs across the boundary.
type HTTPScorer struct {
	url        string
	httpClient *http.Client
}

const defaultScoreTimeout = 60 * time.Second

// NewHTTPScorer builds a client for the scoring endpoint.
func NewHTTPScorer(url string, client *http.Client) (*HTTPScorer, error) {
	if url == "" {
		return nil, fmt.Errorf("scorer url required")
	}
	if client == nil {
		client = &http.Client{Timeout: defaultScoreTimeout}
	}
	return &HTTPScorer{url: strings.TrimSuffix(url, "/"), httpClient: client}, nil
}

type scoreRequest struct {
	Candidate string `json:"candidate"`
	Reference string `json:"reference"`
}

type scoreResponse struct {
	Metrics map[string]float64 `json:"metrics"`
}

func (s *HTTPScorer) Score(ctx context.Context, candidate, reference string) (map[string]float64, error) {
	body, err := json.Marshal(scoreRequest{Candidate: candidate, Reference: reference})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/score", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scorer call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scorer returned status %d", resp.StatusCode)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("scorer response decode failed: %w", err)
	}
	return out.Metrics, nil
}
