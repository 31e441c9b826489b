package metrics

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"

	"clin-summ/internal/errdefs"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSummarizeAggregates(t *testing.T) {
	s := new(MockScorer)
	s.On("Score", mock.Anything, "out0", "ref0").Return(map[string]float64{"rouge1": 0.2, "bleu": 0.1}, nil).Once()
	s.On("Score", mock.Anything, "out1", "ref1").Return(map[string]float64{"rouge1": 0.4, "bleu": 0.3}, nil).Once()
	s.On("Score", mock.Anything, "out2", "ref2").Return(map[string]float64{"rouge1": 0.6, "bleu": 0.5}, nil).Once()

	a := NewAdapter(s, testLogger())
	got, err := a.Summarize(context.Background(), []int{0, 1, 2}, map[int]Pair{
		0: {CaseID: 0, Candidate: "out0", Reference: "ref0"},
		1: {CaseID: 1, Candidate: "out1", Reference: "ref1"},
		2: {CaseID: 2, Candidate: "out2", Reference: "ref2"},
	})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	rouge := got["rouge1"]
	if math.Abs(rouge.Mean-0.4) > 1e-9 {
		t.Errorf("rouge1 mean = %f, want 0.4", rouge.Mean)
	}
	// population variance of {0.2, 0.4, 0.6} is 0.02666...
	if math.Abs(rouge.Variance-0.08/3.0) > 1e-9 {
		t.Errorf("rouge1 variance = %f, want %f", rouge.Variance, 0.08/3.0)
	}
	if rouge.N != 3 {
		t.Errorf("rouge1 n = %d, want 3", rouge.N)
	}
	if math.Abs(got["bleu"].Mean-0.3) > 1e-9 {
		t.Errorf("bleu mean = %f, want 0.3", got["bleu"].Mean)
	}
	s.AssertExpectations(t)
}

func TestSummarizeIncompleteResults(t *testing.T) {
	s := new(MockScorer)
	a := NewAdapter(s, testLogger())

	_, err := a.Summarize(context.Background(), []int{0, 1}, map[int]Pair{
		0: {CaseID: 0, Candidate: "out", Reference: "ref"},
	})
	if !errdefs.IsKind(err, errdefs.KindIncompleteResults) {
		t.Errorf("expected incomplete_results, got %v", err)
	}
	// The collaborator must not be consulted for a partial range.
	s.AssertNotCalled(t, "Score", mock.Anything, mock.Anything, mock.Anything)
}

func TestHTTPScorer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/score" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(scoreResponse{Metrics: map[string]float64{"bleu": 0.42}})
	}))
	defer srv.Close()

	s, err := NewHTTPScorer(srv.URL, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	scores, err := s.Score(context.Background(), "candidate", "reference")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if scores["bleu"] != 0.42 {
		t.Errorf("unexpected scores %v", scores)
	}
}

func TestHTTPScorerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s, err := NewHTTPScorer(srv.URL, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Score(context.Background(), "c", "r"); err == nil {
		t.Error("expected error for 5xx scorer response")
	}
}
