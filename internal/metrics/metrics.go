// Package metrics feeds generated/reference pairs to the external scoring
// collaborator and aggregates per-dataset statistics. It does not implement
// any scoring algorithm itself.
package metrics

import (
	"context"
	"log/slog"

	"clin-summ/internal/errdefs"
)

// Scorer is the external scoring collaborator. Each call returns one value
// per configured metric family (e.g. bleu, rouge1, bertscore).
type Scorer interface {
	Score(ctx context.Context, candidate, reference string) (map[string]float64, error)
}

// Pair is one scored (generated, reference) pair.
type Pair struct {
	CaseID    int
	Candidate string
	Reference string
}

// Aggregate is the per-metric summary over a dataset run.
type Aggregate struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	N        int     `json:"n"`
}

// Adapter aggregates collaborator scores across a dataset run.
type Adapter struct {
	scorer Scorer
	log    *slog.Logger
}

// NewAdapter wraps a scoring collaborator.
func NewAdapter(scorer Scorer, log *slog.Logger) *Adapter {
	return &Adapter{scorer: scorer, log: log}
}

// Summarize scores every requested case and returns per-metric aggregates.
// Every case id in cases must have a pair; a missing one means a generation
// never completed, which fails the metrics step without touching the rest
// of the run.
func (a *Adapter) Summarize(ctx context.Context, cases []int, pairs map[int]Pair) (map[string]Aggregate, error) {
	for _, id := range cases {
		if _, ok := pairs[id]; !ok {
			return nil, errdefs.IncompleteResults("case %d has no generation result", id)
		}
	}

	values := make(map[string][]float64)
	for _, id := range cases {
		pair := pairs[id]
		scores, err := a.scorer.Score(ctx, pair.Candidate, pair.Reference)
		if err != nil {
			return nil, err
		}
		for name, v := range scores {
			values[name] = append(values[name], v)
		}
	}

	out := make(map[string]Aggregate, len(values))
	for name, vs := range values {
		out[name] = aggregate(vs)
	}
	a.log.Info("metrics aggregated", "cases", len(cases), "metrics", len(out))
	return out, nil
}

// aggregate computes mean and population variance.
func aggregate(vs []float64) Aggregate {
	if len(vs) == 0 {
		return Aggregate{}
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	mean := sum / float64(len(vs))

	var sq float64
	for _, v := range vs {
		d := v - mean
		sq += d * d
	}
	return Aggregate{Mean: mean, Variance: sq / float64(len(vs)), N: len(vs)}
}
