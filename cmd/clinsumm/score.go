package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clin-summ/internal/app"
	"clin-summ/internal/cache"
	"clin-summ/internal/corpus"
	"clin-summ/internal/metrics"
)

type scoreRequest struct {
	Model    string `validate:"required"`
	Dataset  string `validate:"required,oneof=chq d2n opi"`
	Cases    string `validate:"required"`
	Examples int    `validate:"min=0,max=64"`
}

func newScoreCmd() *cobra.Command {
	var req scoreRequest

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score cached generations against dataset references",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validate.Struct(req); err != nil {
				return fmt.Errorf("invalid arguments: %w", err)
			}
			caseIDs, err := parseCases(req.Cases)
			if err != nil {
				return err
			}
			return runScore(cmd.Context(), req, caseIDs)
		},
	}

	cmd.Flags().StringVar(&req.Model, "model", "", "model name the results were generated with")
	cmd.Flags().StringVar(&req.Dataset, "dataset", "", "dataset: opi, chq or d2n")
	cmd.Flags().StringVar(&req.Cases, "cases", "", "case id range, e.g. 0-99 or 7")
	cmd.Flags().IntVar(&req.Examples, "examples", 4, "number of in-context examples the results were generated with")
	return cmd
}

func runScore(ctx context.Context, req scoreRequest, caseIDs []int) error {
	deps, err := app.BuildCore()
	if err != nil {
		return err
	}
	defer deps.Close()

	test, err := corpus.Load(deps.Cfg.DataDir, req.Dataset, "test")
	if err != nil {
		return err
	}

	pairs := make(map[int]metrics.Pair, len(caseIDs))
	for _, id := range caseIDs {
		key := cache.Key{Model: req.Model, Dataset: req.Dataset, CaseID: id, NExamples: req.Examples}
		entry, err := deps.Cache.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("read result %s: %w", key, err)
		}
		if entry == nil {
			continue // the adapter reports the gap
		}
		ref, err := test.Get(id)
		if err != nil {
			return err
		}
		pairs[id] = metrics.Pair{CaseID: id, Candidate: entry.Output, Reference: ref.TargetSummary}
	}

	scorer, err := metrics.NewHTTPScorer(deps.Cfg.ScorerURL, nil)
	if err != nil {
		return err
	}
	aggregates, err := metrics.NewAdapter(scorer, deps.Log).Summarize(ctx, caseIDs, pairs)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(aggregates)
}
