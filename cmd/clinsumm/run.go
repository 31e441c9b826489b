package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"clin-summ/internal/app"
	"clin-summ/internal/backend"
	"clin-summ/internal/corpus"
	"clin-summ/internal/index"
	"clin-summ/internal/runner"
)

type runRequest struct {
	Model    string `validate:"omitempty"`
	Dataset  string `validate:"required,oneof=chq d2n opi"`
	Cases    string `validate:"required"`
	Examples int    `validate:"min=0,max=64"`
	Backend  string `validate:"omitempty,oneof=openai local"`
	Demo     bool
}

var validate = validator.New()

func newRunCmd() *cobra.Command {
	var req runRequest

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate summaries for a range of test cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validate.Struct(req); err != nil {
				return fmt.Errorf("invalid arguments: %w", err)
			}
			caseIDs, err := parseCases(req.Cases)
			if err != nil {
				return err
			}
			return runGenerate(cmd.Context(), req, caseIDs)
		},
	}

	cmd.Flags().StringVar(&req.Model, "model", "", "model name (defaults to the backend's configured model)")
	cmd.Flags().StringVar(&req.Dataset, "dataset", "", "dataset: opi, chq or d2n")
	cmd.Flags().StringVar(&req.Cases, "cases", "", "case id range, e.g. 0-99 or 7")
	cmd.Flags().IntVar(&req.Examples, "examples", 4, "number of retrieved in-context examples (0-64)")
	cmd.Flags().StringVar(&req.Backend, "backend", "", "override backend provider: openai or local")
	cmd.Flags().BoolVar(&req.Demo, "demo", false, "use the short demonstration-style instruction")
	return cmd
}

func runGenerate(ctx context.Context, req runRequest, caseIDs []int) error {
	deps, err := app.Build(req.Backend)
	if err != nil {
		return err
	}
	defer deps.Close()

	model := req.Model
	if model == "" {
		model = deps.DefaultModel()
	}

	train, err := corpus.Load(deps.Cfg.DataDir, req.Dataset, "train")
	if err != nil {
		return err
	}
	test, err := corpus.Load(deps.Cfg.DataDir, req.Dataset, "test")
	if err != nil {
		return err
	}

	var ix *index.Index
	if req.Examples > 0 {
		deps.Log.Info("building index", "dataset", req.Dataset, "examples", train.Count())
		ix, err = index.Build(ctx, train.All(), deps.Embedder)
		if err != nil {
			return err
		}
	}

	r := &runner.Runner{
		Log:        deps.Log,
		Train:      train,
		Test:       test,
		Index:      ix,
		Embedder:   deps.Embedder,
		Dispatcher: deps.Dispatcher,
		Writer:     deps.Writer,

		Dataset:       req.Dataset,
		Demo:          req.Demo,
		K:             req.Examples,
		ContextTokens: deps.Cfg.ContextTokens,
		Params: backend.Params{
			Model:        model,
			MaxNewTokens: deps.Cfg.MaxNewTokens,
			Temperature:  deps.Cfg.Temperature,
		},
		Concurrency: deps.RunConcurrency(),
	}

	sum, err := r.Run(ctx, caseIDs)
	if err != nil {
		return err
	}

	deps.Log.Info("run finished",
		"dataset", req.Dataset, "model", model,
		"completed", sum.Completed, "from_cache", sum.FromCache, "skipped", sum.Skipped)
	if sum.Skipped > 0 {
		return fmt.Errorf("%d of %d cases failed", sum.Skipped, len(caseIDs))
	}
	return nil
}

// parseCases expands "0-99" or "7" into case ids.
func parseCases(s string) ([]int, error) {
	lo, hi, found := strings.Cut(s, "-")
	if !found {
		hi = lo
	}
	first, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return nil, fmt.Errorf("invalid case range %q", s)
	}
	last, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return nil, fmt.Errorf("invalid case range %q", s)
	}
	if first < 0 || last < first {
		return nil, fmt.Errorf("invalid case range %q", s)
	}

	ids := make([]int, 0, last-first+1)
	for id := first; id <= last; id++ {
		ids = append(ids, id)
	}
	return ids, nil
}
