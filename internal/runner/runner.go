// Package runner drives a dataset run: retrieve exemplars, assemble the
// prompt, dispatch generation through the result cache, and report
// per-case outcomes with failure isolation.
package runner

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"clin-summ/internal/backend"
	"clin-summ/internal/cache"
	"clin-summ/internal/corpus"
	"clin-summ/internal/embeddings"
	"clin-summ/internal/errdefs"
	"clin-summ/internal/index"
	"clin-summ/internal/prompt"
)

// Runner holds the shared, read-only collaborators for one dataset run.
// The embedding index is built once by the caller and only queried here.
type Runner struct {
	Log        *slog.Logger
	Train      *corpus.Store
	Test       *corpus.Store
	Index      *index.Index // may be nil when K == 0
	Embedder   embeddings.Embedder
	Dispatcher *backend.Dispatcher
	Writer     *cache.Writer

	Dataset       string
	Demo          bool
	K             int
	ContextTokens int
	Params        backend.Params

	// Concurrency > 1 fans cases out across goroutines. Only useful for
	// the remote backend; local inference saturates compute on its own.
	Concurrency int
}

// Outcome is one case's terminal state.
type Outcome struct {
	CaseID int
	Entry  *cache.Entry
	Cached bool
	Err    error
}

// Summary reports a whole run.
type Summary struct {
	Outcomes  []Outcome
	Completed int
	Skipped   int
	FromCache int
}

// Run processes the given cases. Per-case failures (prompt too large,
// exhausted retries) are recorded and skipped; unknown ids, invalid
// arguments and auth failures abort the run immediately.
func (r *Runner) Run(ctx context.Context, caseIDs []int) (Summary, error) {
	tmpl, err := prompt.ForDataset(r.Dataset, r.Demo)
	if err != nil {
		return Summary{}, err
	}

	outcomes := make([]Outcome, len(caseIDs))

	if r.Concurrency > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.Concurrency)
		for i, id := range caseIDs {
			g.Go(func() error {
				return r.runCase(gctx, tmpl, id, &outcomes[i])
			})
		}
		if err := g.Wait(); err != nil {
			return Summary{}, err
		}
	} else {
		for i, id := range caseIDs {
			if err := r.runCase(ctx, tmpl, id, &outcomes[i]); err != nil {
				return Summary{}, err
			}
		}
	}

	return summarize(outcomes), nil
}

// runCase resolves one case to a terminal outcome. The returned error is
// non-nil only for run-fatal conditions.
func (r *Runner) runCase(ctx context.Context, tmpl prompt.Template, caseID int, out *Outcome) error {
	out.CaseID = caseID

	tc, err := r.Test.Get(caseID)
	if err != nil {
		return err
	}

	key := cache.Key{Model: r.Params.Model, Dataset: r.Dataset, CaseID: caseID, NExamples: r.K}
	entry, cached, err := r.Writer.GetOrCompute(ctx, key, func(ctx context.Context) (*cache.Entry, error) {
		return r.generate(ctx, tmpl, key, tc)
	})
	if err != nil {
		if fatal(err) {
			return err
		}
		r.Log.Warn("case failed", "dataset", r.Dataset, "case", caseID, "err", err)
		out.Err = err
		return nil
	}

	if cached {
		r.Log.Debug("cache hit", "dataset", r.Dataset, "case", caseID)
	}
	out.Entry = entry
	out.Cached = cached
	return nil
}

func (r *Runner) generate(ctx context.Context, tmpl prompt.Template, key cache.Key, tc corpus.Example) (*cache.Entry, error) {
	exemplars, err := r.retrieve(ctx, tc)
	if err != nil {
		return nil, err
	}

	text, kept, err := prompt.Spec{
		Template:  tmpl,
		Examples:  exemplars,
		Target:    tc.SourceText,
		MaxTokens: r.ContextTokens,
	}.Render()
	if err != nil {
		return nil, err
	}
	if kept < len(exemplars) {
		r.Log.Info("dropped exemplars to fit token budget",
			"case", key.CaseID, "requested", len(exemplars), "kept", kept)
	}

	res := r.Dispatcher.Dispatch(ctx, backend.NewRequest(text, r.Params))
	if res.Status == backend.StatusFailed {
		return nil, res.Err
	}
	return &cache.Entry{
		Key:    key,
		Prompt: text,
		Output: res.Output,
		Status: res.Status,
	}, nil
}

// retrieve returns the K nearest training examples, nearest first.
func (r *Runner) retrieve(ctx context.Context, tc corpus.Example) ([]corpus.Example, error) {
	if r.K == 0 {
		return nil, nil
	}
	if r.Index == nil {
		return nil, errdefs.InvalidArgument("k=%d requires a built index", r.K)
	}

	vec, err := r.Embedder.Embed(ctx, tc.SourceText)
	if err != nil {
		return nil, errdefs.TransientBackend(err, "embed target input")
	}
	hits, err := r.Index.Query(vec, r.K)
	if err != nil {
		return nil, err
	}

	exemplars := make([]corpus.Example, len(hits))
	for i, h := range hits {
		ex, err := r.Train.Get(h.ExampleID)
		if err != nil {
			return nil, err
		}
		exemplars[i] = ex
	}
	return exemplars, nil
}

// fatal reports whether an error must abort the whole run rather than
// skip the case. Misconfiguration and auth failures stop before any
// further spend; bad ids and bad arguments are programming errors.
func fatal(err error) bool {
	switch errdefs.KindOf(err) {
	case errdefs.KindNotFound, errdefs.KindInvalidArgument, errdefs.KindAuthBackend:
		return true
	}
	return false
}

func summarize(outcomes []Outcome) Summary {
	s := Summary{Outcomes: outcomes}
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			s.Skipped++
		case o.Cached:
			s.Completed++
			s.FromCache++
		default:
			s.Completed++
		}
	}
	return s
}
