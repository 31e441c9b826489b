package backend

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"clin-summ/internal/errdefs"
	"clin-summ/internal/retry"
)

// Policy bounds a dispatcher's retry and timeout behavior.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	// Only retryable (transient) errors consume retries.
	MaxRetries int
	// RetryBase is the base delay for exponential backoff with jitter.
	RetryBase time.Duration
	// Timeout bounds one attempt. A remote timeout is classified transient
	// and retried; a local timeout fails the case immediately.
	Timeout time.Duration
	// Concurrency bounds DispatchBatch fan-out. Values < 2 keep batches
	// sequential, which is the right mode for compute-saturating local models.
	Concurrency int
}

// Dispatcher executes generation requests against one backend and converts
// every failure into a terminal Result. Errors never escape Dispatch.
type Dispatcher struct {
	backend Backend
	policy  Policy
	log     *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewDispatcher builds a dispatcher around a backend with the given policy.
func NewDispatcher(b Backend, policy Policy, log *slog.Logger) *Dispatcher {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.RetryBase <= 0 {
		policy.RetryBase = 500 * time.Millisecond
	}
	return &Dispatcher{
		backend: b,
		policy:  policy,
		log:     log,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Dispatch runs one request to a terminal result. Transient failures are
// retried with exponential backoff plus jitter up to the policy bound;
// non-retryable failures short-circuit. The returned result is immutable.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Result {
	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= d.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := d.backoff(attempt - 1)
			d.log.Debug("retrying dispatch",
				"request_id", req.ID, "attempt", attempt+1, "delay", delay, "err", lastErr)
			select {
			case <-ctx.Done():
				return d.failed(req, attempt, start, errdefs.TransientBackend(ctx.Err(), "dispatch canceled"))
			case <-time.After(delay):
			}
		}

		output, err := d.attempt(ctx, req)
		if err == nil {
			status := StatusOK
			if attempt > 0 {
				status = StatusRetried
			}
			return Result{
				Request:  req,
				Output:   output,
				Status:   status,
				Attempts: attempt + 1,
				Latency:  time.Since(start),
			}
		}

		lastErr = err
		if !errdefs.IsRetryable(err) {
			return d.failed(req, attempt+1, start, err)
		}
	}

	return d.failed(req, d.policy.MaxRetries+1, start, lastErr)
}

// DispatchBatch runs independent requests sharing model/params, matching
// results to requests by position (request id preserved in each result).
// Output is identical to dispatching each request individually.
func (d *Dispatcher) DispatchBatch(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))

	if d.policy.Concurrency < 2 || len(reqs) < 2 {
		for i, req := range reqs {
			results[i] = d.Dispatch(ctx, req)
		}
		return results
	}

	g := new(errgroup.Group)
	g.SetLimit(d.policy.Concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			results[i] = d.Dispatch(ctx, req)
			return nil
		})
	}
	_ = g.Wait() // Dispatch never returns an error
	return results
}

func (d *Dispatcher) attempt(ctx context.Context, req Request) (string, error) {
	attemptCtx := ctx
	if d.policy.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, d.policy.Timeout)
		defer cancel()
	}
	return d.backend.Generate(attemptCtx, req.Prompt, req.Params)
}

func (d *Dispatcher) backoff(attempt int) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return retry.WithJitter(retry.ExponentialBackoff(attempt, d.policy.RetryBase), d.rng)
}

func (d *Dispatcher) failed(req Request, attempts int, start time.Time, err error) Result {
	d.log.Warn("dispatch failed",
		"request_id", req.ID, "backend", d.backend.ID(), "attempts", attempts, "err", err)
	return Result{
		Request:  req,
		Status:   StatusFailed,
		Attempts: attempts,
		Latency:  time.Since(start),
		Err:      err,
	}
}
