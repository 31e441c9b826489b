// Package backend routes assembled prompts to heterogeneous model backends:
// a remote hosted completion API with retry/backoff, or a locally hosted
// model server with synchronous, non-retried inference.
package backend

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Params are the sampling parameters for one generation.
type Params struct {
	Model        string
	MaxNewTokens int
	Temperature  float64
}

// Request is one generation task.
type Request struct {
	ID     uuid.UUID
	Prompt string
	Params Params
}

// NewRequest assigns a fresh request id.
func NewRequest(prompt string, p Params) Request {
	return Request{ID: uuid.New(), Prompt: prompt, Params: p}
}

// Status is the terminal outcome of a dispatch.
type Status string

const (
	StatusOK      Status = "ok"
	StatusRetried Status = "retried" // succeeded after at least one retry
	StatusFailed  Status = "failed"
)

// Result is the terminal, immutable outcome of one dispatch.
type Result struct {
	Request  Request
	Output   string
	Status   Status
	Attempts int
	Latency  time.Duration
	Err      error // last classified error when Status == StatusFailed
}

// Backend turns a prompt into generated text. Implementations classify
// their failures via errdefs so the dispatcher can decide retryability:
// only the remote backend ever returns retryable errors.
type Backend interface {
	ID() string
	Generate(ctx context.Context, prompt string, p Params) (string, error)
}
