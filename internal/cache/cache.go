// Package cache persists generation results keyed by
// (model, dataset, case id, example count) for idempotent re-runs.
package cache

import (
	"context"
	"fmt"
	"time"

	"clin-summ/internal/backend"
)

// Key uniquely identifies one generation task.
type Key struct {
	Model     string `json:"model"`
	Dataset   string `json:"dataset"`
	CaseID    int    `json:"case_id"`
	NExamples int    `json:"n_examples"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%d:%d", k.Model, k.Dataset, k.CaseID, k.NExamples)
}

// Entry is one persisted generation record. Entries are created on first
// successful generation and immutable thereafter.
type Entry struct {
	Key       Key            `json:"key"`
	Prompt    string         `json:"prompt"`
	Output    string         `json:"output"`
	Status    backend.Status `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// Cache provides generation result persistence.
type Cache interface {
	// Get retrieves an entry by key. Returns nil if not found.
	Get(ctx context.Context, key Key) (*Entry, error)

	// Set stores an entry under its key.
	Set(ctx context.Context, entry *Entry) error

	// Close closes the cache connection.
	Close() error
}
