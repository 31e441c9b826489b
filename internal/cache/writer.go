package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Writer adds read-before-write semantics on top of a Cache. Concurrent
// callers sharing a key are collapsed to a single in-flight compute via
// singleflight, so duplicate remote API spend cannot happen. A failed
// compute releases the claim without persisting anything, so the next
// caller retries.
type Writer struct {
	cache Cache
	group singleflight.Group
}

// NewWriter wraps a cache.
func NewWriter(c Cache) *Writer {
	return &Writer{cache: c}
}

// GetOrCompute returns the cached entry for key without invoking compute;
// otherwise it runs compute, persists a successful result, and returns it.
// The second return reports whether the entry came from the cache.
func (w *Writer) GetOrCompute(ctx context.Context, key Key, compute func(ctx context.Context) (*Entry, error)) (*Entry, bool, error) {
	type outcome struct {
		entry  *Entry
		cached bool
	}

	v, err, _ := w.group.Do(key.String(), func() (any, error) {
		if hit, err := w.cache.Get(ctx, key); err == nil && hit != nil {
			return outcome{entry: hit, cached: true}, nil
		}

		entry, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}
		if err := w.cache.Set(ctx, entry); err != nil {
			return nil, err
		}
		return outcome{entry: entry}, nil
	})
	if err != nil {
		return nil, false, err
	}
	out := v.(outcome)
	return out.entry, out.cached, nil
}
