package cache

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileCache persists entries as one jsonl record per line under
// <dir>/<dataset>/results.jsonl, mirroring the dataset layout. Files are
// append-only; the newest record for a key wins on load.
type FileCache struct {
	dir string

	mu      sync.Mutex
	loaded  map[string]bool // dataset -> file read into memory
	entries map[Key]*Entry
}

// NewFileCache creates a file-backed cache rooted at dir.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{
		dir:     dir,
		loaded:  make(map[string]bool),
		entries: make(map[Key]*Entry),
	}, nil
}

func (c *FileCache) path(dataset string) string {
	return filepath.Join(c.dir, dataset, "results.jsonl")
}

// Get retrieves an entry by key. Returns nil if not found.
func (c *FileCache) Get(_ context.Context, key Key) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(key.Dataset); err != nil {
		return nil, err
	}
	return c.entries[key], nil
}

// Set appends the entry to its dataset file and updates the in-memory view.
func (c *FileCache) Set(_ context.Context, entry *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(entry.Key.Dataset); err != nil {
		return err
	}

	path := c.path(entry.Key.Dataset)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	c.entries[entry.Key] = entry
	return nil
}

// Close releases the in-memory view; files are already durable.
func (c *FileCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = make(map[string]bool)
	c.entries = make(map[Key]*Entry)
	return nil
}

func (c *FileCache) loadLocked(dataset string) error {
	if c.loaded[dataset] {
		return nil
	}
	c.loaded[dataset] = true

	f, err := os.Open(c.path(dataset))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("corrupt cache record in %s: %w", c.path(dataset), err)
		}
		c.entries[entry.Key] = &entry
	}
	return scanner.Err()
}
