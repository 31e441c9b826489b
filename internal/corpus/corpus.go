// Package corpus holds a dataset's examples as an ordered, id-addressable,
// read-only collection.
package corpus

import (
	"sort"

	"clin-summ/internal/errdefs"
)

// Supported dataset names and their summarization tasks.
const (
	DatasetRadiology = "opi" // radiology findings -> impression
	DatasetQuestions = "chq" // consumer health question -> focused question
	DatasetDialogue  = "d2n" // doctor-patient dialogue -> assessment and plan
)

// Example is one (source, reference summary) record. Immutable once loaded.
type Example struct {
	ID            int
	SourceText    string
	TargetSummary string
	Domain        string
}

// Store is a read-only collection of examples, ordered by id.
type Store struct {
	examples []Example
	byID     map[int]int // id -> position
}

// NewStore builds a store from examples. Order is preserved.
func NewStore(examples []Example) *Store {
	byID := make(map[int]int, len(examples))
	for i, ex := range examples {
		byID[ex.ID] = i
	}
	return &Store{examples: examples, byID: byID}
}

// Get returns the example with the given id.
func (s *Store) Get(id int) (Example, error) {
	i, ok := s.byID[id]
	if !ok {
		return Example{}, errdefs.NotFound("example %d not in corpus", id)
	}
	return s.examples[i], nil
}

// All returns the examples in corpus order. The slice must not be mutated.
func (s *Store) All() []Example {
	return s.examples
}

// Count returns the number of examples.
func (s *Store) Count() int {
	return len(s.examples)
}

// Datasets returns the supported dataset names, sorted.
func Datasets() []string {
	names := []string{DatasetQuestions, DatasetDialogue, DatasetRadiology}
	sort.Strings(names)
	return names
}

// ValidDataset reports whether name is a known dataset.
func ValidDataset(name string) bool {
	switch name {
	case DatasetRadiology, DatasetQuestions, DatasetDialogue:
		return true
	}
	return false
}
