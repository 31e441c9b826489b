package index

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/mock"

	"clin-summ/internal/corpus"
	"clin-summ/internal/embeddings"
	"clin-summ/internal/errdefs"
)

func buildTestIndex(t *testing.T, vectors []embeddings.Vector) *Index {
	t.Helper()
	examples := make([]corpus.Example, len(vectors))
	texts := make([]string, len(vectors))
	for i := range vectors {
		examples[i] = corpus.Example{ID: i, SourceText: "text " + string(rune('a'+i))}
		texts[i] = examples[i].SourceText
	}

	e := new(embeddings.MockEmbedder)
	e.On("EmbedBatch", mock.Anything, texts).Return(vectors, nil).Once()

	ix, err := Build(context.Background(), examples, e)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	e.AssertExpectations(t)
	return ix
}

func TestQueryOrdering(t *testing.T) {
	// Example 1 points along the query, 0 is at 45 degrees, 2 is orthogonal.
	ix := buildTestIndex(t, []embeddings.Vector{
		{1, 1},
		{1, 0},
		{0, 1},
	})

	hits, err := ix.Query(embeddings.Vector{1, 0}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}

	wantOrder := []int{1, 0, 2}
	for i, want := range wantOrder {
		if hits[i].ExampleID != want {
			t.Errorf("hit %d: got example %d, want %d", i, hits[i].ExampleID, want)
		}
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Distance < hits[i-1].Distance {
			t.Errorf("distances not non-decreasing: %v", hits)
		}
	}
}

func TestQueryTiesBrokenByCorpusOrder(t *testing.T) {
	// Two identical vectors tie exactly; corpus order must win.
	ix := buildTestIndex(t, []embeddings.Vector{
		{0, 1},
		{1, 0},
		{1, 0},
	})

	hits, err := ix.Query(embeddings.Vector{1, 0}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if hits[0].ExampleID != 1 || hits[1].ExampleID != 2 {
		t.Errorf("tie not broken by insertion order: %v", hits)
	}
}

func TestQueryDeterminism(t *testing.T) {
	ix := buildTestIndex(t, []embeddings.Vector{
		{0.3, 0.7}, {0.7, 0.3}, {0.5, 0.5}, {0.9, 0.1},
	})

	first, err := ix.Query(embeddings.Vector{0.6, 0.4}, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := ix.Query(embeddings.Vector{0.6, 0.4}, 4)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("query not deterministic: %v vs %v", first, again)
		}
	}
}

func TestQueryZeroK(t *testing.T) {
	ix := buildTestIndex(t, []embeddings.Vector{{1, 0}})
	hits, err := ix.Query(embeddings.Vector{1, 0}, 0)
	if err != nil {
		t.Fatalf("Query(k=0): %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected empty result for k=0, got %v", hits)
	}
}

func TestQueryInvalidArguments(t *testing.T) {
	ix := buildTestIndex(t, []embeddings.Vector{{1, 0}, {0, 1}})

	tests := []struct {
		name string
		run  func() error
	}{
		{"k exceeds corpus", func() error { _, err := ix.Query(embeddings.Vector{1, 0}, 3); return err }},
		{"negative k", func() error { _, err := ix.Query(embeddings.Vector{1, 0}, -1); return err }},
		{"dimension mismatch", func() error { _, err := ix.Query(embeddings.Vector{1, 0, 0}, 1); return err }},
		{"unbuilt index", func() error { var empty *Index; _, err := empty.Query(embeddings.Vector{1}, 1); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errdefs.IsKind(err, errdefs.KindInvalidArgument) {
				t.Errorf("expected invalid_argument, got %v", err)
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     embeddings.Vector
		expected float32
	}{
		{"identical vectors", embeddings.Vector{1, 0, 0}, embeddings.Vector{1, 0, 0}, 1.0},
		{"orthogonal vectors", embeddings.Vector{1, 0}, embeddings.Vector{0, 1}, 0.0},
		{"opposite vectors", embeddings.Vector{1, 0}, embeddings.Vector{-1, 0}, -1.0},
		{"empty vectors", embeddings.Vector{}, embeddings.Vector{}, 0.0},
		{"different length vectors", embeddings.Vector{1, 2}, embeddings.Vector{1, 2, 3}, 0.0},
		{"normalized vectors 45 degrees", embeddings.Vector{1, 0}, embeddings.Vector{0.707, 0.707}, 0.707},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CosineSimilarity(tt.a, tt.b)
			if math.Abs(float64(result-tt.expected)) > 0.01 {
				t.Errorf("got %f, want %f", result, tt.expected)
			}
		})
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	e := new(embeddings.MockEmbedder)
	_, err := Build(context.Background(), nil, e)
	if !errdefs.IsKind(err, errdefs.KindInvalidArgument) {
		t.Errorf("expected invalid_argument, got %v", err)
	}
}
