// Package index provides an exact nearest-neighbor structure over embedded
// training examples. The distance metric is cosine distance (1 - cosine
// similarity) over L2-normalized vectors, fixed at build time.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"clin-summ/internal/corpus"
	"clin-summ/internal/embeddings"
	"clin-summ/internal/errdefs"
)

// Hit is one retrieval result.
type Hit struct {
	ExampleID int
	Distance  float32
}

// Index holds normalized example vectors in corpus order. It is built once
// per dataset and safe for concurrent reads; it is never rebuilt in place.
type Index struct {
	dim     int
	ids     []int
	vectors []embeddings.Vector
}

const embedBatchSize = 128

// Build embeds every example's source text and constructs the index.
// Vector order follows corpus order, which fixes tie-breaking.
func Build(ctx context.Context, examples []corpus.Example, embedder embeddings.Embedder) (*Index, error) {
	if len(examples) == 0 {
		return nil, errdefs.InvalidArgument("cannot build index over empty corpus")
	}

	ix := &Index{
		ids:     make([]int, 0, len(examples)),
		vectors: make([]embeddings.Vector, 0, len(examples)),
	}
	for start := 0; start < len(examples); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(examples) {
			end = len(examples)
		}
		texts := make([]string, 0, end-start)
		for _, ex := range examples[start:end] {
			texts = append(texts, ex.SourceText)
		}
		vecs, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed examples %d-%d: %w", start, end-1, err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
		}
		for i, v := range vecs {
			if ix.dim == 0 {
				ix.dim = len(v)
			}
			if len(v) != ix.dim {
				return nil, errdefs.InvalidArgument("example %d: dimension %d != index dimension %d",
					examples[start+i].ID, len(v), ix.dim)
			}
			ix.ids = append(ix.ids, examples[start+i].ID)
			ix.vectors = append(ix.vectors, normalized(v))
		}
	}
	return ix, nil
}

// Query returns the k closest examples by cosine distance, ascending, with
// exact ties broken by corpus insertion order. k == 0 returns an empty slice.
func (ix *Index) Query(v embeddings.Vector, k int) ([]Hit, error) {
	if ix == nil || len(ix.vectors) == 0 {
		return nil, errdefs.InvalidArgument("index is not built")
	}
	if k < 0 || k > len(ix.vectors) {
		return nil, errdefs.InvalidArgument("k=%d out of range for corpus of %d", k, len(ix.vectors))
	}
	if k == 0 {
		return []Hit{}, nil
	}
	if len(v) != ix.dim {
		return nil, errdefs.InvalidArgument("query dimension %d != index dimension %d", len(v), ix.dim)
	}

	q := normalized(v)
	hits := make([]Hit, len(ix.vectors))
	for i, vec := range ix.vectors {
		hits[i] = Hit{ExampleID: ix.ids[i], Distance: 1 - CosineSimilarity(q, vec)}
	}
	// SliceStable keeps corpus insertion order for exact ties, which makes
	// repeated queries over the same index state deterministic.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits[:k], nil
}

// Size returns the number of indexed examples.
func (ix *Index) Size() int {
	if ix == nil {
		return 0
	}
	return len(ix.vectors)
}

// Dim returns the vector dimensionality fixed at build time.
func (ix *Index) Dim() int {
	if ix == nil {
		return 0
	}
	return ix.dim
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
func CosineSimilarity(a, b embeddings.Vector) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// normalized returns a unit-length copy of v.
func normalized(v embeddings.Vector) embeddings.Vector {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	out := make(embeddings.Vector, len(v))
	copy(out, v)
	if sum == 0 {
		return out
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range out {
		out[i] *= inv
	}
	return out
}
