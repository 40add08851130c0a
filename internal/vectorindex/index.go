// Package vectorindex provides a read-only brute-force cosine similarity
// index over chunk embeddings. An index is built once from the full chunk set
// of one document and never mutated; Search is safe for concurrent use.
package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"docchat/internal/chunker"
)

// ErrEmptyIndex indicates Build was called with zero chunks.
var ErrEmptyIndex = errors.New("vector index requires at least one chunk")

// Hit pairs a retrieved chunk with its similarity score.
type Hit struct {
	Chunk chunker.Chunk
	Score float64
}

// Index stores chunks plus their embeddings and precomputed magnitudes.
type Index struct {
	chunks []chunker.Chunk
	vecs   [][]float32
	mags   []float64
	dim    int
}

// Build constructs an index from a non-empty chunk sequence in one atomic
// step. It fails when the chunk count is zero, the chunk and vector counts
// differ, or the vector dimensions are inconsistent.
func Build(chunks []chunker.Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("zero-dimension embedding")
	}
	for i := range vectors {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("inconsistent vector dims %d vs %d", len(vectors[i]), dim)
		}
	}
	mags := make([]float64, len(vectors))
	for i := range vectors {
		mags[i] = magnitude(vectors[i])
	}
	return &Index{
		chunks: append([]chunker.Chunk(nil), chunks...),
		vecs:   append([][]float32(nil), vectors...),
		mags:   mags,
		dim:    dim,
	}, nil
}

func (i *Index) Len() int { return len(i.chunks) }
func (i *Index) Dim() int { return i.dim }

// Search returns the min(k, Len()) chunks most similar to query by cosine
// similarity, best-first. Ties keep original chunk insertion order.
func (i *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != i.dim {
		return nil, fmt.Errorf("query dim %d != index dim %d", len(query), i.dim)
	}
	qm := magnitude(query)

	hits := make([]Hit, len(i.chunks))
	for j := range i.vecs {
		score := 0.0
		if qm != 0 && i.mags[j] != 0 {
			score = dot(query, i.vecs[j]) / (qm * i.mags[j])
			if math.IsNaN(score) {
				score = 0
			}
		}
		hits[j] = Hit{Chunk: i.chunks[j], Score: score}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })

	if k <= 0 || k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func magnitude(v []float32) float64 {
	var sum float64
	for i := range v {
		sum += float64(v[i]) * float64(v[i])
	}
	return math.Sqrt(sum)
}
