// Package vector provides a flat inner-product similarity index over
// fixed-length float32 vectors, plus the binary codec used to persist
// vector matrices on disk.
//
// Vectors are expected to be L2-normalized by the embedding adapter, so
// inner product equals cosine similarity.
package vector

import (
	"errors"
	"fmt"
	"sort"
)

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Flat is an exact (brute-force) inner-product index. It is built in one
// pass and never mutated afterwards; a rebuild produces a fresh Flat.
type Flat struct {
	dim  int
	rows [][]float32
}

func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	return &Flat{dim: dim}, nil
}

func (f *Flat) Dim() int   { return f.dim }
func (f *Flat) Count() int { return len(f.rows) }

// Add appends vectors to the index. Every vector must match the index
// dimension.
func (f *Flat) Add(vecs [][]float32) error {
	for _, v := range vecs {
		if len(v) != f.dim {
			return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), f.dim)
		}
	}
	f.rows = append(f.rows, vecs...)
	return nil
}

// Search returns the ids and inner-product scores of the k nearest
// vectors, in descending score order. k larger than the index size
// returns everything.
func (f *Flat) Search(query []float32, k int) ([]int, []float32, error) {
	if len(query) != f.dim {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), f.dim)
	}
	if k <= 0 {
		return nil, nil, nil
	}
	if k > len(f.rows) {
		k = len(f.rows)
	}

	scores := make([]float32, len(f.rows))
	for i, row := range f.rows {
		scores[i] = dot(row, query)
	}

	ids := make([]int, len(f.rows))
	for i := range ids {
		ids[i] = i
	}
	sort.SliceStable(ids, func(a, b int) bool {
		return scores[ids[a]] > scores[ids[b]]
	})

	topScores := make([]float32, k)
	for i, id := range ids[:k] {
		topScores[i] = scores[id]
	}
	return ids[:k], topScores, nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
