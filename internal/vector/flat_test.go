package vector

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlat_Search(t *testing.T) {
	idx, err := NewFlat(2)
	assert.NoError(t, err)
	assert.NoError(t, idx.Add([][]float32{
		{1, 0},
		{0, 1},
		{0.7071, 0.7071},
	}))

	t.Run("Descending Similarity", func(t *testing.T) {
		ids, scores, err := idx.Search([]float32{1, 0}, 3)
		assert.NoError(t, err)
		assert.Equal(t, []int{0, 2, 1}, ids)
		assert.InDelta(t, 1.0, scores[0], 1e-6)
		assert.InDelta(t, 0.7071, scores[1], 1e-4)
		assert.InDelta(t, 0.0, scores[2], 1e-6)
	})

	t.Run("K Clamped To Corpus Size", func(t *testing.T) {
		ids, scores, err := idx.Search([]float32{0, 1}, 10)
		assert.NoError(t, err)
		assert.Len(t, ids, 3)
		assert.Len(t, scores, 3)
		assert.Equal(t, 1, ids[0])
	})

	t.Run("Zero K", func(t *testing.T) {
		ids, scores, err := idx.Search([]float32{0, 1}, 0)
		assert.NoError(t, err)
		assert.Empty(t, ids)
		assert.Empty(t, scores)
	})

	t.Run("Dimension Mismatch", func(t *testing.T) {
		_, _, err := idx.Search([]float32{1, 0, 0}, 1)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestFlat_Add(t *testing.T) {
	idx, err := NewFlat(3)
	assert.NoError(t, err)

	assert.ErrorIs(t, idx.Add([][]float32{{1, 2}}), ErrDimensionMismatch)
	assert.Equal(t, 0, idx.Count())

	assert.NoError(t, idx.Add([][]float32{{1, 2, 3}, {4, 5, 6}}))
	assert.Equal(t, 2, idx.Count())
	assert.Equal(t, 3, idx.Dim())
}

func TestNewFlat_InvalidDimension(t *testing.T) {
	_, err := NewFlat(0)
	assert.Error(t, err)
}

func TestMatrixCodec_RoundTrip(t *testing.T) {
	rows := [][]float32{
		{0.25, -1.5, 3},
		{0, 0, 1},
	}

	var buf bytes.Buffer
	assert.NoError(t, WriteMatrix(&buf, rows))

	got, err := ReadMatrix(&buf)
	assert.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestMatrixCodec_Corruption(t *testing.T) {
	t.Run("Bad Magic", func(t *testing.T) {
		_, err := ReadMatrix(bytes.NewReader([]byte("NOPE\x00\x00\x00\x00")))
		assert.ErrorIs(t, err, ErrBadFormat)
	})

	t.Run("Truncated Data", func(t *testing.T) {
		var buf bytes.Buffer
		assert.NoError(t, WriteMatrix(&buf, [][]float32{{1, 2, 3}}))
		truncated := buf.Bytes()[:buf.Len()-4]

		_, err := ReadMatrix(bytes.NewReader(truncated))
		assert.ErrorIs(t, err, ErrBadFormat)
	})

	t.Run("Empty Input", func(t *testing.T) {
		_, err := ReadMatrix(bytes.NewReader(nil))
		assert.ErrorIs(t, err, ErrBadFormat)
	})
}

func TestFlatCodec_RoundTrip(t *testing.T) {
	idx, err := NewFlat(2)
	assert.NoError(t, err)
	assert.NoError(t, idx.Add([][]float32{{1, 0}, {0, 1}}))

	var buf bytes.Buffer
	assert.NoError(t, WriteFlat(&buf, idx))

	got, err := ReadFlat(&buf)
	assert.NoError(t, err)
	assert.Equal(t, 2, got.Count())
	assert.Equal(t, 2, got.Dim())

	ids, _, err := got.Search([]float32{0, 1}, 1)
	assert.NoError(t, err)
	assert.Equal(t, []int{1}, ids)
}

func TestFlatCodec_RejectsEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteMatrix(&buf, nil))

	_, err := ReadFlat(&buf)
	assert.ErrorIs(t, err, ErrBadFormat)
}
