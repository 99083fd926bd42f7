package vector

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// On-disk layout: 4-byte magic, uint32 dimension, uint32 row count, then
// row-major float32 data, all little-endian. The same container holds
// both the serialized index and the raw embedding matrix artifact.
var matrixMagic = [4]byte{'P', 'P', 'V', '1'}

var ErrBadFormat = errors.New("unrecognized vector file format")

// WriteMatrix serializes a row-major float32 matrix. All rows must share
// one dimension.
func WriteMatrix(w io.Writer, rows [][]float32) error {
	dim := 0
	if len(rows) > 0 {
		dim = len(rows[0])
	}
	for _, row := range rows {
		if len(row) != dim {
			return fmt.Errorf("%w: ragged row", ErrDimensionMismatch)
		}
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(matrixMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(dim)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(rows))); err != nil {
		return err
	}
	for _, row := range rows {
		if err := binary.Write(bw, binary.LittleEndian, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadMatrix deserializes a matrix written by WriteMatrix.
func ReadMatrix(r io.Reader) ([][]float32, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if magic != matrixMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadFormat, magic[:])
	}

	var dim, count uint32
	if err := binary.Read(br, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}

	rows := make([][]float32, 0, count)
	for i := uint32(0); i < count; i++ {
		row := make([]float32, dim)
		if err := binary.Read(br, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("%w: truncated row %d: %v", ErrBadFormat, i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteFlat serializes the index as its matrix.
func WriteFlat(w io.Writer, f *Flat) error {
	return WriteMatrix(w, f.rows)
}

// ReadFlat deserializes an index written by WriteFlat. A zero-row file
// is rejected: an index is only ever built over a non-empty corpus.
func ReadFlat(r io.Reader) (*Flat, error) {
	rows, err := ReadMatrix(r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty index", ErrBadFormat)
	}
	f, err := NewFlat(len(rows[0]))
	if err != nil {
		return nil, err
	}
	if err := f.Add(rows); err != nil {
		return nil, err
	}
	return f, nil
}
