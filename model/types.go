package model

import (
	"fmt"
)

// Float constrains the element types a table vector or matrix may hold.
type Float interface {
	~float32 | ~float64
}

// Matrix is a dense row-major matrix.
//
// Rows and Cols are kept explicit (rather than deriving them from a nested
// slice) because the archive format distinguishes a (0,5) matrix from a (0,0)
// one only until it is written: degenerate shapes are normalized on write.
type Matrix[F Float] struct {
	Rows, Cols int
	Data       []F // row-major, len == Rows*Cols
}

// Matrix32 is a single precision matrix.
type Matrix32 = Matrix[float32]

// Matrix64 is a double precision matrix.
type Matrix64 = Matrix[float64]

// NewMatrix allocates a zeroed rows x cols matrix.
func NewMatrix[F Float](rows, cols int) Matrix[F] {
	return Matrix[F]{Rows: rows, Cols: cols, Data: make([]F, rows*cols)}
}

// At returns the element at row r, column c.
func (m Matrix[F]) At(r, c int) F {
	return m.Data[r*m.Cols+c]
}

// Set assigns the element at row r, column c.
func (m *Matrix[F]) Set(r, c int, v F) {
	m.Data[r*m.Cols+c] = v
}

// Row returns a view of row r.
func (m Matrix[F]) Row(r int) []F {
	return m.Data[r*m.Cols : (r+1)*m.Cols]
}

// Degenerate reports whether exactly one axis is zero. The archive format
// cannot represent such shapes; writers coerce them to (0,0).
func (m Matrix[F]) Degenerate() bool {
	return (m.Rows == 0) != (m.Cols == 0)
}

// Normalized returns m with a degenerate shape coerced to the canonical
// (0,0) empty matrix. Well-formed matrices are returned unchanged.
func (m Matrix[F]) Normalized() Matrix[F] {
	if m.Degenerate() {
		return Matrix[F]{}
	}
	return m
}

// Validate checks that the data length matches the declared shape.
func (m Matrix[F]) Validate() error {
	if m.Rows < 0 || m.Cols < 0 {
		return fmt.Errorf("model: negative matrix shape (%d,%d)", m.Rows, m.Cols)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return fmt.Errorf("model: matrix data length %d does not match shape (%d,%d)",
			len(m.Data), m.Rows, m.Cols)
	}
	return nil
}

// String returns a short shape description, e.g. "Matrix(3x40)".
func (m Matrix[F]) String() string {
	return fmt.Sprintf("Matrix(%dx%d)", m.Rows, m.Cols)
}

// WaveInfo describes decoded audio independent of its samples.
type WaveInfo struct {
	SampleRate float32 // frames per second
	Channels   int
	Duration   float64 // seconds
}

// Wave is decoded PCM audio. Samples has one row per channel; sample values
// keep the raw 16-bit integer range (they are not normalized to [-1, 1]),
// matching Kaldi's WaveData convention.
type Wave struct {
	Info    WaveInfo
	Samples BaseMatrix
}
