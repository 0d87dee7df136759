//go:build kaldi_double

package model

// BaseFloat is the process-wide default floating point width.
type BaseFloat = float64

// BaseVector is a vector of the default precision.
type BaseVector = []float64

// BaseMatrix is a matrix of the default precision.
type BaseMatrix = Matrix64

// DoubleIsBase reports whether the default precision is 64-bit.
const DoubleIsBase = true
