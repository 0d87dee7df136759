// Package model defines the value types stored in Kaldi tables.
//
// # Value Types
//
//   - Vectors: plain []float32 / []float64 slices
//   - Matrix[F]: dense row-major matrix with explicit Rows/Cols, so that
//     degenerate shapes (one axis zero) are representable before they are
//     normalized to the canonical (0,0) empty matrix
//   - Wave: PCM audio samples (one row per channel) plus WaveInfo
//
// # Base Precision
//
// The "base" floating point width is fixed at build time, mirroring Kaldi's
// KALDI_DOUBLEPRECISION compile flag. By default BaseFloat is float32; building
// with the kaldi_double tag switches every "base" type to float64 process-wide.
package model
