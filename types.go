package arkio

import (
	"github.com/hupe1980/arkio/model"
)

// DataType selects what a table stores. The string forms are the stable
// external vocabulary shared with existing tooling and scripts.
//
//	Tag   Value type            Precision
//	bv    []float32 / []float64 base
//	dv    []float64             64-bit
//	fv    []float32             32-bit
//	bm    model.Matrix          base
//	dm    model.Matrix64        64-bit
//	fm    model.Matrix32        32-bit
//	wm    model.Wave            base
//	t     string                n/a
//	tv    []string              n/a
type DataType string

const (
	BaseVector   DataType = "bv"
	DoubleVector DataType = "dv"
	FloatVector  DataType = "fv"
	BaseMatrix   DataType = "bm"
	DoubleMatrix DataType = "dm"
	FloatMatrix  DataType = "fm"
	WaveMatrix   DataType = "wm"
	Token        DataType = "t"
	TokenVector  DataType = "tv"
)

func (d DataType) String() string { return string(d) }

// IsMatrix reports whether the type stores matrices.
func (d DataType) IsMatrix() bool {
	switch d {
	case BaseMatrix, DoubleMatrix, FloatMatrix, WaveMatrix:
		return true
	}
	return false
}

// IsFloatingPoint reports whether the type stores numeric data.
func (d DataType) IsFloatingPoint() bool {
	switch d {
	case BaseVector, DoubleVector, FloatVector,
		BaseMatrix, DoubleMatrix, FloatMatrix, WaveMatrix:
		return true
	}
	return false
}

// IsDouble reports whether the type stores 64-bit floats. For the base
// types this depends on the build-time base precision.
func (d DataType) IsDouble() bool {
	switch d {
	case BaseVector, BaseMatrix, WaveMatrix:
		return model.DoubleIsBase
	case DoubleVector, DoubleMatrix:
		return true
	}
	return false
}
