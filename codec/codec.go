// Package codec implements the wire formats for Kaldi table values.
//
// One Codec exists per concrete value type; the registry resolves the short
// type tags used by existing tooling ("fv", "dm", "t", ...) to a codec. The
// "base" tags ("bv", "bm") are aliases whose concrete precision is fixed at
// build time (see the model package), so call sites never branch on precision.
//
// Codecs are stateless and safe for concurrent use.
package codec

import (
	"bufio"
	"fmt"
	"io"

	"github.com/hupe1980/arkio/model"
)

// Codec encodes and decodes one value type of a Kaldi table.
//
// Encode and Decode handle everything that follows the "key " prefix of an
// archive entry, including the binary-mode marker for types that use one
// (numeric types do, token and wave types do not).
type Codec interface {
	// Tag returns the concrete type tag this codec serves, e.g. "fv".
	Tag() string

	// Check validates value and returns its canonical form (for matrices,
	// with a degenerate shape coerced to (0,0)). It returns a
	// *TypeMismatchError when value does not fit the codec's type.
	Check(value any) (any, error)

	// Encode writes a checked value. binary selects the binary wire form
	// where the type distinguishes one.
	Encode(w io.Writer, value any, binary bool) error

	// Decode reads one value, auto-detecting binary vs text where the type
	// distinguishes them.
	Decode(r *bufio.Reader) (any, error)
}

// UnsupportedTypeError reports an unrecognized type tag.
type UnsupportedTypeError struct {
	Tag string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported table type %q", e.Tag)
}

// TypeMismatchError reports a value whose type or shape disagrees with the
// codec it was handed to.
type TypeMismatchError struct {
	Tag    string
	Reason string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch for %q: %s", e.Tag, e.Reason)
}

func mismatch(tag, format string, args ...any) *TypeMismatchError {
	return &TypeMismatchError{Tag: tag, Reason: fmt.Sprintf(format, args...)}
}

var codecs = map[string]Codec{
	"fv": vectorCodec[float32]{tag: "fv", token: "FV"},
	"dv": vectorCodec[float64]{tag: "dv", token: "DV"},
	"fm": matrixCodec[float32]{tag: "fm", token: "FM"},
	"dm": matrixCodec[float64]{tag: "dm", token: "DM"},
	"t":  tokenCodec{},
	"tv": tokenVectorCodec{},
	"wm": waveCodec{},
}

// ForType returns the codec for a type tag. The base-precision aliases "bv"
// and "bm" resolve to the concrete precision declared at build time.
func ForType(tag string) (Codec, error) {
	switch tag {
	case "bv":
		if model.DoubleIsBase {
			tag = "dv"
		} else {
			tag = "fv"
		}
	case "bm":
		if model.DoubleIsBase {
			tag = "dm"
		} else {
			tag = "fm"
		}
	}
	c, ok := codecs[tag]
	if !ok {
		return nil, &UnsupportedTypeError{Tag: tag}
	}
	return c, nil
}
