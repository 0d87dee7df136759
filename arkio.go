package arkio

import (
	"fmt"

	"github.com/hupe1980/arkio/codec"
	"github.com/hupe1980/arkio/model"
)

// Table is the surface every handle kind shares. Handles move
// Closed -> Open -> Closed; Close is idempotent and any other operation on
// a closed handle fails with ErrClosed.
type Table interface {
	Close() error
}

// Open is the factory entry point: mode "r" opens a SequentialReader, "r+"
// a RandomAccessReader and "w" (or "w+") a Writer. Callers that need the
// concrete handle type use the dedicated constructors instead.
func Open(location string, dtype DataType, mode string, opts ...Option) (Table, error) {
	switch mode {
	case "r":
		return NewSequentialReader(location, dtype, opts...)
	case "r+":
		return NewRandomAccessReader(location, dtype, opts...)
	case "w", "w+":
		return NewWriter(location, dtype, opts...)
	default:
		return nil, fmt.Errorf(`invalid table mode %q (want "r", "r+" or "w")`, mode)
	}
}

func resolveCodec(dtype DataType) (codec.Codec, error) {
	return codec.ForType(string(dtype))
}

// surfaceValue shapes a decoded value for the caller: wave entries carry
// their info only when asked for.
func surfaceValue(v any, o options) any {
	if w, ok := v.(model.Wave); ok && !o.waveInfo {
		return w.Samples
	}
	return v
}
