package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/arkio/model"
)

type matrixCodec[F model.Float] struct {
	tag   string
	token string // binary type marker, "FM" or "DM"
}

func (c matrixCodec[F]) Tag() string { return c.tag }

// Check validates the shape and coerces a degenerate (one axis zero) matrix
// to the canonical (0,0) form. The coercion is silent: the archive format
// simply has no representation for the degenerate shapes.
func (c matrixCodec[F]) Check(value any) (any, error) {
	m, ok := value.(model.Matrix[F])
	if !ok {
		return nil, mismatch(c.tag, "want model.Matrix[%s], got %T", floatName[F](), value)
	}
	if err := m.Validate(); err != nil {
		return nil, mismatch(c.tag, "%v", err)
	}
	return m.Normalized(), nil
}

func (c matrixCodec[F]) Encode(w io.Writer, value any, bin bool) error {
	m := value.(model.Matrix[F])
	if !bin {
		return writeTextMatrix(w, m)
	}
	if err := WriteBinaryHeader(w); err != nil {
		return err
	}
	if err := WriteToken(w, c.token); err != nil {
		return err
	}
	if err := WriteBasicInt32(w, int32(m.Rows)); err != nil {
		return err
	}
	if err := WriteBasicInt32(w, int32(m.Cols)); err != nil {
		return err
	}
	if len(m.Data) == 0 {
		return nil
	}
	return binary.Write(w, binary.LittleEndian, m.Data)
}

func (c matrixCodec[F]) Decode(r *bufio.Reader) (any, error) {
	bin, err := ConsumeBinaryHeader(r)
	if err != nil {
		return nil, err
	}
	if !bin {
		return readTextMatrix[F](r)
	}
	if err := ExpectToken(r, c.token); err != nil {
		return nil, err
	}
	rows, err := ReadBasicInt32(r)
	if err != nil {
		return nil, err
	}
	cols, err := ReadBasicInt32(r)
	if err != nil {
		return nil, err
	}
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("negative matrix shape (%d,%d)", rows, cols)
	}
	m := model.NewMatrix[F](int(rows), int(cols))
	if len(m.Data) > 0 {
		if err := binary.Read(r, binary.LittleEndian, m.Data); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func writeTextMatrix[F model.Float](w io.Writer, m model.Matrix[F]) error {
	if m.Rows == 0 {
		_, err := io.WriteString(w, "[ ]\n")
		return err
	}
	var sb strings.Builder
	sb.WriteString("[\n")
	for r := 0; r < m.Rows; r++ {
		sb.WriteString("  ")
		for _, v := range m.Row(r) {
			sb.WriteString(formatFloat(v))
			sb.WriteByte(' ')
		}
		if r == m.Rows-1 {
			sb.WriteString("]\n")
		} else {
			sb.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func readTextMatrix[F model.Float](r *bufio.Reader) (model.Matrix[F], error) {
	var zero model.Matrix[F]
	tok, err := nextTextToken(r)
	if err != nil {
		return zero, err
	}
	if tok != "[" {
		return zero, fmt.Errorf("expected '[' to begin matrix, got %q", tok)
	}
	var (
		data []F
		rows int
		cols = -1
		row  []F
	)
	endRow := func() error {
		if len(row) == 0 {
			return nil
		}
		if cols == -1 {
			cols = len(row)
		} else if len(row) != cols {
			return fmt.Errorf("ragged matrix row: %d values, want %d", len(row), cols)
		}
		data = append(data, row...)
		rows++
		row = nil
		return nil
	}
	for {
		tok, err = nextTextToken(r)
		if err != nil {
			return zero, err
		}
		switch tok {
		case "]":
			if err := endRow(); err != nil {
				return zero, err
			}
			if err := consumeEOL(r); err != nil {
				return zero, err
			}
			if rows == 0 {
				return zero, nil // (0,0)
			}
			return model.Matrix[F]{Rows: rows, Cols: cols, Data: data}, nil
		case "\n":
			if err := endRow(); err != nil {
				return zero, err
			}
		default:
			v, err := parseFloat[F](tok)
			if err != nil {
				return zero, err
			}
			row = append(row, v)
		}
	}
}
