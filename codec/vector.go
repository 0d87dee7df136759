package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/arkio/model"
)

type vectorCodec[F model.Float] struct {
	tag   string
	token string // binary type marker, "FV" or "DV"
}

func (c vectorCodec[F]) Tag() string { return c.tag }

func (c vectorCodec[F]) Check(value any) (any, error) {
	if value == nil {
		return []F(nil), nil
	}
	v, ok := value.([]F)
	if !ok {
		return nil, mismatch(c.tag, "want []%s, got %T", floatName[F](), value)
	}
	return v, nil
}

func (c vectorCodec[F]) Encode(w io.Writer, value any, bin bool) error {
	vec := value.([]F)
	if !bin {
		return writeTextVector(w, vec)
	}
	if err := WriteBinaryHeader(w); err != nil {
		return err
	}
	if err := WriteToken(w, c.token); err != nil {
		return err
	}
	if err := WriteBasicInt32(w, int32(len(vec))); err != nil {
		return err
	}
	if len(vec) == 0 {
		return nil
	}
	return binary.Write(w, binary.LittleEndian, vec)
}

func (c vectorCodec[F]) Decode(r *bufio.Reader) (any, error) {
	bin, err := ConsumeBinaryHeader(r)
	if err != nil {
		return nil, err
	}
	if !bin {
		return readTextVector[F](r)
	}
	if err := ExpectToken(r, c.token); err != nil {
		return nil, err
	}
	n, err := ReadBasicInt32(r)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("negative vector dimension %d", n)
	}
	vec := make([]F, n)
	if n > 0 {
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, err
		}
	}
	return vec, nil
}

func writeTextVector[F model.Float](w io.Writer, vec []F) error {
	var sb strings.Builder
	sb.WriteString("[ ")
	for _, v := range vec {
		sb.WriteString(formatFloat(v))
		sb.WriteByte(' ')
	}
	sb.WriteString("]\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func readTextVector[F model.Float](r *bufio.Reader) ([]F, error) {
	tok, err := nextTextToken(r)
	if err != nil {
		return nil, err
	}
	if tok != "[" {
		return nil, fmt.Errorf("expected '[' to begin vector, got %q", tok)
	}
	var vec []F
	for {
		tok, err = nextTextToken(r)
		if err != nil {
			return nil, err
		}
		switch tok {
		case "]":
			if err := consumeEOL(r); err != nil {
				return nil, err
			}
			return vec, nil
		case "\n":
			// Tolerated inside a vector.
		default:
			v, err := parseFloat[F](tok)
			if err != nil {
				return nil, err
			}
			vec = append(vec, v)
		}
	}
}

// nextTextToken returns the next token of a text-mode value. '[' and ']' are
// standalone tokens; a newline is reported as the token "\n" because it
// separates matrix rows.
func nextTextToken(r *bufio.Reader) (string, error) {
	if err := skipBlanks(r); err != nil {
		return "", err
	}
	b, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	switch b {
	case '\n':
		return "\n", nil
	case '\r':
		// Swallow a following '\n' if present.
		if nb, err := r.Peek(1); err == nil && nb[0] == '\n' {
			_, _ = r.Discard(1)
		}
		return "\n", nil
	case '[', ']':
		return string(b), nil
	}
	var sb strings.Builder
	sb.WriteByte(b)
	for {
		b, err = r.ReadByte()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		if b == ' ' || b == '\t' {
			return sb.String(), nil
		}
		if b == '\n' || b == '\r' || b == ']' {
			return sb.String(), r.UnreadByte()
		}
		sb.WriteByte(b)
	}
}

// consumeEOL eats trailing blanks and the end-of-value newline, so that the
// next archive key starts cleanly. EOF is fine: the value may end the stream.
func consumeEOL(r *bufio.Reader) error {
	err := skipBlanks(r)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	b, err := r.ReadByte()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	if b == '\r' {
		if nb, err := r.Peek(1); err == nil && nb[0] == '\n' {
			_, _ = r.Discard(1)
		}
		return nil
	}
	if b == '\n' {
		return nil
	}
	return r.UnreadByte()
}

func formatFloat[F model.Float](v F) string {
	return strconv.FormatFloat(float64(v), 'g', -1, floatBits[F]())
}

func parseFloat[F model.Float](s string) (F, error) {
	v, err := strconv.ParseFloat(s, floatBits[F]())
	if err != nil {
		return 0, fmt.Errorf("bad float %q: %w", s, err)
	}
	return F(v), nil
}

func floatBits[F model.Float]() int {
	var z F
	if _, ok := any(z).(float32); ok {
		return 32
	}
	return 64
}

func floatName[F model.Float]() string {
	if floatBits[F]() == 32 {
		return "float32"
	}
	return "float64"
}
