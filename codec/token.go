package codec

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Tokens are written as text in both binary and text mode, one entry per
// line, matching the native holder behavior.

type tokenCodec struct{}

func (tokenCodec) Tag() string { return "t" }

func (c tokenCodec) Check(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, mismatch("t", "want string, got %T", value)
	}
	if err := validateToken(s); err != nil {
		return nil, mismatch("t", "%v", err)
	}
	return s, nil
}

func (tokenCodec) Encode(w io.Writer, value any, _ bool) error {
	_, err := io.WriteString(w, value.(string)+"\n")
	return err
}

func (tokenCodec) Decode(r *bufio.Reader) (any, error) {
	line, err := ReadLine(r)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) != 1 {
		return nil, fmt.Errorf("expected a single token, got %q", line)
	}
	return fields[0], nil
}

type tokenVectorCodec struct{}

func (tokenVectorCodec) Tag() string { return "tv" }

func (c tokenVectorCodec) Check(value any) (any, error) {
	if value == nil {
		return []string(nil), nil
	}
	toks, ok := value.([]string)
	if !ok {
		return nil, mismatch("tv", "want []string, got %T", value)
	}
	for _, t := range toks {
		if err := validateToken(t); err != nil {
			return nil, mismatch("tv", "%v", err)
		}
	}
	return toks, nil
}

func (tokenVectorCodec) Encode(w io.Writer, value any, _ bool) error {
	toks := value.([]string)
	_, err := io.WriteString(w, strings.Join(toks, " ")+"\n")
	return err
}

func (tokenVectorCodec) Decode(r *bufio.Reader) (any, error) {
	line, err := ReadLine(r)
	if err != nil {
		return nil, err
	}
	return strings.Fields(line), nil
}

func validateToken(s string) error {
	if s == "" {
		return fmt.Errorf("empty token")
	}
	if strings.ContainsAny(s, " \t\n\r") {
		return fmt.Errorf("token %q contains whitespace", s)
	}
	return nil
}
