package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// binaryHeader marks the start of a binary-mode value, immediately after the
// key and its trailing space.
const binaryHeader = "\x00B"

// WriteBinaryHeader writes the binary-mode marker.
func WriteBinaryHeader(w io.Writer) error {
	_, err := io.WriteString(w, binaryHeader)
	return err
}

// ConsumeBinaryHeader reports whether the stream continues in binary mode,
// consuming the marker if present.
func ConsumeBinaryHeader(r *bufio.Reader) (bool, error) {
	b, err := r.Peek(2)
	if err != nil {
		if err == io.EOF && len(b) < 2 {
			return false, io.ErrUnexpectedEOF
		}
		return false, err
	}
	if string(b) != binaryHeader {
		return false, nil
	}
	if _, err := r.Discard(2); err != nil {
		return false, err
	}
	return true, nil
}

// WriteToken writes a space-terminated token, e.g. the "FV " type marker.
func WriteToken(w io.Writer, tok string) error {
	_, err := io.WriteString(w, tok+" ")
	return err
}

// ExpectToken reads one space-terminated token and fails unless it matches.
func ExpectToken(r *bufio.Reader, want string) error {
	got, err := readDelimited(r, ' ')
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected token %q, got %q", want, got)
	}
	return nil
}

// WriteBasicInt32 writes an int32 in Kaldi's sized binary form: a single
// byte holding the width (4), then the little-endian value.
func WriteBasicInt32(w io.Writer, v int32) error {
	if _, err := w.Write([]byte{4}); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, v)
}

// ReadBasicInt32 reads an int32 written by WriteBasicInt32.
func ReadBasicInt32(r *bufio.Reader) (int32, error) {
	size, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if size != 4 {
		return 0, fmt.Errorf("unexpected integer width %d", size)
	}
	var v int32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// ReadKey reads the next entry key from an archive stream. It skips any
// leading whitespace, reads up to the key's delimiter and consumes that
// single delimiter byte. io.EOF signals a clean end of the archive.
func ReadKey(r *bufio.Reader) (string, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err // io.EOF here is a clean end
		}
		if !isSpace(b) {
			if err := r.UnreadByte(); err != nil {
				return "", err
			}
			break
		}
	}
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			return "", io.ErrUnexpectedEOF // key without a value
		}
		if err != nil {
			return "", err
		}
		if isSpace(b) {
			break
		}
		sb.WriteByte(b)
	}
	return sb.String(), nil
}

// ReadLine reads up to and including the next newline, returning the line
// without its trailing "\n" (or "\r\n").
func ReadLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if err == io.EOF && line == "" {
		return "", io.ErrUnexpectedEOF
	}
	line = strings.TrimRight(line, "\r\n")
	return line, nil
}

func readDelimited(r *bufio.Reader, delim byte) (string, error) {
	s, err := r.ReadString(delim)
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// skipBlanks consumes spaces and tabs, but not newlines.
func skipBlanks(r *bufio.Reader) error {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b != ' ' && b != '\t' {
			return r.UnreadByte()
		}
	}
}
