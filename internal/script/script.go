// Package script reads and writes Kaldi script (.scp) files: one entry per
// line, a key followed by the rxfilename holding that key's value. The
// rxfilename part is kept verbatim (it may itself be a pipe or carry a byte
// offset), so resolution stays with the xfile package.
package script

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Entry is one script line.
type Entry struct {
	Key        string
	Rxfilename string
}

// Reader streams entries from a script file.
type Reader struct {
	s    *bufio.Scanner
	line int
}

// NewReader wraps an open script stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{s: bufio.NewScanner(r)}
}

// Next returns the next entry. io.EOF signals a clean end of the script.
func (r *Reader) Next() (Entry, error) {
	for r.s.Scan() {
		r.line++
		line := strings.TrimSpace(r.s.Text())
		if line == "" {
			continue
		}
		e, err := parseLine(line)
		if err != nil {
			return Entry{}, fmt.Errorf("script line %d: %w", r.line, err)
		}
		return e, nil
	}
	if err := r.s.Err(); err != nil {
		return Entry{}, err
	}
	return Entry{}, io.EOF
}

func parseLine(line string) (Entry, error) {
	key, rest, ok := strings.Cut(line, " ")
	if !ok {
		key, rest, ok = strings.Cut(line, "\t")
	}
	rest = strings.TrimSpace(rest)
	if !ok || key == "" || rest == "" {
		return Entry{}, fmt.Errorf("malformed entry %q", line)
	}
	// The rxfilename may contain spaces (e.g. a pipe command); everything
	// after the key belongs to it.
	return Entry{Key: key, Rxfilename: rest}, nil
}

// Load reads a whole script into key order-preserving entries.
func Load(r io.Reader) ([]Entry, error) {
	sr := NewReader(r)
	var entries []Entry
	for {
		e, err := sr.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
}

// WriteEntry emits one script line.
func WriteEntry(w io.Writer, key, rxfilename string) error {
	_, err := fmt.Fprintf(w, "%s %s\n", key, rxfilename)
	return err
}

// LoadKeyMap reads a two-column file (such as an utterance-to-speaker map)
// into a lookup-key translation map. Later duplicates win, matching the
// permissive native behavior.
func LoadKeyMap(r io.Reader) (map[string]string, error) {
	entries, err := Load(r)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		if strings.ContainsAny(e.Rxfilename, " \t") {
			return nil, fmt.Errorf("key map entry %q: want exactly two columns", e.Key)
		}
		m[e.Key] = e.Rxfilename
	}
	return m, nil
}
