package arkio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/arkio/codec"
	"github.com/hupe1980/arkio/internal/mmap"
	"github.com/hupe1980/arkio/internal/script"
	"github.com/hupe1980/arkio/xfile"
)

// RandomAccessReader serves point lookups against a table.
//
// A script source is loaded as a key -> rxfilename index and values are
// decoded on demand. An archive in a plain local file is memory-mapped and
// scanned once into a key -> offset index; lookups decode straight from the
// mapping. Any other archive source (pipe, compressed, standard input) is
// not seekable, so all entries are decoded eagerly at open.
//
// Lookups are pure reads and carry no ordering guarantee.
type RandomAccessReader struct {
	dtype DataType
	c     codec.Codec
	opts  options
	spec  xfile.RSpecifier

	keyMap map[string]string // nil when no key translation is configured

	// Exactly one backing is populated.
	scpIndex map[string]string // script: key -> rxfilename
	mapping  *mmap.Mapping     // archive, local file
	offsets  map[string]int64  // archive, local file: key -> value offset
	values   map[string]any    // archive, non-seekable: decoded entries

	closed bool
}

// NewRandomAccessReader opens a table for point lookups. location is an
// rspecifier such as "scp:feats.scp" or "ark:feats.ark".
func NewRandomAccessReader(location string, dtype DataType, opts ...Option) (*RandomAccessReader, error) {
	spec, err := xfile.ParseRSpecifier(location)
	if err != nil {
		return nil, openError(location, "random access read", err)
	}
	c, err := resolveCodec(dtype)
	if err != nil {
		return nil, err
	}
	r := &RandomAccessReader{
		dtype: dtype,
		c:     c,
		opts:  newOptions(opts),
		spec:  spec,
	}
	if r.opts.keyMap != "" {
		if r.keyMap, err = loadKeyMap(r.opts.keyMap); err != nil {
			return nil, err
		}
	}
	switch {
	case spec.Kind == xfile.Script:
		err = r.loadScript()
	case xfile.ClassifyInput(spec.Location) == xfile.InputFile && !xfile.Compressed(spec.Location):
		err = r.indexArchive()
	default:
		err = r.loadArchiveEager()
	}
	if err != nil {
		return nil, err
	}
	r.opts.logger.Debug("table opened", "mode", "random access", "location", location,
		"dtype", dtype.String(), "keys", r.size())
	return r, nil
}

// Contains reports whether the table has an entry for key, after any
// configured key translation.
func (r *RandomAccessReader) Contains(key string) (bool, error) {
	if r.closed {
		return false, ErrClosed
	}
	lk, ok := r.translate(key)
	if !ok {
		return false, nil
	}
	switch {
	case r.scpIndex != nil:
		_, ok = r.scpIndex[lk]
	case r.offsets != nil:
		_, ok = r.offsets[lk]
	default:
		_, ok = r.values[lk]
	}
	return ok, nil
}

// Get returns the value stored under key. A miss (including a key with no
// map translation) fails with *KeyNotFoundError; the value is never
// silently substituted.
func (r *RandomAccessReader) Get(key string) (any, error) {
	if r.closed {
		return nil, ErrClosed
	}
	lk, ok := r.translate(key)
	if !ok {
		return nil, &KeyNotFoundError{Key: key}
	}
	v, err := r.get(lk, key)
	if err != nil {
		return nil, err
	}
	return surfaceValue(v, r.opts), nil
}

// Lookup is the soft variant of Get: it reports a miss as ok == false
// instead of an error. Read faults behind a script entry are logged and
// also reported as a miss.
func (r *RandomAccessReader) Lookup(key string) (any, bool) {
	v, err := r.Get(key)
	if err != nil {
		var notFound *KeyNotFoundError
		if !errors.As(err, &notFound) {
			r.opts.logger.Warn("lookup failed", "key", key, "error", err)
		}
		return nil, false
	}
	return v, true
}

// Close releases the index and any mapping. It is idempotent.
func (r *RandomAccessReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.scpIndex, r.offsets, r.values, r.keyMap = nil, nil, nil, nil
	r.opts.logger.Debug("table closed", "mode", "random access", "location", r.spec.Location)
	if r.mapping != nil {
		return r.mapping.Close()
	}
	return nil
}

func (r *RandomAccessReader) get(lk, orig string) (any, error) {
	switch {
	case r.scpIndex != nil:
		rx, ok := r.scpIndex[lk]
		if !ok {
			return nil, &KeyNotFoundError{Key: orig}
		}
		v, err := decodeAt(rx, r.c)
		if err != nil {
			if r.spec.Opts.Permissive {
				r.opts.logger.Warn("skipping unreadable script entry",
					"key", lk, "rxfilename", rx, "error", err)
				return nil, &KeyNotFoundError{Key: orig}
			}
			return nil, err
		}
		return v, nil

	case r.offsets != nil:
		off, ok := r.offsets[lk]
		if !ok {
			return nil, &KeyNotFoundError{Key: orig}
		}
		br := bufio.NewReader(bytes.NewReader(r.mapping.Bytes()[off:]))
		v, err := r.c.Decode(br)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", lk, err)
		}
		return v, nil

	default:
		v, ok := r.values[lk]
		if !ok {
			return nil, &KeyNotFoundError{Key: orig}
		}
		return v, nil
	}
}

func (r *RandomAccessReader) translate(key string) (string, bool) {
	if r.keyMap == nil {
		return key, true
	}
	mapped, ok := r.keyMap[key]
	return mapped, ok
}

func (r *RandomAccessReader) size() int {
	switch {
	case r.scpIndex != nil:
		return len(r.scpIndex)
	case r.offsets != nil:
		return len(r.offsets)
	default:
		return len(r.values)
	}
}

func (r *RandomAccessReader) loadScript() error {
	in, err := xfile.OpenInput(r.spec.Location)
	if err != nil {
		return err
	}
	entries, err := script.Load(in.Reader())
	if cerr := in.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return openError(r.spec.Location, "random access read", err)
	}
	r.scpIndex = make(map[string]string, len(entries))
	for _, e := range entries {
		r.scpIndex[e.Key] = e.Rxfilename // later duplicates win
	}
	return nil
}

func (r *RandomAccessReader) indexArchive() error {
	m, err := mmap.Open(r.spec.Location)
	if err != nil {
		return openError(r.spec.Location, "random access read", err)
	}
	offsets, err := scanArchiveOffsets(m.Bytes(), r.c)
	if err != nil {
		if !r.spec.Opts.Permissive {
			_ = m.Close()
			return openError(r.spec.Location, "random access read", err)
		}
		r.opts.logger.Warn("archive index stops at first unreadable entry",
			"location", r.spec.Location, "indexed", len(offsets), "error", err)
	}
	r.mapping = m
	r.offsets = offsets
	return nil
}

func (r *RandomAccessReader) loadArchiveEager() error {
	in, err := xfile.OpenInput(r.spec.Location)
	if err != nil {
		return err
	}
	defer in.Close()

	br := in.Reader()
	values := make(map[string]any)
	for {
		key, err := codec.ReadKey(br)
		if err == io.EOF {
			break
		}
		if err == nil {
			var v any
			if v, err = r.c.Decode(br); err == nil {
				values[key] = v // later duplicates win
				continue
			}
			err = fmt.Errorf("entry %q: %w", key, err)
		}
		if r.spec.Opts.Permissive {
			r.opts.logger.Warn("archive read stops at first unreadable entry",
				"location", r.spec.Location, "loaded", len(values), "error", err)
			break
		}
		return openError(r.spec.Location, "random access read", err)
	}
	r.values = values
	return nil
}

// scanArchiveOffsets walks a whole archive once, recording where each key's
// value starts. Values are decoded during the scan purely to find the next
// entry; the index only keeps offsets.
func scanArchiveOffsets(data []byte, c codec.Codec) (map[string]int64, error) {
	cr := &countingReader{r: bytes.NewReader(data)}
	br := bufio.NewReader(cr)
	offsets := make(map[string]int64)
	for {
		key, err := codec.ReadKey(br)
		if err == io.EOF {
			return offsets, nil
		}
		if err != nil {
			return offsets, fmt.Errorf("read key: %w", err)
		}
		off := cr.n - int64(br.Buffered())
		if _, err := c.Decode(br); err != nil {
			return offsets, fmt.Errorf("entry %q: %w", key, err)
		}
		offsets[key] = off // later duplicates win
	}
}

func decodeAt(rxfilename string, c codec.Codec) (any, error) {
	in, err := xfile.OpenInput(rxfilename)
	if err != nil {
		return nil, err
	}
	v, err := c.Decode(in.Reader())
	if cerr := in.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func loadKeyMap(rxfilename string) (map[string]string, error) {
	in, err := xfile.OpenInput(rxfilename)
	if err != nil {
		return nil, err
	}
	m, err := script.LoadKeyMap(in.Reader())
	if cerr := in.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return nil, openError(rxfilename, "read", err)
	}
	return m, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
