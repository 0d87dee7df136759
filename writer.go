package arkio

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/hupe1980/arkio/codec"
	"github.com/hupe1980/arkio/internal/script"
	"github.com/hupe1980/arkio/xfile"
)

// Writer appends key/value entries to a table.
//
// An archive writer streams entries into a single wxfilename. A dual
// archive/script writer additionally emits one "key archive:offset" line
// per entry, so the result can later be read through the script. A plain
// script writer routes each value, without its key, to the wxfilename the
// script lists for that key.
//
// Entries are encoded in binary unless the wspecifier carries the text
// flag. Close flushes and syncs; a Writer is not safe for concurrent use.
type Writer struct {
	dtype DataType
	c     codec.Codec
	opts  options
	spec  xfile.WSpecifier

	out *xfile.Output   // archive stream
	cw  *countingWriter // counts archive bytes for script offsets
	scp *xfile.Output   // dual mode: script stream

	targets map[string]string // script mode: key -> wxfilename

	closed bool
}

// NewWriter opens a table for writing. location is a wspecifier such as
// "ark:feats.ark", "ark,scp:feats.ark,feats.scp" or "scp:out.scp".
func NewWriter(location string, dtype DataType, opts ...Option) (*Writer, error) {
	spec, err := xfile.ParseWSpecifier(location)
	if err != nil {
		return nil, openError(location, "write", err)
	}
	c, err := resolveCodec(dtype)
	if err != nil {
		return nil, err
	}
	w := &Writer{
		dtype: dtype,
		c:     c,
		opts:  newOptions(opts),
		spec:  spec,
	}
	switch spec.Kind {
	case xfile.Script:
		err = w.loadTargets()
	case xfile.ArchiveScript:
		err = w.openDual(location)
	default:
		w.out, err = xfile.OpenOutput(spec.ArchiveLocation)
		if err == nil {
			w.cw = &countingWriter{w: w.out.Writer()}
		}
	}
	if err != nil {
		return nil, err
	}
	w.opts.logger.Debug("table opened", "mode", "write", "location", location,
		"dtype", dtype.String(), "binary", !spec.Opts.Text)
	return w, nil
}

// Write appends one entry. The value must match the table's data type;
// a mismatch fails with *TypeMismatchError and writes nothing.
func (w *Writer) Write(key string, value any) error {
	if w.closed {
		return ErrClosed
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if s, ok := value.(string); ok && w.opts.tokenCharSplit && w.dtype == TokenVector {
		value = strings.Split(s, "")
	}
	value, err := w.c.Check(value)
	if err != nil {
		return err
	}
	if w.targets != nil {
		return w.writeScripted(key, value)
	}
	return w.writeArchived(key, value)
}

// Flush pushes buffered entries to the underlying stream.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	if w.out == nil {
		return nil
	}
	if err := w.out.Flush(); err != nil {
		return err
	}
	if w.scp != nil {
		return w.scp.Flush()
	}
	return nil
}

// Close flushes and releases the output streams. It is idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.opts.logger.Debug("table closed", "mode", "write", "location", w.spec.ArchiveLocation)
	var err error
	if w.out != nil {
		err = w.out.Close()
	}
	if w.scp != nil {
		if cerr := w.scp.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (w *Writer) writeArchived(key string, value any) error {
	if _, err := io.WriteString(w.cw, key+" "); err != nil {
		return err
	}
	offset := w.cw.n
	if err := w.c.Encode(w.cw, value, !w.spec.Opts.Text); err != nil {
		return err
	}
	if w.scp != nil {
		line := fmt.Sprintf("%s:%d", w.spec.ArchiveLocation, offset)
		if err := script.WriteEntry(w.scp.Writer(), key, line); err != nil {
			return err
		}
	}
	if w.spec.Opts.Flush {
		return w.Flush()
	}
	return nil
}

func (w *Writer) writeScripted(key string, value any) error {
	wx, ok := w.targets[key]
	if !ok {
		if w.spec.Opts.Permissive {
			w.opts.logger.Warn("dropping entry with no script target", "key", key)
			return nil
		}
		return &KeyNotFoundError{Key: key}
	}
	out, err := xfile.OpenOutput(wx)
	if err != nil {
		return err
	}
	err = w.c.Encode(out.Writer(), value, !w.spec.Opts.Text)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

func (w *Writer) openDual(location string) error {
	// Script offsets only make sense when the archive lands in a plain
	// local file that can be reopened and seeked later.
	if xfile.ClassifyOutput(w.spec.ArchiveLocation) != xfile.OutputFile ||
		xfile.Compressed(w.spec.ArchiveLocation) {
		return openError(location, "write",
			errors.New("dual archive/script output requires a plain local archive file"))
	}
	out, err := xfile.OpenOutput(w.spec.ArchiveLocation)
	if err != nil {
		return err
	}
	scp, err := xfile.OpenOutput(w.spec.ScriptLocation)
	if err != nil {
		_ = out.Close()
		return err
	}
	w.out, w.cw, w.scp = out, &countingWriter{w: out.Writer()}, scp
	return nil
}

func (w *Writer) loadTargets() error {
	in, err := xfile.OpenInput(w.spec.ScriptLocation)
	if err != nil {
		return err
	}
	entries, err := script.Load(in.Reader())
	if cerr := in.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return openError(w.spec.ScriptLocation, "write", err)
	}
	w.targets = make(map[string]string, len(entries))
	for _, e := range entries {
		w.targets[e.Key] = e.Rxfilename
	}
	return nil
}

// validateKey rejects keys the archive format cannot represent: the key is
// the token before the value, so it must be a single non-empty word.
func validateKey(key string) error {
	if key == "" {
		return &codec.TypeMismatchError{Tag: "key", Reason: "empty key"}
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return &codec.TypeMismatchError{Tag: "key", Reason: fmt.Sprintf("key %q contains whitespace", key)}
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
