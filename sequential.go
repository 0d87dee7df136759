package arkio

import (
	"fmt"
	"io"
	"iter"

	"github.com/hupe1980/arkio/codec"
	"github.com/hupe1980/arkio/internal/script"
	"github.com/hupe1980/arkio/xfile"
)

// SequentialReader iterates the entries of a table in a single forward
// pass. It reads one entry ahead, so Key reports the cursor without
// consuming it. A reader never rewinds; one pass per open.
type SequentialReader struct {
	dtype DataType
	c     codec.Codec
	opts  options
	spec  xfile.RSpecifier

	in  *xfile.Input   // archive stream, or the script file stream
	scp *script.Reader // non-nil when driven by a script

	key    string
	value  any
	done   bool
	failed error
	closed bool
}

// NewSequentialReader opens a table for a forward pass. location is an
// rspecifier such as "ark:feats.ark" or "scp,p:wav.scp".
func NewSequentialReader(location string, dtype DataType, opts ...Option) (*SequentialReader, error) {
	spec, err := xfile.ParseRSpecifier(location)
	if err != nil {
		return nil, openError(location, "sequential read", err)
	}
	c, err := resolveCodec(dtype)
	if err != nil {
		return nil, err
	}
	r := &SequentialReader{
		dtype: dtype,
		c:     c,
		opts:  newOptions(opts),
		spec:  spec,
	}
	r.in, err = xfile.OpenInput(spec.Location)
	if err != nil {
		return nil, err
	}
	if spec.Kind == xfile.Script {
		r.scp = script.NewReader(r.in.Reader())
	}
	r.advance()
	if r.failed != nil {
		_ = r.in.Close()
		return nil, openError(location, "sequential read", r.failed)
	}
	r.opts.logger.Debug("table opened", "mode", "sequential", "location", location, "dtype", dtype.String())
	return r, nil
}

// Done reports whether the cursor has passed the last entry.
func (r *SequentialReader) Done() bool {
	return r.closed || r.done
}

// Key returns the key at the cursor without consuming the entry. It is
// empty once the reader is done.
func (r *SequentialReader) Key() string {
	if r.closed || r.done {
		return ""
	}
	return r.key
}

// Next returns the entry at the cursor and advances past it. Past the last
// entry it fails with ErrExhausted, idempotently.
func (r *SequentialReader) Next() (key string, value any, err error) {
	if r.closed {
		return "", nil, ErrClosed
	}
	if r.failed != nil {
		return "", nil, r.failed
	}
	if r.done {
		return "", nil, ErrExhausted
	}
	key, value = r.key, r.value
	r.advance()
	return key, value, nil
}

// All iterates the remaining entries as (key, value) pairs. Iteration stops
// early on a read fault, which Err then reports.
func (r *SequentialReader) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for {
			k, v, err := r.Next()
			if err != nil {
				return
			}
			if !yield(k, v) {
				return
			}
		}
	}
}

// Values iterates the remaining entries without their keys.
func (r *SequentialReader) Values() iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, v := range r.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Err returns the fault that ended the pass early, if any. A pass that
// reached the end cleanly leaves it nil.
func (r *SequentialReader) Err() error {
	return r.failed
}

// Close releases the stream. It is idempotent; the first call wins.
func (r *SequentialReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.key, r.value = "", nil
	r.opts.logger.Debug("table closed", "mode", "sequential", "location", r.spec.Location)
	return r.in.Close()
}

func (r *SequentialReader) advance() {
	if r.scp != nil {
		r.advanceScript()
		return
	}
	br := r.in.Reader()
	key, err := codec.ReadKey(br)
	if err == io.EOF {
		r.done = true
		return
	}
	if err != nil {
		r.failed = fmt.Errorf("read key: %w", err)
		return
	}
	v, err := r.c.Decode(br)
	if err != nil {
		r.failed = fmt.Errorf("entry %q: %w", key, err)
		return
	}
	r.key, r.value = key, surfaceValue(v, r.opts)
}

func (r *SequentialReader) advanceScript() {
	for {
		e, err := r.scp.Next()
		if err == io.EOF {
			r.done = true
			return
		}
		if err != nil {
			r.failed = err
			return
		}
		v, err := r.readScriptValue(e)
		if err != nil {
			if r.spec.Opts.Permissive {
				r.opts.logger.Warn("skipping unreadable script entry",
					"key", e.Key, "rxfilename", e.Rxfilename, "error", err)
				continue
			}
			r.failed = fmt.Errorf("entry %q: %w", e.Key, err)
			return
		}
		r.key, r.value = e.Key, surfaceValue(v, r.opts)
		return
	}
}

func (r *SequentialReader) readScriptValue(e script.Entry) (any, error) {
	in, err := xfile.OpenInput(e.Rxfilename)
	if err != nil {
		return nil, err
	}
	v, err := r.c.Decode(in.Reader())
	if cerr := in.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
