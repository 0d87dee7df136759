package xfile

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Output is an open byte stream resolved from a wxfilename.
type Output struct {
	location string
	bw       *bufio.Writer
	file     *os.File
	comp     io.Closer
	pipe     *pipeCmd
	stdout   bool
	closed   bool
}

// OpenOutput resolves a wxfilename and opens it for writing. Failures are
// reported as *OpenError carrying the original location string.
func OpenOutput(wxfilename string) (*Output, error) {
	out := &Output{location: wxfilename}
	fail := func(err error) (*Output, error) {
		return nil, &OpenError{Location: wxfilename, Op: "write", Err: err}
	}
	switch ClassifyOutput(wxfilename) {
	case OutputStandard:
		out.stdout = true
		out.bw = bufio.NewWriter(os.Stdout)

	case OutputPipe:
		text := strings.TrimLeft(wxfilename[1:], " \t") // leading '|'
		p, w, err := startWritePipe(text)
		if err != nil {
			return fail(err)
		}
		out.pipe = p
		out.bw = bufio.NewWriter(w)

	case OutputFile:
		f, err := os.Create(wxfilename)
		if err != nil {
			return fail(err)
		}
		w, comp, err := newCompressor(f, wxfilename)
		if err != nil {
			_ = f.Close()
			return fail(err)
		}
		out.file = f
		out.comp = comp
		out.bw = bufio.NewWriter(w)

	default:
		return fail(nil)
	}
	return out, nil
}

// Location returns the wxfilename this stream was resolved from.
func (out *Output) Location() string { return out.location }

// Writer returns the buffered stream.
func (out *Output) Writer() io.Writer { return out.bw }

// Flush pushes buffered bytes down to the underlying stream.
func (out *Output) Flush() error {
	return out.bw.Flush()
}

// Close flushes, finalizes any compressed frame, syncs file output so the
// written entries are durably visible, and releases the stream. It is
// idempotent.
func (out *Output) Close() error {
	if out.closed {
		return nil
	}
	out.closed = true
	first := out.bw.Flush()
	if out.comp != nil {
		if err := out.comp.Close(); err != nil && first == nil {
			first = err
		}
	}
	if out.file != nil {
		if err := out.file.Sync(); err != nil && first == nil {
			first = err
		}
		if err := out.file.Close(); err != nil && first == nil {
			first = err
		}
	}
	if out.pipe != nil {
		if err := out.pipe.finishWrite(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
