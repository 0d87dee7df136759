package xfile

import (
	"bufio"
	"io"
	"os"
)

// Input is an open byte stream resolved from an rxfilename.
type Input struct {
	location string
	br       *bufio.Reader
	file     *os.File
	comp     io.Closer
	pipe     *pipeCmd
	closed   bool
}

// OpenInput resolves an rxfilename and opens it for reading. Failures are
// reported as *OpenError carrying the original location string.
func OpenInput(rxfilename string) (*Input, error) {
	in := &Input{location: rxfilename}
	fail := func(err error) (*Input, error) {
		return nil, &OpenError{Location: rxfilename, Op: "read", Err: err}
	}
	switch ClassifyInput(rxfilename) {
	case InputStandard:
		in.br = bufio.NewReader(os.Stdin)

	case InputPipe:
		text := trimPipeInput(rxfilename)
		p, r, err := startReadPipe(text)
		if err != nil {
			return fail(err)
		}
		in.pipe = p
		in.br = bufio.NewReader(r)

	case InputOffsetFile:
		path, offset, _ := SplitOffset(rxfilename)
		f, err := os.Open(path)
		if err != nil {
			return fail(err)
		}
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			_ = f.Close()
			return fail(err)
		}
		in.file = f
		// Offsets address raw bytes; no decompression applies.
		in.br = bufio.NewReader(f)

	case InputFile:
		f, err := os.Open(rxfilename)
		if err != nil {
			return fail(err)
		}
		r, comp, err := newDecompressor(f, rxfilename)
		if err != nil {
			_ = f.Close()
			return fail(err)
		}
		in.file = f
		in.comp = comp
		in.br = bufio.NewReader(r)

	default:
		return fail(nil)
	}
	return in, nil
}

// Location returns the rxfilename this stream was resolved from.
func (in *Input) Location() string { return in.location }

// Reader returns the buffered stream.
func (in *Input) Reader() *bufio.Reader { return in.br }

// Close releases the stream, reaping a pipe's child process. It is
// idempotent.
func (in *Input) Close() error {
	if in.closed {
		return nil
	}
	in.closed = true
	var first error
	if in.comp != nil {
		first = in.comp.Close()
	}
	if in.pipe != nil {
		if err := in.pipe.finishRead(); err != nil && first == nil {
			first = err
		}
	}
	if in.file != nil {
		if err := in.file.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func trimPipeInput(rxfilename string) string {
	text := rxfilename[:len(rxfilename)-1] // trailing '|'
	for len(text) > 0 && (text[len(text)-1] == ' ' || text[len(text)-1] == '\t') {
		text = text[:len(text)-1]
	}
	return text
}
