package xfile

import (
	"fmt"
	"strconv"
	"strings"
)

// InputType classifies an rxfilename.
type InputType int

const (
	InputUnknown InputType = iota
	InputStandard
	InputPipe
	InputOffsetFile
	InputFile
)

// OutputType classifies a wxfilename.
type OutputType int

const (
	OutputUnknown OutputType = iota
	OutputStandard
	OutputPipe
	OutputFile
)

// ClassifyInput determines what kind of stream an rxfilename denotes.
func ClassifyInput(rxfilename string) InputType {
	switch {
	case rxfilename == "" || rxfilename == "-":
		return InputStandard
	case strings.HasSuffix(rxfilename, "|"):
		return InputPipe
	default:
		if _, _, ok := SplitOffset(rxfilename); ok {
			return InputOffsetFile
		}
		return InputFile
	}
}

// ClassifyOutput determines what kind of stream a wxfilename denotes.
func ClassifyOutput(wxfilename string) OutputType {
	switch {
	case wxfilename == "" || wxfilename == "-":
		return OutputStandard
	case strings.HasPrefix(wxfilename, "|"):
		return OutputPipe
	default:
		return OutputFile
	}
}

// SplitOffset splits a "path:offset" rxfilename. ok is false when the
// filename carries no byte offset (a trailing ":123" requires all digits;
// anything else is part of the path).
func SplitOffset(rxfilename string) (path string, offset int64, ok bool) {
	i := strings.LastIndexByte(rxfilename, ':')
	if i <= 0 || i == len(rxfilename)-1 {
		return "", 0, false
	}
	off, err := strconv.ParseInt(rxfilename[i+1:], 10, 64)
	if err != nil || off < 0 {
		return "", 0, false
	}
	return rxfilename[:i], off, true
}

// OpenError reports a location that could not be opened for the requested
// operation. It wraps the underlying fault so no bare failure escapes the
// boundary.
type OpenError struct {
	Location string
	Op       string // "read", "write" or "random access"
	Err      error
}

func (e *OpenError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot open %q for %s", e.Location, e.Op)
	}
	return fmt.Sprintf("cannot open %q for %s: %v", e.Location, e.Op, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }
