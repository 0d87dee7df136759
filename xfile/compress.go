package xfile

import (
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compressed reports whether the path names a stream that is wrapped in a
// (de)compressor when opened.
func Compressed(p string) bool {
	switch strings.ToLower(path.Ext(stripOffset(p))) {
	case ".gz", ".zst", ".zstd", ".lz4":
		return true
	}
	return false
}

func stripOffset(p string) string {
	if base, _, ok := SplitOffset(p); ok {
		return base
	}
	return p
}

// newDecompressor wraps r according to the path suffix. The returned closer
// (possibly nil) must be closed before the underlying stream.
func newDecompressor(r io.Reader, p string) (io.Reader, io.Closer, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr, nil
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		rc := zr.IOReadCloser()
		return rc, rc, nil
	case ".lz4":
		return lz4.NewReader(r), nil, nil
	}
	return r, nil, nil
}

// newCompressor wraps w according to the path suffix. The returned closer
// (possibly nil) finalizes the compressed frame and must be closed before
// the underlying stream.
func newCompressor(w io.Writer, p string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".gz":
		zw := gzip.NewWriter(w)
		return zw, zw, nil
	case ".zst", ".zstd":
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, err
		}
		return zw, zw, nil
	case ".lz4":
		zw := lz4.NewWriter(w)
		return zw, zw, nil
	}
	return w, nil, nil
}
