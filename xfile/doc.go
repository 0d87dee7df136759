// Package xfile resolves Kaldi extended filenames and table specifiers.
//
// An extended filename names a byte stream, not just a file:
//
//	foo.ark          plain file
//	-                standard input/output
//	gunzip -c a.gz | input pipe (command's stdout is the stream)
//	| sort > b.txt   output pipe (the stream is the command's stdin)
//	foo.ark:12345    plain file starting at a byte offset (read side only)
//
// A table specifier prefixes an extended filename with the table kind and
// option flags, e.g. "ark:foo.ark", "scp,p:foo.scp", "ark,t:-" or, on the
// write side, "ark,scp:foo.ark,foo.scp" to produce an archive and its script
// index in one pass.
//
// Paths ending in .gz, .zst or .lz4 are wrapped in the matching
// (de)compressor transparently. This grammar is owned by the archive format
// and is honored verbatim for compatibility with existing tooling.
package xfile
