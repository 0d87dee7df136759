// Package arkio reads and writes Kaldi tables: typed key/value archives and
// the script files that index them.
//
// # Table Handles
//
// Three handle kinds cover the access patterns of the native table code:
//
//	r, _ := arkio.NewSequentialReader("ark:feats.ark", arkio.BaseMatrix)
//	for key, val := range r.All() { ... }
//
//	ra, _ := arkio.NewRandomAccessReader("scp:feats.scp", arkio.BaseMatrix)
//	val, err := ra.Get("utt-001")
//
//	w, _ := arkio.NewWriter("ark,scp:out.ark,out.scp", arkio.FloatVector)
//	err := w.Write("utt-001", []float32{1, 2, 3})
//
// Open mirrors the classic factory entry point with modes "r", "r+" and "w".
//
// # Locations
//
// Locations are table specifiers over extended filenames ("ark:-",
// "scp,p:foo.scp", "ark:gunzip -c foo.ark.gz |"); see the xfile package for
// the accepted grammar.
//
// # Types
//
// The nine type tags (bv dv fv bm dm fm wm t tv) select the value codec.
// The "base" tags resolve to 32-bit floats unless the package is built with
// the kaldi_double tag.
//
// # Concurrency
//
// A handle is single-goroutine; there is no internal locking. Independent
// handles over different locations need no coordination.
package arkio
