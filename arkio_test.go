package arkio_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/arkio"
	"github.com/hupe1980/arkio/model"
)

// writeVectors fills an archive with a small fixed scenario.
func writeVectors(t *testing.T, wspecifier string) {
	t.Helper()
	w, err := arkio.NewWriter(wspecifier, arkio.FloatVector)
	require.NoError(t, err)
	require.NoError(t, w.Write("0", []float32{1, 2, 3}))
	require.NoError(t, w.Write("1", []float32{4}))
	require.NoError(t, w.Write("2", []float32{}))
	require.NoError(t, w.Close())
}

func TestSequentialVectors(t *testing.T) {
	for _, tt := range []struct {
		name  string
		wspec string
	}{
		{"binary", "ark:"},
		{"text", "ark,t:"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "vec.ark")
			writeVectors(t, tt.wspec+path)

			r, err := arkio.NewSequentialReader("ark:"+path, arkio.FloatVector)
			require.NoError(t, err)
			defer r.Close()

			assert.False(t, r.Done())
			assert.Equal(t, "0", r.Key())

			key, v, err := r.Next()
			require.NoError(t, err)
			assert.Equal(t, "0", key)
			assert.Equal(t, []float32{1, 2, 3}, v)

			key, v, err = r.Next()
			require.NoError(t, err)
			assert.Equal(t, "1", key)
			assert.Equal(t, []float32{4}, v)

			key, v, err = r.Next()
			require.NoError(t, err)
			assert.Equal(t, "2", key)
			assert.Empty(t, v)

			assert.True(t, r.Done())
			assert.Empty(t, r.Key())

			// Exhaustion is idempotent.
			_, _, err = r.Next()
			assert.ErrorIs(t, err, arkio.ErrExhausted)
			_, _, err = r.Next()
			assert.ErrorIs(t, err, arkio.ErrExhausted)
			assert.NoError(t, r.Err())
		})
	}
}

func TestSequentialIterators(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vec.ark")
	writeVectors(t, "ark:"+path)

	r, err := arkio.NewSequentialReader("ark:"+path, arkio.FloatVector)
	require.NoError(t, err)
	defer r.Close()

	var keys []string
	for key, v := range r.All() {
		keys = append(keys, key)
		assert.NotNil(t, v)
	}
	assert.Equal(t, []string{"0", "1", "2"}, keys)
	assert.NoError(t, r.Err())

	r2, err := arkio.NewSequentialReader("ark:"+path, arkio.FloatVector)
	require.NoError(t, err)
	defer r2.Close()

	n := 0
	for range r2.Values() {
		n++
	}
	assert.Equal(t, 3, n)
}

func TestOpenFactory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vec.ark")
	writeVectors(t, "ark:"+path)

	w, err := arkio.Open("ark:"+filepath.Join(dir, "out.ark"), arkio.FloatVector, "w")
	require.NoError(t, err)
	assert.IsType(t, &arkio.Writer{}, w)
	require.NoError(t, w.Close())

	r, err := arkio.Open("ark:"+path, arkio.FloatVector, "r")
	require.NoError(t, err)
	assert.IsType(t, &arkio.SequentialReader{}, r)
	require.NoError(t, r.Close())

	ra, err := arkio.Open("ark:"+path, arkio.FloatVector, "r+")
	require.NoError(t, err)
	assert.IsType(t, &arkio.RandomAccessReader{}, ra)
	require.NoError(t, ra.Close())

	_, err = arkio.Open("ark:"+path, arkio.FloatVector, "a")
	assert.Error(t, err)

	_, err = arkio.Open("ark:"+path, arkio.DataType("xx"), "r")
	var unsupported *arkio.UnsupportedTypeError
	assert.ErrorAs(t, err, &unsupported)
}

func TestClosedHandles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vec.ark")
	writeVectors(t, "ark:"+path)

	t.Run("sequential", func(t *testing.T) {
		r, err := arkio.NewSequentialReader("ark:"+path, arkio.FloatVector)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		require.NoError(t, r.Close(), "close is idempotent")

		_, _, err = r.Next()
		assert.ErrorIs(t, err, arkio.ErrClosed)
		assert.True(t, r.Done())
	})

	t.Run("random access", func(t *testing.T) {
		r, err := arkio.NewRandomAccessReader("ark:"+path, arkio.FloatVector)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		require.NoError(t, r.Close())

		_, err = r.Get("0")
		assert.ErrorIs(t, err, arkio.ErrClosed)
		_, err = r.Contains("0")
		assert.ErrorIs(t, err, arkio.ErrClosed)
	})

	t.Run("writer", func(t *testing.T) {
		w, err := arkio.NewWriter("ark:"+filepath.Join(dir, "w.ark"), arkio.FloatVector)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		require.NoError(t, w.Close())

		assert.ErrorIs(t, w.Write("k", []float32{1}), arkio.ErrClosed)
		assert.ErrorIs(t, w.Flush(), arkio.ErrClosed)
	})
}

func TestRandomAccessArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vec.ark")
	writeVectors(t, "ark:"+path)

	r, err := arkio.NewRandomAccessReader("ark:"+path, arkio.FloatVector)
	require.NoError(t, err)
	defer r.Close()

	ok, err := r.Contains("1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Contains("9")
	require.NoError(t, err)
	assert.False(t, ok)

	// Out-of-order lookups.
	v, err := r.Get("2")
	require.NoError(t, err)
	assert.Empty(t, v)

	v, err = r.Get("0")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, v)

	_, err = r.Get("9")
	var notFound *arkio.KeyNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "9", notFound.Key)

	v, ok = r.Lookup("1")
	assert.True(t, ok)
	assert.Equal(t, []float32{4}, v)

	_, ok = r.Lookup("9")
	assert.False(t, ok)
}

func TestArchiveScriptRoundtrip(t *testing.T) {
	dir := t.TempDir()
	arkPath := filepath.Join(dir, "vec.ark")
	scpPath := filepath.Join(dir, "vec.scp")
	writeVectors(t, "ark,scp:"+arkPath+","+scpPath)

	raw, err := os.ReadFile(scpPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "0 "+arkPath+":"), lines[0])

	t.Run("sequential through the script", func(t *testing.T) {
		r, err := arkio.NewSequentialReader("scp:"+scpPath, arkio.FloatVector)
		require.NoError(t, err)
		defer r.Close()

		key, v, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, "0", key)
		assert.Equal(t, []float32{1, 2, 3}, v)
	})

	t.Run("random access through the script", func(t *testing.T) {
		r, err := arkio.NewRandomAccessReader("scp:"+scpPath, arkio.FloatVector)
		require.NoError(t, err)
		defer r.Close()

		v, err := r.Get("1")
		require.NoError(t, err)
		assert.Equal(t, []float32{4}, v)
	})
}

func TestArchiveScriptRejectsUnindexableArchives(t *testing.T) {
	dir := t.TempDir()
	for _, loc := range []string{
		"ark,scp:" + filepath.Join(dir, "a.ark.gz") + "," + filepath.Join(dir, "a.scp"),
		"ark,scp:-," + filepath.Join(dir, "b.scp"),
	} {
		_, err := arkio.NewWriter(loc, arkio.FloatVector)
		var openErr *arkio.OpenError
		require.ErrorAs(t, err, &openErr, loc)
	}
}

func TestScriptWriter(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.vec")
	bPath := filepath.Join(dir, "b.vec")
	scpPath := filepath.Join(dir, "targets.scp")
	require.NoError(t, os.WriteFile(scpPath,
		[]byte("uttA "+aPath+"\nuttB "+bPath+"\n"), 0o644))

	w, err := arkio.NewWriter("scp:"+scpPath, arkio.FloatVector)
	require.NoError(t, err)
	require.NoError(t, w.Write("uttA", []float32{1, 2}))
	require.NoError(t, w.Write("uttB", []float32{3}))

	// A key the script does not route is an error unless permissive.
	var notFound *arkio.KeyNotFoundError
	assert.ErrorAs(t, w.Write("uttC", []float32{4}), &notFound)
	require.NoError(t, w.Close())

	// Each file holds one bare value, readable via a hand-built script.
	readScp := filepath.Join(dir, "read.scp")
	require.NoError(t, os.WriteFile(readScp,
		[]byte("uttA "+aPath+"\nuttB "+bPath+"\n"), 0o644))

	r, err := arkio.NewRandomAccessReader("scp:"+readScp, arkio.FloatVector)
	require.NoError(t, err)
	defer r.Close()

	v, err := r.Get("uttA")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, v)
}

func TestKeyMap(t *testing.T) {
	dir := t.TempDir()
	arkPath := filepath.Join(dir, "spk.ark")

	w, err := arkio.NewWriter("ark:"+arkPath, arkio.FloatVector)
	require.NoError(t, err)
	require.NoError(t, w.Write("spkA", []float32{1}))
	require.NoError(t, w.Write("spkB", []float32{2}))
	require.NoError(t, w.Close())

	mapPath := filepath.Join(dir, "utt2spk")
	require.NoError(t, os.WriteFile(mapPath,
		[]byte("utt1 spkA\nutt2 spkA\nutt3 spkB\n"), 0o644))

	r, err := arkio.NewRandomAccessReader("ark:"+arkPath, arkio.FloatVector,
		arkio.WithKeyMap(mapPath))
	require.NoError(t, err)
	defer r.Close()

	v, err := r.Get("utt2")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, v)

	v, err = r.Get("utt3")
	require.NoError(t, err)
	assert.Equal(t, []float32{2}, v)

	// Keys outside the map never reach the archive index.
	var notFound *arkio.KeyNotFoundError
	_, err = r.Get("spkA")
	assert.ErrorAs(t, err, &notFound)

	ok, err := r.Contains("spkA")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPermissiveScript(t *testing.T) {
	dir := t.TempDir()

	// One readable entry, reached through a generated script line.
	w, err := arkio.NewWriter("ark,scp:"+filepath.Join(dir, "d.ark")+","+filepath.Join(dir, "d.scp"), arkio.FloatVector)
	require.NoError(t, err)
	require.NoError(t, w.Write("ok", []float32{7}))
	require.NoError(t, w.Close())

	// A script whose first entry points nowhere.
	scpPath := filepath.Join(dir, "mixed.scp")
	okLine, err := os.ReadFile(filepath.Join(dir, "d.scp"))
	require.NoError(t, err)
	missing := "gone " + filepath.Join(dir, "missing.vec") + "\n"
	require.NoError(t, os.WriteFile(scpPath, append([]byte(missing), okLine...), 0o644))

	t.Run("strict fails at the bad entry", func(t *testing.T) {
		_, err := arkio.NewSequentialReader("scp:"+scpPath, arkio.FloatVector)
		var openErr *arkio.OpenError
		assert.ErrorAs(t, err, &openErr)
	})

	t.Run("permissive skips it", func(t *testing.T) {
		r, err := arkio.NewSequentialReader("scp,p:"+scpPath, arkio.FloatVector)
		require.NoError(t, err)
		defer r.Close()

		key, v, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, "ok", key)
		assert.Equal(t, []float32{7}, v)
		assert.True(t, r.Done())
	})

	t.Run("permissive random access reports a miss", func(t *testing.T) {
		r, err := arkio.NewRandomAccessReader("scp,p:"+scpPath, arkio.FloatVector)
		require.NoError(t, err)
		defer r.Close()

		_, err = r.Get("gone")
		var notFound *arkio.KeyNotFoundError
		assert.ErrorAs(t, err, &notFound)

		v, err := r.Get("ok")
		require.NoError(t, err)
		assert.Equal(t, []float32{7}, v)
	})
}

func TestTokenTables(t *testing.T) {
	dir := t.TempDir()

	t.Run("tokens", func(t *testing.T) {
		path := filepath.Join(dir, "t.ark")
		w, err := arkio.NewWriter("ark:"+path, arkio.Token)
		require.NoError(t, err)
		require.NoError(t, w.Write("utt1", "hello"))
		assert.Error(t, w.Write("utt2", "two words"))
		require.NoError(t, w.Close())

		r, err := arkio.NewSequentialReader("ark:"+path, arkio.Token)
		require.NoError(t, err)
		defer r.Close()
		_, v, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, "hello", v)
	})

	t.Run("token vector rejects a bare string", func(t *testing.T) {
		w, err := arkio.NewWriter("ark:"+filepath.Join(dir, "tv1.ark"), arkio.TokenVector)
		require.NoError(t, err)
		defer w.Close()

		var mismatch *arkio.TypeMismatchError
		assert.ErrorAs(t, w.Write("utt1", "oops"), &mismatch)
	})

	t.Run("char split decomposes a bare string", func(t *testing.T) {
		path := filepath.Join(dir, "tv2.ark")
		w, err := arkio.NewWriter("ark:"+path, arkio.TokenVector,
			arkio.WithTokenCharSplit(true))
		require.NoError(t, err)
		require.NoError(t, w.Write("utt1", "oops"))
		require.NoError(t, w.Close())

		r, err := arkio.NewSequentialReader("ark:"+path, arkio.TokenVector)
		require.NoError(t, err)
		defer r.Close()
		_, v, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, []string{"o", "o", "p", "s"}, v)
	})
}

func TestMatrixTables(t *testing.T) {
	dir := t.TempDir()

	t.Run("roundtrip", func(t *testing.T) {
		path := filepath.Join(dir, "m.ark")
		m := model.Matrix32{Rows: 2, Cols: 2, Data: []float32{1, 2, 3, 4}}

		w, err := arkio.NewWriter("ark:"+path, arkio.FloatMatrix)
		require.NoError(t, err)
		require.NoError(t, w.Write("utt1", m))
		require.NoError(t, w.Close())

		r, err := arkio.NewRandomAccessReader("ark:"+path, arkio.FloatMatrix)
		require.NoError(t, err)
		defer r.Close()

		v, err := r.Get("utt1")
		require.NoError(t, err)
		assert.Equal(t, m, v)
	})

	t.Run("degenerate shape comes back empty", func(t *testing.T) {
		path := filepath.Join(dir, "deg.ark")
		w, err := arkio.NewWriter("ark:"+path, arkio.FloatMatrix)
		require.NoError(t, err)
		require.NoError(t, w.Write("utt1", model.Matrix32{Rows: 0, Cols: 7}))
		require.NoError(t, w.Close())

		r, err := arkio.NewSequentialReader("ark:"+path, arkio.FloatMatrix)
		require.NoError(t, err)
		defer r.Close()

		_, v, err := r.Next()
		require.NoError(t, err)
		got := v.(model.Matrix32)
		assert.Zero(t, got.Rows)
		assert.Zero(t, got.Cols)
	})
}

func TestWaveTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wav.ark")

	samples := model.NewMatrix[model.BaseFloat](1, 8)
	for i := 0; i < 8; i++ {
		samples.Set(0, i, model.BaseFloat(i*100))
	}
	wave := model.Wave{
		Info:    model.WaveInfo{SampleRate: 8000},
		Samples: samples,
	}

	w, err := arkio.NewWriter("ark:"+path, arkio.WaveMatrix)
	require.NoError(t, err)
	require.NoError(t, w.Write("utt1", wave))
	require.NoError(t, w.Close())

	t.Run("samples only by default", func(t *testing.T) {
		r, err := arkio.NewSequentialReader("ark:"+path, arkio.WaveMatrix)
		require.NoError(t, err)
		defer r.Close()

		_, v, err := r.Next()
		require.NoError(t, err)
		got, ok := v.(model.BaseMatrix)
		require.True(t, ok, "want bare sample matrix, got %T", v)
		assert.Equal(t, samples, got)
	})

	t.Run("with wave info", func(t *testing.T) {
		r, err := arkio.NewSequentialReader("ark:"+path, arkio.WaveMatrix,
			arkio.WithWaveInfo(true))
		require.NoError(t, err)
		defer r.Close()

		_, v, err := r.Next()
		require.NoError(t, err)
		got, ok := v.(model.Wave)
		require.True(t, ok, "want model.Wave, got %T", v)
		assert.Equal(t, float32(8000), got.Info.SampleRate)
		assert.Equal(t, 1, got.Info.Channels)
		assert.InDelta(t, 0.001, got.Info.Duration, 1e-9)
	})
}

func TestCompressedArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vec.ark.gz")
	writeVectors(t, "ark:"+path)

	t.Run("sequential", func(t *testing.T) {
		r, err := arkio.NewSequentialReader("ark:"+path, arkio.FloatVector)
		require.NoError(t, err)
		defer r.Close()

		var keys []string
		for key := range r.All() {
			keys = append(keys, key)
		}
		assert.Equal(t, []string{"0", "1", "2"}, keys)
		assert.NoError(t, r.Err())
	})

	t.Run("random access decodes eagerly", func(t *testing.T) {
		r, err := arkio.NewRandomAccessReader("ark:"+path, arkio.FloatVector)
		require.NoError(t, err)
		defer r.Close()

		v, err := r.Get("0")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2, 3}, v)
	})
}

func TestWriterValidation(t *testing.T) {
	w, err := arkio.NewWriter("ark:"+filepath.Join(t.TempDir(), "v.ark"), arkio.FloatVector)
	require.NoError(t, err)
	defer w.Close()

	var mismatch *arkio.TypeMismatchError
	assert.ErrorAs(t, w.Write("", []float32{1}), &mismatch)
	assert.ErrorAs(t, w.Write("has space", []float32{1}), &mismatch)
	assert.ErrorAs(t, w.Write("ok", []float64{1}), &mismatch)
	assert.ErrorAs(t, w.Write("ok", "not a vector"), &mismatch)
}

func TestSequentialStopsAtCorruptEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ark")
	writeVectors(t, "ark:"+path)

	// Truncate into the middle of the last value.
	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, fi.Size()-3))

	r, err := arkio.NewSequentialReader("ark:"+path, arkio.FloatVector)
	require.NoError(t, err)
	defer r.Close()

	// The reader looks one entry ahead, so the fault surfaces one Next late.
	_, _, err = r.Next()
	require.NoError(t, err)
	_, _, err = r.Next()
	require.NoError(t, err)
	_, _, err = r.Next()
	require.Error(t, err)
	assert.Error(t, r.Err())
}
