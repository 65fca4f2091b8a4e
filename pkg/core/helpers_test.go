package core

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testOptions(t *testing.T, ws int) Options {
	opts := DefaultOptions()
	opts.WordSize = ws
	opts.Policy = PolicyAccept
	opts.Logger = zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.WarnLevel)
	return opts
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

// skewedBytes returns text-like content: a few symbols dominate.
func skewedBytes(rng *rand.Rand, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		v := rng.ExpFloat64() * 12
		if v > 255 {
			v = 255
		}
		out[i] = 'a' + byte(v)
	}
	return out
}

func compressFiles(t *testing.T, opts Options, paths ...string) (string, *Summary) {
	t.Helper()
	archive := filepath.Join(t.TempDir(), "out.huff")
	summary, err := Compress(paths, archive, opts)
	require.NoError(t, err)
	return archive, summary
}

func readHeaders(t *testing.T, archive string) (int, []*Entry) {
	t.Helper()
	r, err := openArchive(archive, 0)
	require.NoError(t, err)
	defer r.Close()

	entries, err := r.Entries()
	require.NoError(t, err)
	require.Len(t, entries, int(r.Count()))
	return r.wordSize, entries
}

// setBit sets or clears one bit of a file, counted MSB first.
func setBit(t *testing.T, path string, bit uint64, one bool) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	mask := byte(0x80) >> (bit % 8)
	if one {
		raw[bit/8] |= mask
	} else {
		raw[bit/8] &^= mask
	}
	require.NoError(t, os.WriteFile(path, raw, 0644))
}

func flipBit(t *testing.T, path string, bit uint64) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[bit/8] ^= byte(0x80) >> (bit % 8)
	require.NoError(t, os.WriteFile(path, raw, 0644))
}
