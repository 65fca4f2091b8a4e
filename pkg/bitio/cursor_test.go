package bitio

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bitAt(p []byte, i uint64) bool {
	return p[i/8]>>(7-i%8)&1 == 1
}

// packBits turns a bit slice into MSB-first bytes.
func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}

func TestWriteReadSweep(t *testing.T) {
	for _, bufSize := range []int{1, 2, 3, 5, 8, 64, 4096} {
		for seed := int64(1); seed <= 6; seed++ {
			rng := rand.New(rand.NewSource(seed*int64(bufSize) + seed))
			path := filepath.Join(t.TempDir(), "sweep.bin")

			w, err := Open(path, ModeWrite, bufSize)
			require.NoError(t, err)

			var want []bool
			for range 200 {
				src := make([]byte, 1+rng.Intn(6))
				rng.Read(src)
				start := uint64(rng.Intn(len(src) * 8))
				count := uint64(rng.Intn(len(src)*8 - int(start) + 1))

				n, err := w.WriteBits(src, start, count)
				require.NoError(t, err)
				require.Equal(t, count, n)
				for i := start; i < start+count; i++ {
					want = append(want, bitAt(src, i))
				}
				require.Equal(t, uint64(len(want)), w.BitOffset())

				if rng.Intn(17) == 0 {
					require.NoError(t, w.Flush())
					require.Equal(t, uint64(len(want)), w.BitOffset())
				}
			}
			require.NoError(t, w.Close())

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			require.Equal(t, packBits(want), raw, "bufSize=%d seed=%d", bufSize, seed)

			r, err := Open(path, ModeRead, bufSize)
			require.NoError(t, err)
			var got []bool
			for uint64(len(got)) < uint64(len(want)) {
				count := uint64(1 + rng.Intn(40))
				if rest := uint64(len(want) - len(got)); count > rest {
					count = rest
				}
				dst := make([]byte, (count+7)/8)
				n, err := r.ReadBits(dst, count)
				require.NoError(t, err)
				require.Equal(t, count, n)
				for i := uint64(0); i < n; i++ {
					got = append(got, bitAt(dst, i))
				}
				require.Equal(t, uint64(len(got)), r.BitOffset())
			}
			require.NoError(t, r.Close())
			assert.Equal(t, want, got)
		}
	}
}

func TestReadBitsEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eof.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xAB, 0xCD, 0xEF}, 0644))

	r, err := Open(path, ModeRead, 2)
	require.NoError(t, err)
	defer r.Close()

	dst := make([]byte, 4)
	n, err := r.ReadBits(dst, 30)
	assert.Equal(t, uint64(24), n)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, []byte{0xAB, 0xCD, 0xEF, 0x00}, dst)

	n, err = r.ReadBits(dst, 1)
	assert.Equal(t, uint64(0), n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadBitsClearsDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clear.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00}, 0644))

	r, err := Open(path, ModeRead, 0)
	require.NoError(t, err)
	defer r.Close()

	dst := []byte{0xFF, 0xFF}
	n, err := r.ReadBits(dst, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
	assert.Equal(t, []byte{0x00, 0xFF}, dst)
}

func TestFlushMidByte(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mid.bin")
	w, err := Open(path, ModeWrite, 4)
	require.NoError(t, err)

	_, err = w.WriteBits([]byte{0xA0}, 0, 3) // 101
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	require.NoError(t, w.Flush())
	_, err = w.WriteBits([]byte{0x58}, 0, 5) // 01011
	require.NoError(t, err)
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB}, raw)
}

func TestPatchKeepsSequentialPosition(t *testing.T) {
	for _, bufSize := range []int{1, 3, 4096} {
		path := filepath.Join(t.TempDir(), "patch.bin")
		w, err := Open(path, ModeWrite, bufSize)
		require.NoError(t, err)

		_, err = w.WriteBytes([]byte{0, 0, 0, 0})
		require.NoError(t, err)
		_, err = w.WriteBits([]byte{0xE0}, 0, 3) // 111
		require.NoError(t, err)

		require.NoError(t, w.Patch(1, []byte{0x12, 0x34}))
		assert.Equal(t, uint64(35), w.BitOffset())

		_, err = w.WriteBits([]byte{0x00, 0x3F}, 8, 8) // 00111111
		require.NoError(t, err)
		require.NoError(t, w.Patch(0, []byte{0x99}))
		require.NoError(t, w.Close())

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x99, 0x12, 0x34, 0x00, 0xE7, 0xE0}, raw, "bufSize=%d", bufSize)
	}
}

func TestSeekBits(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := make([]byte, 50)
	rng.Read(data)
	path := filepath.Join(t.TempDir(), "seek.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))

	for _, bufSize := range []int{1, 7, 4096} {
		r, err := Open(path, ModeRead, bufSize)
		require.NoError(t, err)

		for off := uint64(0); off < uint64(len(data))*8; off += 3 {
			require.NoError(t, r.SeekBits(off))
			require.Equal(t, off, r.BitOffset())

			count := min(uint64(19), uint64(len(data))*8-off)
			dst := make([]byte, 3)
			n, err := r.ReadBits(dst, count)
			require.NoError(t, err)
			require.Equal(t, count, n)
			for i := uint64(0); i < count; i++ {
				require.Equal(t, bitAt(data, off+i), bitAt(dst, i), "off=%d i=%d", off, i)
			}
		}

		require.NoError(t, r.SeekBits(uint64(len(data))*8))
		_, err = r.ReadBits(make([]byte, 1), 1)
		assert.ErrorIs(t, err, io.EOF)
		require.NoError(t, r.Close())
	}
}

func TestWrongMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mode.bin")
	w, err := Open(path, ModeWrite, 0)
	require.NoError(t, err)
	_, err = w.ReadBits(make([]byte, 1), 1)
	assert.ErrorIs(t, err, ErrWrongMode)
	assert.ErrorIs(t, w.SeekBits(0), ErrWrongMode)
	require.NoError(t, w.Close())

	r, err := Open(path, ModeRead, 0)
	require.NoError(t, err)
	_, err = r.WriteBits([]byte{1}, 0, 1)
	assert.ErrorIs(t, err, ErrWrongMode)
	assert.ErrorIs(t, r.Patch(0, []byte{1}), ErrWrongMode)
	require.NoError(t, r.Close())

	_, err = Open(filepath.Join(t.TempDir(), "missing", "x"), ModeRead, 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteImplementsWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "writer.bin")
	w, err := Open(path, ModeWrite, 2)
	require.NoError(t, err)

	var dst io.Writer = w
	n, err := io.WriteString(dst, "hello, bits")
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello, bits", string(raw))
}
