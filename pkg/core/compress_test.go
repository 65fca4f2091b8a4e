package core

import (
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huffarc/pkg/huffman"
)

func roundTrip(t *testing.T, data []byte, ws int) {
	t.Helper()
	src := filepath.Join(t.TempDir(), "input.bin")
	writeFile(t, src, data)

	opts := testOptions(t, ws)
	archive, summary := compressFiles(t, opts, src)
	require.Equal(t, 1, summary.Files)
	assert.Equal(t, uint64(len(data)), summary.OriginalBytes)

	out := t.TempDir()
	extracted, err := Decompress(archive, out, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, extracted.Files)

	got, err := os.ReadFile(filepath.Join(out, "input.bin"))
	require.NoError(t, err)
	require.Equal(t, len(data), len(got))
	assert.True(t, string(data) == string(got), "content differs")
}

func TestRoundTripLengths(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, ws := range []int{1, 2} {
		for _, n := range []int{0, 1, ws - 1, ws, ws + 1, 511, 4097} {
			t.Run(fmt.Sprintf("ws%d/len%d", ws, n), func(t *testing.T) {
				roundTrip(t, skewedBytes(rng, n), ws)
			})
		}
	}
}

func TestRoundTripLarge(t *testing.T) {
	if testing.Short() {
		t.Skip("large inputs")
	}
	rng := rand.New(rand.NewSource(2))
	random := make([]byte, 3<<20)
	rng.Read(random)

	for _, ws := range []int{1, 2} {
		t.Run(fmt.Sprintf("ws%d/skewed", ws), func(t *testing.T) {
			roundTrip(t, skewedBytes(rng, 4<<20+1), ws)
		})
		t.Run(fmt.Sprintf("ws%d/random", ws), func(t *testing.T) {
			roundTrip(t, random, ws)
		})
	}
}

func TestRoundTripAllByteValues(t *testing.T) {
	data := make([]byte, 0, 256*3+1)
	for range 3 {
		for v := range 256 {
			data = append(data, byte(v))
		}
	}
	data = append(data, 0xFF)
	roundTrip(t, data, 1)
	roundTrip(t, data, 2)
}

func TestScenarioDirectoryFilter(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	root := t.TempDir()
	d := filepath.Join(root, "d")
	a := make([]byte, 600)
	for i := range a {
		a[i] = 'x'
	}
	b := make([]byte, 2000)
	rng.Read(b)
	writeFile(t, filepath.Join(d, "a.txt"), a)
	writeFile(t, filepath.Join(d, "sub", "b.txt"), b)

	opts := testOptions(t, 1)
	archive, _ := compressFiles(t, opts, d)

	raw, err := os.ReadFile(archive)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0, 0, 0, 1}, raw[:5])

	infos, err := List(archive, nil, opts)
	require.NoError(t, err)
	require.Len(t, infos, 4)
	type row struct {
		name  string
		dir   bool
		bytes uint64
	}
	var rows []row
	for _, info := range infos {
		rows = append(rows, row{info.Name, info.IsDir, info.OriginalSize})
	}
	assert.Equal(t, []row{
		{"d", true, 2600},
		{"d/a.txt", false, 600},
		{"d/sub", true, 2000},
		{"d/sub/b.txt", false, 2000},
	}, rows)
	assert.Equal(t, infos[1].CompressedBits+infos[3].CompressedBits, infos[0].CompressedBits)
	assert.Equal(t, infos[3].CompressedBits, infos[2].CompressedBits)

	filter, err := NewFilter(nil, []string{"d/sub"}, nil)
	require.NoError(t, err)
	out := t.TempDir()
	summary, err := Decompress(archive, out, filter, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Files)

	got, err := os.ReadFile(filepath.Join(out, "d", "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, b, got)
	_, err = os.Stat(filepath.Join(out, "d", "a.txt"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSmallFilePolicy(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	small := skewedBytes(rng, 100)
	dir := t.TempDir()
	src := filepath.Join(dir, "small.txt")
	writeFile(t, src, small)

	t.Run("decline", func(t *testing.T) {
		opts := testOptions(t, 1)
		opts.Policy = PolicyDecline
		archive, summary := compressFiles(t, opts, src)
		assert.Zero(t, summary.Files)
		assert.Equal(t, []string{"small.txt"}, summary.Declined)

		_, entries := readHeaders(t, archive)
		assert.Empty(t, entries)
		info, err := os.Stat(archive)
		require.NoError(t, err)
		assert.Equal(t, int64(prefixSize), info.Size())
	})

	t.Run("accept", func(t *testing.T) {
		opts := testOptions(t, 1)
		opts.Policy = PolicyAccept
		archive, summary := compressFiles(t, opts, src)
		assert.Equal(t, 1, summary.Files)
		assert.Empty(t, summary.Declined)

		out := t.TempDir()
		_, err := Decompress(archive, out, nil, opts)
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(out, "small.txt"))
		require.NoError(t, err)
		assert.Equal(t, small, got)
	})

	t.Run("ask", func(t *testing.T) {
		var asked []string
		opts := testOptions(t, 1)
		opts.Policy = PolicyAsk
		opts.Prompt = func(name string, size int64) bool {
			asked = append(asked, fmt.Sprintf("%s:%d", name, size))
			return false
		}
		big := filepath.Join(dir, "big.txt")
		writeFile(t, big, skewedBytes(rng, 4096))

		_, summary := compressFiles(t, opts, src, big)
		assert.Equal(t, []string{"small.txt:100"}, asked)
		assert.Equal(t, 1, summary.Files)
		assert.Equal(t, []string{"small.txt"}, summary.Declined)
	})

	t.Run("ask without prompt", func(t *testing.T) {
		opts := testOptions(t, 1)
		opts.Policy = PolicyAsk
		_, summary := compressFiles(t, opts, src)
		assert.Equal(t, 1, summary.Files)
	})
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]SmallFilePolicy{
		"ask": PolicyAsk, "": PolicyAsk, "Accept": PolicyAccept, "yes": PolicyAccept,
		"decline": PolicyDecline, " no ": PolicyDecline,
	} {
		got, err := ParsePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		if in == want.String() {
			assert.Equal(t, in, got.String())
		}
	}
	_, err := ParsePolicy("maybe")
	assert.Error(t, err)
}

func TestCompressSkipsArchiveItself(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "self")
	writeFile(t, filepath.Join(dir, "data.txt"), []byte("some data, some data"))
	archive := filepath.Join(dir, "self.huff")

	summary, err := Compress([]string{dir}, archive, testOptions(t, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Files)

	_, entries := readHeaders(t, archive)
	require.Len(t, entries, 1)
	assert.Equal(t, "self/data.txt", entries[0].Name)
}

func TestCompressSkipsUnsupported(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "links")
	writeFile(t, filepath.Join(dir, "real.txt"), []byte("real content"))
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "dangling")))
	require.NoError(t, os.Symlink(dir, filepath.Join(dir, "loop")))

	archive, summary := compressFiles(t, testOptions(t, 1), dir)
	assert.Equal(t, 1, summary.Files)
	assert.Len(t, summary.Skipped, 2)

	_, entries := readHeaders(t, archive)
	require.Len(t, entries, 1)
	assert.Equal(t, "links/real.txt", entries[0].Name)
}

func TestCompressCurrentDirectoryNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "top.txt"), []byte("top level"))
	writeFile(t, filepath.Join(dir, "nested", "inner.txt"), []byte("inner"))
	t.Chdir(dir)

	archive := filepath.Join(t.TempDir(), "cwd.huff")
	_, err := Compress([]string{"."}, archive, testOptions(t, 1))
	require.NoError(t, err)

	_, entries := readHeaders(t, archive)
	require.Len(t, entries, 2)
	assert.Equal(t, "nested/inner.txt", entries[0].Name)
	assert.Equal(t, "top.txt", entries[1].Name)
}

func TestManyFilesAndUnicodeNames(t *testing.T) {
	root := filepath.Join(t.TempDir(), "many")
	want := map[string]string{}
	for i := range 100 {
		name := fmt.Sprintf("files/depth%d/file%d.txt", i%4, i)
		want[name] = fmt.Sprintf("This is file %d with some content.", i)
	}
	want["中文目录/文件.txt"] = "This is a Chinese filename."
	want["😀-emoji-dir/emoji-file-😎.txt"] = "This is an emoji file."
	want["Русская-папка/файл.txt"] = "This is a Russian filename."
	for name, content := range want {
		writeFile(t, filepath.Join(root, filepath.FromSlash(name)), []byte(content))
	}

	opts := testOptions(t, 2)
	archive, summary := compressFiles(t, opts, root)
	assert.Equal(t, len(want), summary.Files)

	out := t.TempDir()
	_, err := Decompress(archive, out, nil, opts)
	require.NoError(t, err)
	for name, content := range want {
		got, err := os.ReadFile(filepath.Join(out, "many", filepath.FromSlash(name)))
		require.NoError(t, err, name)
		assert.Equal(t, content, string(got), name)
	}
}

func TestCompressErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Compress(nil, filepath.Join(dir, "a.huff"), testOptions(t, 1))
	assert.ErrorIs(t, err, ErrNothingToCompress)

	_, err = Compress([]string{filepath.Join(dir, "non-existent-file.txt")}, filepath.Join(dir, "b.huff"), testOptions(t, 1))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = Compress([]string{dir}, filepath.Join(dir, "c.huff"), testOptions(t, 3))
	assert.ErrorIs(t, err, huffman.ErrWordSize)

	_, err = Compress([]string{dir}, filepath.Join(dir, "missing", "d.huff"), testOptions(t, 1))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
