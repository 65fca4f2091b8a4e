package core

import (
	"errors"
	"io"
	"path"
	"strings"
)

// EntryInfo describes one listed name. Directories are not stored in the
// archive; they are derived from the names of the files below them.
type EntryInfo struct {
	Name           string
	IsDir          bool
	OriginalSize   uint64 // for a directory, the total of the files below it
	CompressedBits uint64 // for a directory, the total of the files below it
}

// List returns the entries selected by filter in header order, each file
// preceded by the directories leading to it that were not listed yet.
//
// The header carries no original size, so every selected payload is decoded
// once to measure it.
func List(archivePath string, filter *Filter, opts Options) ([]EntryInfo, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	r, err := openArchive(archivePath, opts.BufferSize)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	filter.Reset()
	var (
		infos []EntryInfo
		dirs  = make(map[string]int) // directory name -> index in infos
	)
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return infos, nil
		}
		if err != nil {
			return nil, err
		}
		if !filter.Match(e.Name) {
			continue
		}

		var counter byteCounter
		n, err := r.decode(e, &counter)
		if err != nil {
			return nil, err
		}

		parents := parentDirs(e.Name)
		for _, dir := range parents {
			if _, ok := dirs[dir]; !ok {
				dirs[dir] = len(infos)
				infos = append(infos, EntryInfo{Name: dir, IsDir: true})
			}
		}
		for _, dir := range parents {
			infos[dirs[dir]].OriginalSize += n
			infos[dirs[dir]].CompressedBits += e.CompressedBits
		}
		infos = append(infos, EntryInfo{Name: e.Name, OriginalSize: n, CompressedBits: e.CompressedBits})
	}
}

// parentDirs returns the directories of a slash separated name, outermost
// first: "d/sub/b.txt" gives "d" and "d/sub".
func parentDirs(name string) []string {
	dir := path.Dir(name)
	if dir == "." || dir == "/" {
		return nil
	}
	parts := strings.Split(dir, "/")
	out := make([]string, 0, len(parts))
	for i := range parts {
		out = append(out, strings.Join(parts[:i+1], "/"))
	}
	return out
}

type byteCounter uint64

func (c *byteCounter) Write(p []byte) (int, error) {
	*c += byteCounter(len(p))
	return len(p), nil
}
