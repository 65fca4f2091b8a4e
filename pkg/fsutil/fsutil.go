// Package fsutil holds the path helpers used around the archive core:
// collision-free output names, output directory creation and validation of
// names read back from an archive.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrUnsafeName is returned for archive names that would escape the output
// directory.
var ErrUnsafeName = errors.New("unsafe archive name")

// maxUniqueAttempts bounds the search for a free name.
const maxUniqueAttempts = 10000

// UniquePath returns base if nothing exists there, otherwise the first free
// name of the form "name (n).ext".
func UniquePath(base string) (string, error) {
	if _, err := os.Lstat(base); errors.Is(err, fs.ErrNotExist) {
		return base, nil
	} else if err != nil {
		return "", fmt.Errorf("stat %s: %w", base, err)
	}

	dir, file := filepath.Split(base)
	ext := filepath.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	if stem == "" {
		stem, ext = file, ""
	}

	for n := 1; n <= maxUniqueAttempts; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		_, err := os.Lstat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", base, maxUniqueAttempts)
}

// EnsureDirectories creates dir and its missing parents.
func EnsureDirectories(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// SafeName checks a slash separated archive name and returns it cleaned.
// Absolute names, names with ".." components and empty names are refused.
func SafeName(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	if path.IsAbs(name) || filepath.IsAbs(filepath.FromSlash(name)) || filepath.VolumeName(filepath.FromSlash(name)) != "" {
		return "", fmt.Errorf("%w: %q is absolute", ErrUnsafeName, name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q leaves the output directory", ErrUnsafeName, name)
		}
	}
	clean := path.Clean(name)
	if clean == "." {
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return clean, nil
}

// ArchiveName joins slash separated name parts into a clean archive name
// without a leading "./". It returns "" when nothing is left.
func ArchiveName(parts ...string) string {
	joined := path.Join(parts...)
	if joined == "." {
		return ""
	}
	return joined
}

// RootName returns the name a scanned argument contributes to archive
// names: its base name, or nothing for ".", ".." and filesystem roots.
func RootName(arg string) string {
	base := filepath.Base(filepath.Clean(arg))
	switch base {
	case ".", "..", string(filepath.Separator):
		return ""
	}
	return filepath.ToSlash(base)
}
