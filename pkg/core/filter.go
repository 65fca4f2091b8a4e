package core

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter selects archive entries by exact name, by directory prefix or by
// glob pattern. A nil or empty filter selects everything.
//
// Entries are visited in header order, so names under one directory are
// adjacent: once a directory matched, following names under it are accepted
// without comparing the other filters again.
type Filter struct {
	files   map[string]struct{}
	dirs    []string
	globs   []string
	lastDir string
}

// NewFilter normalises the filters and validates the glob patterns.
func NewFilter(files, dirs, globs []string) (*Filter, error) {
	f := &Filter{files: make(map[string]struct{}, len(files))}
	for _, name := range files {
		if n := normalizeName(name); n != "" {
			f.files[n] = struct{}{}
		}
	}
	for _, dir := range dirs {
		if d := normalizeName(dir); d != "" {
			f.dirs = append(f.dirs, d)
		}
	}
	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("invalid glob pattern %q", g)
		}
		f.globs = append(f.globs, g)
	}
	return f, nil
}

func normalizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimRight(name, "/")
	if name == "" {
		return ""
	}
	name = path.Clean(name)
	if name == "." {
		return ""
	}
	return strings.TrimPrefix(name, "./")
}

// Empty reports whether the filter selects everything.
func (f *Filter) Empty() bool {
	return f == nil || (len(f.files) == 0 && len(f.dirs) == 0 && len(f.globs) == 0)
}

// Match reports whether name is selected.
func (f *Filter) Match(name string) bool {
	if f.Empty() {
		return true
	}
	if f.lastDir != "" {
		if underDir(name, f.lastDir) {
			return true
		}
		f.lastDir = ""
	}

	for _, dir := range f.dirs {
		if underDir(name, dir) {
			f.lastDir = dir
			return true
		}
	}
	if _, ok := f.files[name]; ok {
		return true
	}
	for _, g := range f.globs {
		if ok, _ := doublestar.Match(g, name); ok {
			return true
		}
	}
	return false
}

// Reset forgets the last matched directory before a new pass.
func (f *Filter) Reset() {
	if f != nil {
		f.lastDir = ""
	}
}

// underDir reports whether name lies below dir, on a component boundary.
func underDir(name, dir string) bool {
	return len(name) > len(dir) && strings.HasPrefix(name, dir) && name[len(dir)] == '/'
}
