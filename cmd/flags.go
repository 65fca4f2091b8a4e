package cmd

import (
	"fmt"

	"github.com/spf13/pflag"

	"huffarc/pkg/core"
)

// filterFlags collects the entry selection shared by decompress, list
// and verify.
type filterFlags struct {
	files []string
	dirs  []string
	globs []string
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVar(&f.files, "file", nil, "select an entry by its archived name (repeatable)")
	fs.StringSliceVar(&f.dirs, "dir", nil, "select every entry below an archived directory (repeatable)")
	fs.StringSliceVar(&f.globs, "glob", nil, "select entries matching a pattern such as 'd/**/*.txt' (repeatable)")
}

func (f *filterFlags) build() (*core.Filter, error) {
	return core.NewFilter(f.files, f.dirs, f.globs)
}

// wordSizeFlag overrides the configured word size when set.
type wordSizeFlag struct {
	bits int
}

func (w *wordSizeFlag) register(fs *pflag.FlagSet) {
	fs.IntVarP(&w.bits, "word-size", "w", 0, "word size in bits: 8 or 16 (default from config)")
}

// apply converts the bit count into the byte count used by the core.
func (w *wordSizeFlag) apply(fs *pflag.FlagSet, opts *core.Options) error {
	if !fs.Changed("word-size") {
		return nil
	}
	switch w.bits {
	case 8, 1:
		opts.WordSize = 1
	case 16, 2:
		opts.WordSize = 2
	default:
		return fmt.Errorf("word size must be 8 or 16 bits, got %d", w.bits)
	}
	return nil
}
