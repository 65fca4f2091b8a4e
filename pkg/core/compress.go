package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"huffarc/pkg/bitio"
	"huffarc/pkg/fsutil"
	"huffarc/pkg/huffman"
	"huffarc/pkg/progress"
)

// progressBatch is the number of bytes encoded between progress updates.
const progressBatch = 64 * 1024

// Summary describes a finished compress, decompress or verify run.
type Summary struct {
	Archive       string
	Files         int
	OriginalBytes uint64
	ArchiveBytes  uint64
	Skipped       []error  // paths left out by the scan, wrapping the reason
	Declined      []string // small files refused by the policy
}

// Compress writes every regular file reachable from paths into a new
// archive at archivePath, replacing any file there.
//
// The header table is reserved during the scan, the file count is patched
// in once the scan is over, and each file's numeric header fields are
// patched in after its tree and payload have been written.
func Compress(paths []string, archivePath string, opts Options) (*Summary, error) {
	if len(paths) == 0 {
		return nil, ErrNothingToCompress
	}
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	log := opts.Logger.With().Str("archive", archivePath).Logger()

	w, err := createArchive(archivePath, opts.WordSize, opts.BufferSize)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	self, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", archivePath, err)
	}

	// Scan and reserve
	s := &scanner{w: w, opts: opts, log: log, self: self}
	for _, p := range paths {
		if err := s.scanArg(p); err != nil {
			return nil, err
		}
	}
	if err := w.finalizeCount(); err != nil {
		return nil, err
	}
	log.Debug().Int("files", len(w.entries)).Int("skipped", len(s.skipped)).Msg("header table reserved")

	var total uint64
	for _, e := range w.entries {
		total += uint64(e.size)
	}
	if opts.Progress {
		progress.Init(total)
		defer progress.Stop()
	}

	// Encode and backpatch
	summary := &Summary{Archive: archivePath, Skipped: s.skipped, Declined: s.declined}
	for _, e := range w.entries {
		n, err := w.compressEntry(e, opts)
		if err != nil {
			return nil, fmt.Errorf("compress %s: %w", e.source, err)
		}
		log.Info().
			Str("file", e.Name).
			Uint64("bytes", n).
			Uint64("bits", e.CompressedBits).
			Uint32("tree_bits", e.TreeBits).
			Msg("compressed")
		summary.Files++
		summary.OriginalBytes += n
	}

	summary.ArchiveBytes = w.size()
	if err := w.Close(); err != nil {
		return nil, err
	}
	return summary, nil
}

// scanner walks the input paths and reserves one header record per
// regular file.
type scanner struct {
	w        *archiveWriter
	opts     Options
	log      zerolog.Logger
	self     os.FileInfo
	skipped  []error
	declined []string
	parents  []os.FileInfo // directories being walked, for loop detection
}

func (s *scanner) scanArg(arg string) error {
	info, err := os.Stat(arg)
	if err != nil {
		return fmt.Errorf("stat %s: %w", arg, err)
	}
	return s.visit(arg, fsutil.RootName(arg), info)
}

func (s *scanner) visit(fsPath, name string, info os.FileInfo) error {
	switch {
	case info.Mode().IsRegular():
		if os.SameFile(info, s.self) {
			s.log.Debug().Str("file", fsPath).Msg("skipping the archive itself")
			return nil
		}
		if name == "" {
			name = info.Name()
		}
		if !s.opts.includeSmall(name, info.Size()) {
			s.log.Info().Str("file", name).Int64("size", info.Size()).Msg("small file declined")
			s.declined = append(s.declined, name)
			return nil
		}
		_, err := s.w.reserve(name, fsPath, info.Size())
		return err

	case info.IsDir():
		for _, p := range s.parents {
			if os.SameFile(p, info) {
				s.skip(fmt.Errorf("%s: directory loop", fsPath))
				return nil
			}
		}
		children, err := os.ReadDir(fsPath)
		if err != nil {
			return fmt.Errorf("read directory %s: %w", fsPath, err)
		}

		s.parents = append(s.parents, info)
		defer func() { s.parents = s.parents[:len(s.parents)-1] }()

		for _, child := range children {
			childPath := filepath.Join(fsPath, child.Name())
			childInfo, err := os.Stat(childPath)
			if errors.Is(err, fs.ErrNotExist) {
				s.skip(fmt.Errorf("%s: dangling link: %w", childPath, err))
				continue
			}
			if err != nil {
				return fmt.Errorf("stat %s: %w", childPath, err)
			}
			if err := s.visit(childPath, fsutil.ArchiveName(name, child.Name()), childInfo); err != nil {
				return err
			}
		}
		return nil

	default:
		s.skip(fmt.Errorf("%s: %w (%s)", fsPath, ErrUnsupportedFileType, info.Mode().Type()))
		return nil
	}
}

func (s *scanner) skip(err error) {
	s.log.Warn().Err(err).Msg("skipped")
	s.skipped = append(s.skipped, err)
}

// compressEntry encodes one file after the archive's current position and
// backpatches its header record. It returns the file's length.
func (w *archiveWriter) compressEntry(e *Entry, opts Options) (uint64, error) {
	src, err := bitio.Open(e.source, bitio.ModeRead, opts.BufferSize)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	words, err := huffman.NewWordReader(src, w.wordSize)
	if err != nil {
		return 0, err
	}

	// Pass 1: histogram
	hist, err := huffman.CountWords(words, nil)
	if err != nil {
		return 0, err
	}
	if hist.Empty() {
		return 0, nil
	}

	root, err := huffman.BuildTree(hist)
	if err != nil {
		return 0, err
	}
	codes, err := huffman.BuildCodes(root, w.wordSize)
	if err != nil {
		return 0, err
	}

	// Pass 2: tree and payload
	e.PayloadOffset = w.c.BitOffset()
	if err := words.Reset(); err != nil {
		return 0, err
	}
	treeBits, err := huffman.WriteTree(root, w.c, w.wordSize)
	if err != nil {
		return 0, err
	}
	payloadBits, n, err := encodeWords(words, codes, w.c)
	if err != nil {
		return n, err
	}
	if n != hist.Bytes {
		return n, fmt.Errorf("%w: read %d bytes, counted %d", ErrSourceChanged, n, hist.Bytes)
	}

	e.TreeBits = uint32(treeBits)
	e.CompressedBits = treeBits + payloadBits
	return n, w.backpatch(e)
}

// encodeWords writes the code of every word from r. It returns the payload
// bits and input bytes processed.
func encodeWords(r *huffman.WordReader, codes *huffman.CodeTable, c *bitio.Cursor) (bits, n uint64, err error) {
	var pending uint64
	defer func() { progress.AddBytes(pending) }()

	for {
		word, ok, err := r.Next()
		if err != nil {
			return bits, n, err
		}
		if !ok {
			return bits, n, nil
		}
		code, ok := codes.Lookup(word)
		if !ok {
			return bits, n, fmt.Errorf("%w: word %s has no code", ErrSourceChanged, word)
		}
		written, err := c.WriteBits(code.Bits, 0, uint64(code.Len))
		bits += written
		if err != nil {
			return bits, n, err
		}

		n += uint64(word.Len())
		pending += uint64(word.Len())
		if pending >= progressBatch {
			progress.AddBytes(pending)
			pending = 0
		}
	}
}
