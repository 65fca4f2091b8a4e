package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"huffarc/pkg/fsutil"
	"huffarc/pkg/huffman"
	"huffarc/pkg/progress"
)

// Decompress extracts the entries of an archive selected by filter below
// outDir. Existing files are never overwritten: a clashing name gets a
// " (n)" suffix.
//
// A corrupted entry aborts the run unless opts.KeepGoing is set, in which
// case the remaining entries are still extracted and all entry failures are
// returned joined, together with the summary.
func Decompress(archivePath, outDir string, filter *Filter, opts Options) (*Summary, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	log := opts.Logger.With().Str("archive", archivePath).Logger()

	r, err := openArchive(archivePath, opts.BufferSize)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if opts.Progress {
		progress.Init(0)
		defer progress.Stop()
	}

	filter.Reset()
	summary := &Summary{Archive: archivePath}
	var failures []error
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !filter.Match(e.Name) {
			continue
		}

		name, err := fsutil.SafeName(e.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptedHeader, err)
		}
		dest := filepath.Join(outDir, filepath.FromSlash(name))

		n, err := extractEntry(r, e, dest)
		if err != nil {
			if opts.KeepGoing && isEntryCorruption(err) {
				log.Error().Err(err).Str("file", e.Name).Msg("entry skipped")
				failures = append(failures, err)
				continue
			}
			return nil, err
		}
		log.Info().Str("file", e.Name).Uint64("bytes", n).Msg("extracted")
		summary.Files++
		summary.OriginalBytes += n
	}

	if info, err := os.Stat(archivePath); err == nil {
		summary.ArchiveBytes = uint64(info.Size())
	}
	return summary, errors.Join(failures...)
}

func isEntryCorruption(err error) bool {
	return errors.Is(err, huffman.ErrCorruptedTree) || errors.Is(err, io.ErrUnexpectedEOF)
}

// extractEntry decodes e into a new file at dest or at a free variant of it.
func extractEntry(r *archiveReader, e *Entry, dest string) (uint64, error) {
	if err := fsutil.EnsureDirectories(filepath.Dir(dest)); err != nil {
		return 0, err
	}
	dest, err := fsutil.UniquePath(dest)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}
	defer f.Close()

	n, err := r.decode(e, &progress.Writer{W: f})
	if err != nil {
		return n, err
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", dest, err)
	}
	return n, nil
}
