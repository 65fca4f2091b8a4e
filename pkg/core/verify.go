package core

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"huffarc/pkg/fsutil"
)

// Digest is the BLAKE3-256 digest of an entry's original content.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// VerifyResult is the outcome of checking one entry.
type VerifyResult struct {
	Name     string
	Size     uint64
	Digest   Digest
	Compared bool  // a reference file was hashed
	Match    bool  // decoded content equals the reference file
	Err      error // decode or reference failure
}

// Verify decodes every entry selected by filter into a BLAKE3 hasher.
// When against is not empty, each entry is also compared with the file of
// the same name below against. The returned error joins every failed or
// mismatching entry; the results are complete either way.
func Verify(archivePath string, filter *Filter, against string, opts Options) ([]VerifyResult, error) {
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

	filter.Reset()
	var (
		results  []VerifyResult
		failures []error
	)
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return results, err
		}
		if !filter.Match(e.Name) {
			continue
		}

		res := VerifyResult{Name: e.Name}
		h := blake3.New()
		res.Size, res.Err = r.decode(e, h)
		copy(res.Digest[:], h.Sum(nil))

		if res.Err == nil && against != "" {
			res.Compared = true
			var ref Digest
			ref, res.Err = hashReference(against, e.Name)
			res.Match = res.Err == nil && ref == res.Digest
			if res.Err == nil && !res.Match {
				res.Err = fmt.Errorf("%s: %w", e.Name, ErrMismatch)
			}
		}

		if res.Err != nil {
			log.Error().Err(res.Err).Str("file", e.Name).Msg("verify failed")
			failures = append(failures, res.Err)
		} else {
			log.Debug().Str("file", e.Name).Str("blake3", res.Digest.String()).Msg("verified")
		}
		results = append(results, res)
	}
	return results, errors.Join(failures...)
}

func hashReference(dir, name string) (Digest, error) {
	var d Digest
	clean, err := fsutil.SafeName(name)
	if err != nil {
		return d, fmt.Errorf("%w: %w", ErrCorruptedHeader, err)
	}
	path := filepath.Join(dir, filepath.FromSlash(clean))
	f, err := os.Open(path)
	if err != nil {
		return d, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return d, fmt.Errorf("read %s: %w", path, err)
	}
	copy(d[:], h.Sum(nil))
	return d, nil
}
