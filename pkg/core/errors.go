package core

import "errors"

var (
	// ErrUnsupportedFileType marks a scanned path that is neither a regular
	// file nor a directory. It is collected in Summary.Skipped and never
	// aborts a scan.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrPosition wraps a seek or tell failure while backpatching the header.
	ErrPosition = errors.New("archive position failure")

	// ErrCorruptedHeader reports a header table that no compressor writes.
	ErrCorruptedHeader = errors.New("corrupted archive header")

	// ErrNothingToCompress is returned when Compress is called without paths.
	ErrNothingToCompress = errors.New("nothing to compress")

	// ErrSourceChanged means a file changed between the counting pass and
	// the encoding pass.
	ErrSourceChanged = errors.New("file changed during compression")

	// ErrMismatch reports decoded content that differs from a reference file.
	ErrMismatch = errors.New("content mismatch")
)
