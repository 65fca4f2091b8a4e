// Package lib provides the huffarc archive operations to other programs.
// It re-exports the functionality of the core package.
package lib

import (
	"huffarc/pkg/core"
	"huffarc/pkg/progress"
)

// Options re-exported from core
type Options = core.Options

// Summary re-exported from core
type Summary = core.Summary

// Filter re-exported from core
type Filter = core.Filter

// EntryInfo re-exported from core
type EntryInfo = core.EntryInfo

// VerifyResult re-exported from core
type VerifyResult = core.VerifyResult

// SmallFilePolicy re-exported from core
type SmallFilePolicy = core.SmallFilePolicy

// Re-export small file policies
const (
	PolicyAsk     = core.PolicyAsk
	PolicyAccept  = core.PolicyAccept
	PolicyDecline = core.PolicyDecline
)

// DefaultOptions is a wrapper around core.DefaultOptions
func DefaultOptions() Options {
	return core.DefaultOptions()
}

// NewFilter is a wrapper around core.NewFilter
func NewFilter(files, dirs, globs []string) (*Filter, error) {
	return core.NewFilter(files, dirs, globs)
}

// InitProgress starts the progress reporter for a run of unknown size
func InitProgress() {
	progress.Init(0)
}

// StopProgress stops the progress reporter
func StopProgress() {
	progress.Stop()
}

// Compress is a wrapper around core.Compress
func Compress(paths []string, archivePath string, opts Options) (*Summary, error) {
	return core.Compress(paths, archivePath, opts)
}

// Decompress is a wrapper around core.Decompress
func Decompress(archivePath, outDir string, filter *Filter, opts Options) (*Summary, error) {
	return core.Decompress(archivePath, outDir, filter, opts)
}

// List is a wrapper around core.List
func List(archivePath string, filter *Filter, opts Options) ([]EntryInfo, error) {
	return core.List(archivePath, filter, opts)
}

// Verify is a wrapper around core.Verify
func Verify(archivePath string, filter *Filter, against string, opts Options) ([]VerifyResult, error) {
	return core.Verify(archivePath, filter, against, opts)
}
