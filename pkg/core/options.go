package core

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"huffarc/pkg/bitio"
	"huffarc/pkg/huffman"
)

// Defaults used by DefaultOptions.
const (
	DefaultWordSize           = 1
	DefaultSmallFileThreshold = 512
	DefaultArchiveName        = "archive.huff"
)

// SmallFilePolicy decides what happens to files below the small-file
// threshold, where the tree usually costs more than coding saves.
type SmallFilePolicy int

const (
	PolicyAsk SmallFilePolicy = iota
	PolicyAccept
	PolicyDecline
)

func (p SmallFilePolicy) String() string {
	switch p {
	case PolicyAsk:
		return "ask"
	case PolicyAccept:
		return "accept"
	case PolicyDecline:
		return "decline"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses "ask", "accept" or "decline".
func ParsePolicy(s string) (SmallFilePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ask", "":
		return PolicyAsk, nil
	case "accept", "yes":
		return PolicyAccept, nil
	case "decline", "no":
		return PolicyDecline, nil
	default:
		return PolicyAsk, fmt.Errorf("unknown small file policy %q", s)
	}
}

// Prompter is asked whether a small file should be archived. It returns
// true to include the file.
type Prompter func(name string, size int64) bool

// Options tunes the pipelines. The zero value is usable: WordSize and
// BufferSize fall back to their defaults, a zero SmallFileThreshold turns
// the small-file check off and a zero Logger discards everything.
type Options struct {
	WordSize           int
	BufferSize         int
	SmallFileThreshold int64
	Policy             SmallFilePolicy
	Prompt             Prompter       // consulted under PolicyAsk; nil includes
	Logger             zerolog.Logger // diagnostics sink
	KeepGoing          bool           // continue past corrupted entries
	Progress           bool           // drive the progress reporter
}

// DefaultOptions returns the options used by the command line.
func DefaultOptions() Options {
	return Options{
		WordSize:           DefaultWordSize,
		BufferSize:         bitio.DefaultBufferSize,
		SmallFileThreshold: DefaultSmallFileThreshold,
		Policy:             PolicyAsk,
		Logger:             zerolog.Nop(),
	}
}

func (o Options) normalize() (Options, error) {
	if o.WordSize == 0 {
		o.WordSize = DefaultWordSize
	}
	if err := huffman.ValidateWordSize(o.WordSize); err != nil {
		return o, err
	}
	if o.BufferSize <= 0 {
		o.BufferSize = bitio.DefaultBufferSize
	}
	if o.SmallFileThreshold < 0 {
		o.SmallFileThreshold = 0
	}
	return o, nil
}

// includeSmall applies the small-file policy to one file.
func (o Options) includeSmall(name string, size int64) bool {
	if size >= o.SmallFileThreshold {
		return true
	}
	switch o.Policy {
	case PolicyAccept:
		return true
	case PolicyDecline:
		return false
	default:
		if o.Prompt == nil {
			return true
		}
		return o.Prompt(name, size)
	}
}
