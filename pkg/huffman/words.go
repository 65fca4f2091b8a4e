// Package huffman implements canonical-alphabet Huffman coding over fixed
// width words of one or two bytes: word tokenisation, tree construction,
// code derivation and the prefix-form tree serialisation stored in archives.
package huffman

import (
	"errors"
	"fmt"
	"io"

	"huffarc/pkg/bitio"
)

const (
	MinWordSize = 1
	MaxWordSize = 2
)

// ErrWordSize is returned for a word size outside [MinWordSize, MaxWordSize].
var ErrWordSize = errors.New("huffman: word size must be 1 or 2 bytes")

// ValidateWordSize checks that ws is a supported word size in bytes.
func ValidateWordSize(ws int) error {
	if ws < MinWordSize || ws > MaxWordSize {
		return fmt.Errorf("%w (got %d)", ErrWordSize, ws)
	}
	return nil
}

// Word is one alphabet symbol. Bits is the number of meaningful bits in
// Bytes, counted from the first byte, most significant bit first. A full
// word has Bits == 8*wordsize; a tail word has fewer.
type Word struct {
	Bytes [MaxWordSize]byte
	Bits  uint8
}

// Value interprets the word bytes as a little-endian unsigned integer. It
// is the word's index in frequency and code tables.
func (w Word) Value() int {
	return int(w.Bytes[0]) | int(w.Bytes[1])<<8
}

// WordFromValue is the inverse of Value for a full word of ws bytes.
func WordFromValue(v, ws int) Word {
	return Word{Bytes: [MaxWordSize]byte{byte(v), byte(v >> 8)}, Bits: uint8(ws * 8)}
}

// Len returns the number of bytes the word occupies.
func (w Word) Len() int { return (int(w.Bits) + 7) / 8 }

func (w Word) String() string {
	return fmt.Sprintf("%x/%d", w.Bytes[:w.Len()], w.Bits)
}

// WordReader splits the content of a read cursor into words. The last word
// of a stream whose length is not a multiple of the word size is a shorter
// tail word.
type WordReader struct {
	c    *bitio.Cursor
	size int
	done bool
}

// NewWordReader reads words of ws bytes from c, starting at its current
// position.
func NewWordReader(c *bitio.Cursor, ws int) (*WordReader, error) {
	if err := ValidateWordSize(ws); err != nil {
		return nil, err
	}
	return &WordReader{c: c, size: ws}, nil
}

// Next returns the next word. ok is false once the stream is exhausted.
func (r *WordReader) Next() (w Word, ok bool, err error) {
	if r.done {
		return Word{}, false, nil
	}

	n, err := r.c.ReadBits(w.Bytes[:r.size], uint64(r.size)*8)
	switch {
	case err == nil:
		w.Bits = uint8(n)
		return w, true, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		r.done = true
		w.Bits = uint8(n)
		return w, true, nil
	case errors.Is(err, io.EOF):
		r.done = true
		return Word{}, false, nil
	default:
		return Word{}, false, err
	}
}

// Reset rewinds the reader to the start of the file.
func (r *WordReader) Reset() error {
	r.done = false
	return r.c.SeekBits(0)
}

// Histogram counts full words by value. A tail word, if the stream has one,
// is recorded separately with an implicit frequency of one.
type Histogram struct {
	WordSize int
	Freq     []uint64
	Tail     *Word
	Bytes    uint64 // total input length
}

// NewHistogram returns an empty histogram for words of ws bytes.
func NewHistogram(ws int) *Histogram {
	return &Histogram{WordSize: ws, Freq: make([]uint64, 1<<(ws*8))}
}

// Add records one word.
func (h *Histogram) Add(w Word) {
	h.Bytes += uint64(w.Len())
	if int(w.Bits) != h.WordSize*8 {
		tail := w
		h.Tail = &tail
		return
	}
	h.Freq[w.Value()]++
}

// Distinct returns the number of distinct symbols, the tail word included.
func (h *Histogram) Distinct() int {
	n := 0
	for _, f := range h.Freq {
		if f != 0 {
			n++
		}
	}
	if h.Tail != nil {
		n++
	}
	return n
}

// Empty reports whether no word was recorded.
func (h *Histogram) Empty() bool { return h.Bytes == 0 }

// CountWords consumes r and returns its histogram. onWord, if not nil, is
// called with the byte length of every word read.
func CountWords(r *WordReader, onWord func(n int)) (*Histogram, error) {
	h := NewHistogram(r.size)
	for {
		w, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return h, nil
		}
		h.Add(w)
		if onWord != nil {
			onWord(w.Len())
		}
	}
}
