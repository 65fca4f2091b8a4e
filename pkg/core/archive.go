package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"huffarc/pkg/bitio"
	"huffarc/pkg/huffman"
)

// Archive layout, all integers little-endian:
//
//	[uint32 count][uint8 word size]
//	count x [uint32 name length incl. NUL][name NUL]
//	        [uint64 compressed bits][uint32 tree bits][uint64 payload bit offset]
//	count x [tree bits][compressed - tree payload bits]
//
// Tree and payload blocks are bit-packed and follow each other without
// alignment.
const (
	prefixSize = 4 + 1
	fieldsSize = 8 + 4 + 8

	// MaxNameLen bounds a stored name, NUL included.
	MaxNameLen = 4096
)

// Entry is one header record.
type Entry struct {
	Name           string // slash separated, relative
	CompressedBits uint64 // tree bits plus payload bits
	TreeBits       uint32
	PayloadOffset  uint64 // absolute bit offset of the serialised tree

	source   string // file on disk, write side only
	size     int64  // size at scan time, write side only
	fieldsAt int64  // byte offset of the numeric fields, write side only
}

// PayloadBits returns the number of encoded word bits after the tree.
func (e *Entry) PayloadBits() uint64 { return e.CompressedBits - uint64(e.TreeBits) }

// Empty reports whether the entry stores an empty file.
func (e *Entry) Empty() bool { return e.TreeBits == 0 }

func (e *Entry) fields() []byte {
	b := make([]byte, 0, fieldsSize)
	b = binary.LittleEndian.AppendUint64(b, e.CompressedBits)
	b = binary.LittleEndian.AppendUint32(b, e.TreeBits)
	b = binary.LittleEndian.AppendUint64(b, e.PayloadOffset)
	return b
}

// archiveWriter writes the header table first, with zeroed placeholders,
// and fills them in once each file has been encoded.
type archiveWriter struct {
	c        *bitio.Cursor
	wordSize int
	entries  []*Entry
	closed   bool
}

func createArchive(path string, wordSize, bufferSize int) (*archiveWriter, error) {
	c, err := bitio.Open(path, bitio.ModeWrite, bufferSize)
	if err != nil {
		return nil, err
	}
	w := &archiveWriter{c: c, wordSize: wordSize}

	prefix := binary.LittleEndian.AppendUint32(nil, 0)
	prefix = append(prefix, byte(wordSize))
	if _, err := c.WriteBytes(prefix); err != nil {
		c.Close()
		return nil, err
	}
	return w, nil
}

// reserve appends a header record with zeroed numeric fields.
func (w *archiveWriter) reserve(name, source string, size int64) (*Entry, error) {
	if len(name)+1 > MaxNameLen {
		return nil, fmt.Errorf("%s: name longer than %d bytes", name, MaxNameLen-1)
	}

	rec := binary.LittleEndian.AppendUint32(nil, uint32(len(name)+1))
	rec = append(rec, name...)
	rec = append(rec, 0)
	e := &Entry{
		Name:     name,
		source:   source,
		size:     size,
		fieldsAt: int64(w.c.BitOffset()/8) + int64(len(rec)),
	}
	rec = append(rec, make([]byte, fieldsSize)...)

	if _, err := w.c.WriteBytes(rec); err != nil {
		return nil, err
	}
	w.entries = append(w.entries, e)
	return e, nil
}

// finalizeCount stores the number of reserved records at offset 0.
func (w *archiveWriter) finalizeCount() error {
	if uint64(len(w.entries)) > math.MaxUint32 {
		return fmt.Errorf("%d files do not fit in one archive", len(w.entries))
	}
	count := binary.LittleEndian.AppendUint32(nil, uint32(len(w.entries)))
	if err := w.c.Patch(0, count); err != nil {
		return fmt.Errorf("%w: file count: %w", ErrPosition, err)
	}
	return nil
}

// backpatch overwrites the numeric fields of e with their final values.
func (w *archiveWriter) backpatch(e *Entry) error {
	if err := w.c.Patch(e.fieldsAt, e.fields()); err != nil {
		return fmt.Errorf("%w: header of %s: %w", ErrPosition, e.Name, err)
	}
	return nil
}

// size returns the archive length in bytes so far.
func (w *archiveWriter) size() uint64 { return (w.c.BitOffset() + 7) / 8 }

// Close flushes the last partial byte and closes the archive. Calling it
// again is a no-op.
func (w *archiveWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.c.Close()
}

// archiveReader reads the header table through a frame cursor and decodes
// payloads through a second, independent payload cursor.
type archiveReader struct {
	frame    *bitio.Cursor
	payload  *bitio.Cursor
	wordSize int
	count    uint32
	next     uint32
}

func openArchive(path string, bufferSize int) (*archiveReader, error) {
	frame, err := bitio.Open(path, bitio.ModeRead, bufferSize)
	if err != nil {
		return nil, err
	}
	payload, err := bitio.Open(path, bitio.ModeRead, bufferSize)
	if err != nil {
		frame.Close()
		return nil, err
	}
	r := &archiveReader{frame: frame, payload: payload}

	var prefix [prefixSize]byte
	if err := r.readFrame(prefix[:], "archive prefix"); err != nil {
		r.Close()
		return nil, err
	}
	r.count = binary.LittleEndian.Uint32(prefix[:4])
	r.wordSize = int(prefix[4])
	if err := huffman.ValidateWordSize(r.wordSize); err != nil {
		r.Close()
		return nil, fmt.Errorf("%s: %w: %w", path, ErrCorruptedHeader, err)
	}
	return r, nil
}

func (r *archiveReader) readFrame(p []byte, what string) error {
	_, err := r.frame.ReadBytes(p)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("read %s from %s: %w", what, r.frame.Name(), io.ErrUnexpectedEOF)
	default:
		return err
	}
}

// Count returns the number of header records.
func (r *archiveReader) Count() uint32 { return r.count }

// Next reads the next header record. It returns io.EOF after the last one.
func (r *archiveReader) Next() (*Entry, error) {
	if r.next >= r.count {
		return nil, io.EOF
	}
	index := r.next

	var lenBuf [4]byte
	if err := r.readFrame(lenBuf[:], fmt.Sprintf("name length of entry %d", index)); err != nil {
		return nil, err
	}
	nameLen := binary.LittleEndian.Uint32(lenBuf[:])
	if nameLen < 2 || nameLen > MaxNameLen {
		return nil, fmt.Errorf("%w: entry %d: name length %d", ErrCorruptedHeader, index, nameLen)
	}

	name := make([]byte, nameLen)
	if err := r.readFrame(name, fmt.Sprintf("name of entry %d", index)); err != nil {
		return nil, err
	}
	if name[nameLen-1] != 0 {
		return nil, fmt.Errorf("%w: entry %d: name is not NUL terminated", ErrCorruptedHeader, index)
	}

	var fields [fieldsSize]byte
	if err := r.readFrame(fields[:], fmt.Sprintf("fields of entry %d", index)); err != nil {
		return nil, err
	}
	e := &Entry{
		Name:           string(name[:nameLen-1]),
		CompressedBits: binary.LittleEndian.Uint64(fields[0:8]),
		TreeBits:       binary.LittleEndian.Uint32(fields[8:12]),
		PayloadOffset:  binary.LittleEndian.Uint64(fields[12:20]),
	}
	if e.CompressedBits < uint64(e.TreeBits) {
		return nil, fmt.Errorf("%w: %s: %d compressed bits, %d tree bits", ErrCorruptedHeader, e.Name, e.CompressedBits, e.TreeBits)
	}
	if e.Empty() && e.CompressedBits != 0 {
		return nil, fmt.Errorf("%w: %s: payload without a tree", ErrCorruptedHeader, e.Name)
	}

	r.next++
	return e, nil
}

// Entries reads all remaining header records.
func (r *archiveReader) Entries() ([]*Entry, error) {
	var entries []*Entry
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
}

// decode writes the original content of e to w and returns its length.
func (r *archiveReader) decode(e *Entry, w io.Writer) (uint64, error) {
	if e.Empty() {
		return 0, nil
	}
	if err := r.payload.SeekBits(e.PayloadOffset); err != nil {
		return 0, err
	}
	root, _, err := huffman.ReadTree(r.payload, r.wordSize, uint64(e.TreeBits))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", e.Name, err)
	}
	n, err := decodePayload(r.payload, root, e.PayloadBits(), w)
	if err != nil {
		return n, fmt.Errorf("%s: %w", e.Name, err)
	}
	return n, nil
}

func (r *archiveReader) Close() error {
	return errors.Join(r.frame.Close(), r.payload.Close())
}
