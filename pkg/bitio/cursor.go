// Package bitio provides a buffered, bit-addressable cursor over a file.
//
// Bits are packed most-significant-bit first: bit 0 of a byte is its 0x80
// bit. A cursor is opened either for reading or for writing and keeps that
// direction for its whole lifetime.
package bitio

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultBufferSize is the buffer size used when Open is given zero.
const DefaultBufferSize = 4096

// Mode selects the direction of a Cursor.
type Mode int

const (
	ModeRead  Mode = iota // read an existing file
	ModeWrite             // create or truncate a file
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ErrWrongMode is returned when a read operation is used on a write cursor
// or the reverse.
var ErrWrongMode = errors.New("bitio: operation not valid for cursor mode")

// Cursor is a buffered bit-level reader or writer over an *os.File.
//
// Invariants between calls: bitPos is in [0,7] and bytePos is in
// [0, len(buf)]. base is the file offset of buf[0]; after Flush or SeekBits
// the underlying file position equals base.
type Cursor struct {
	f    *os.File
	mode Mode
	buf  []byte

	base    int64 // file offset of buf[0]
	bytePos int
	bitPos  uint8
	valid   int // read mode: number of meaningful bytes in buf
}

// Open opens path for reading or writing with the given buffer size.
func Open(path string, mode Mode, bufferSize int) (*Cursor, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	var (
		f   *os.File
		err error
	)
	switch mode {
	case ModeRead:
		f, err = os.Open(path)
	case ModeWrite:
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	default:
		return nil, fmt.Errorf("open %s: %w", path, ErrWrongMode)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return &Cursor{f: f, mode: mode, buf: make([]byte, bufferSize)}, nil
}

// Name returns the name of the underlying file.
func (c *Cursor) Name() string { return c.f.Name() }

// Mode reports the direction the cursor was opened with.
func (c *Cursor) Mode() Mode { return c.mode }

// BitOffset returns the absolute bit position of the next bit to be read or
// written.
func (c *Cursor) BitOffset() uint64 {
	return uint64(c.base+int64(c.bytePos))*8 + uint64(c.bitPos)
}

// ReadBits reads count bits into dst, most significant bit first, starting at
// bit 0 of dst. Bytes of dst touched by the read are cleared first. It
// returns the number of bits read; fewer than count are returned only at end
// of file, together with io.EOF (nothing read) or io.ErrUnexpectedEOF.
func (c *Cursor) ReadBits(dst []byte, count uint64) (uint64, error) {
	if c.mode != ModeRead {
		return 0, ErrWrongMode
	}
	if need := (count + 7) / 8; uint64(len(dst)) < need {
		return 0, fmt.Errorf("bitio: destination holds %d bytes, need %d", len(dst), need)
	}
	clear(dst[:(count+7)/8])

	var done uint64
	for done < count {
		if c.bytePos >= c.valid {
			if err := c.fill(); err != nil {
				return done, err
			}
			if c.valid == 0 {
				if done == 0 {
					return 0, io.EOF
				}
				return done, io.ErrUnexpectedEOF
			}
		}

		dOff := uint8(done & 7)
		take := min(8-c.bitPos, 8-dOff)
		if rest := count - done; rest < uint64(take) {
			take = uint8(rest)
		}

		bits := (c.buf[c.bytePos] << c.bitPos) >> (8 - take)
		dst[done>>3] |= bits << (8 - dOff - take)

		done += uint64(take)
		c.bitPos += take
		if c.bitPos == 8 {
			c.bitPos = 0
			c.bytePos++
		}
	}
	return done, nil
}

// ReadBytes reads len(dst) whole bytes' worth of bits. It returns the number
// of bits read, with the same EOF convention as ReadBits.
func (c *Cursor) ReadBytes(dst []byte) (uint64, error) {
	return c.ReadBits(dst, uint64(len(dst))*8)
}

// fill loads the next buffer from the file. At end of file valid is 0.
func (c *Cursor) fill() error {
	c.base += int64(c.valid)
	c.bytePos = 0
	c.valid = 0

	n, err := io.ReadFull(c.f, c.buf)
	c.valid = n
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("read %s: %w", c.f.Name(), err)
	}
	return nil
}

// SeekBits moves a read cursor to an absolute bit offset and loads a fresh
// buffer from there.
func (c *Cursor) SeekBits(offset uint64) error {
	if c.mode != ModeRead {
		return ErrWrongMode
	}
	byteOff := int64(offset / 8)
	if _, err := c.f.Seek(byteOff, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s to bit %d: %w", c.f.Name(), offset, err)
	}
	c.base = byteOff
	c.valid = 0
	c.bytePos = 0
	c.bitPos = 0
	if err := c.fill(); err != nil {
		return err
	}
	c.bitPos = uint8(offset % 8)
	return nil
}

// WriteBits writes count bits of src starting at bit startBit of src. The
// buffer is flushed to the file whenever it fills up. It returns the number
// of bits written.
func (c *Cursor) WriteBits(src []byte, startBit, count uint64) (uint64, error) {
	if c.mode != ModeWrite {
		return 0, ErrWrongMode
	}
	if end := startBit + count; uint64(len(src))*8 < end {
		return 0, fmt.Errorf("bitio: source holds %d bits, need %d", len(src)*8, end)
	}

	var done uint64
	for done < count {
		if c.bytePos >= len(c.buf) {
			if err := c.writeBuffer(); err != nil {
				return done, err
			}
		}
		if c.bitPos == 0 {
			c.buf[c.bytePos] = 0
		}

		pos := startBit + done
		sOff := uint8(pos & 7)
		take := min(8-c.bitPos, 8-sOff)
		if rest := count - done; rest < uint64(take) {
			take = uint8(rest)
		}

		bits := (src[pos>>3] << sOff) >> (8 - take)
		c.buf[c.bytePos] |= bits << (8 - c.bitPos - take)

		done += uint64(take)
		c.bitPos += take
		if c.bitPos == 8 {
			c.bitPos = 0
			c.bytePos++
		}
	}
	return done, nil
}

// WriteBytes writes every bit of src. It returns the number of bits written.
func (c *Cursor) WriteBytes(src []byte) (uint64, error) {
	return c.WriteBits(src, 0, uint64(len(src))*8)
}

// Write implements io.Writer on a write cursor.
func (c *Cursor) Write(p []byte) (int, error) {
	n, err := c.WriteBytes(p)
	return int(n / 8), err
}

// writeBuffer writes a completely filled buffer.
func (c *Cursor) writeBuffer() error {
	if _, err := c.f.Write(c.buf[:c.bytePos]); err != nil {
		return fmt.Errorf("write %s: %w", c.f.Name(), err)
	}
	c.base += int64(c.bytePos)
	c.bytePos = 0
	return nil
}

// Flush persists everything buffered so far, including a partially filled
// last byte. Afterwards the file position equals the offset of the byte
// currently being filled, so the caller may seek the file and come back.
// A partial byte stays buffered and is rewritten as more bits arrive.
func (c *Cursor) Flush() error {
	if c.mode != ModeWrite {
		return nil
	}
	n := c.bytePos
	if c.bitPos > 0 {
		n++
	}
	if n == 0 {
		return nil
	}
	if _, err := c.f.Write(c.buf[:n]); err != nil {
		return fmt.Errorf("write %s: %w", c.f.Name(), err)
	}
	c.base += int64(c.bytePos)
	if c.bitPos > 0 {
		if _, err := c.f.Seek(-1, io.SeekCurrent); err != nil {
			return fmt.Errorf("seek %s: %w", c.f.Name(), err)
		}
		c.buf[0] = c.buf[c.bytePos]
	}
	c.bytePos = 0
	return nil
}

// Patch overwrites bytes at an absolute byte offset that was written
// earlier. The buffer is flushed first; the file is then sought to offset,
// written and sought back, leaving the sequential position untouched.
func (c *Cursor) Patch(offset int64, p []byte) error {
	if c.mode != ModeWrite {
		return ErrWrongMode
	}
	if err := c.Flush(); err != nil {
		return err
	}

	orig, err := c.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("tell %s: %w", c.f.Name(), err)
	}
	if orig != c.base {
		return fmt.Errorf("tell %s: file at %d, cursor at %d", c.f.Name(), orig, c.base)
	}
	if _, err := c.f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s to %d: %w", c.f.Name(), offset, err)
	}
	if _, err := c.f.Write(p); err != nil {
		return fmt.Errorf("patch %s at %d: %w", c.f.Name(), offset, err)
	}
	if _, err := c.f.Seek(orig, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s back to %d: %w", c.f.Name(), orig, err)
	}
	return nil
}

// Close flushes a write cursor and closes the file.
func (c *Cursor) Close() error {
	var flushErr error
	if c.mode == ModeWrite {
		flushErr = c.Flush()
	}
	if err := c.f.Close(); err != nil && flushErr == nil {
		return fmt.Errorf("close %s: %w", c.f.Name(), err)
	}
	return flushErr
}
