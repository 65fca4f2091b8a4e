package core

import (
	"errors"
	"fmt"
	"io"

	"huffarc/pkg/bitio"
	"huffarc/pkg/huffman"
)

const (
	decodeChunk = 4096      // payload bytes read per refill
	outputChunk = 32 * 1024 // decoded bytes buffered before writing
)

// decodePayload walks the tree for exactly bits payload bits, writing the
// word of every leaf reached and restarting at the root. A leaf root
// consumes one 0 bit per word. It returns the number of bytes written.
func decodePayload(c *bitio.Cursor, root *huffman.Node, bits uint64, w io.Writer) (uint64, error) {
	var (
		in      = make([]byte, decodeChunk)
		out     = make([]byte, 0, outputChunk+huffman.MaxWordSize)
		written uint64
		node    = root
		pos     uint64 // payload bits consumed
	)

	flush := func() error {
		if len(out) == 0 {
			return nil
		}
		n, err := w.Write(out)
		written += uint64(n)
		out = out[:0]
		return err
	}

	for pos < bits {
		want := min(bits-pos, uint64(len(in))*8)
		got, err := c.ReadBits(in, want)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return written, fmt.Errorf("payload ends at bit %d of %d: %w", pos+got, bits, io.ErrUnexpectedEOF)
			}
			return written, err
		}

		for i := uint64(0); i < got; i++ {
			bit := in[i>>3] >> (7 - i&7) & 1

			if root.IsLeaf() {
				if bit != 0 {
					return written, fmt.Errorf("%w: bit 1 at a single-leaf root, payload bit %d", huffman.ErrCorruptedTree, pos+i)
				}
				out = append(out, root.Word.Bytes[:root.Word.Len()]...)
			} else {
				if bit == 0 {
					node = node.Left
				} else {
					node = node.Right
				}
				if node == nil {
					return written, fmt.Errorf("%w: missing child at payload bit %d", huffman.ErrCorruptedTree, pos+i)
				}
				if node.IsLeaf() {
					out = append(out, node.Word.Bytes[:node.Word.Len()]...)
					node = root
				}
			}

			if len(out) >= outputChunk {
				if err := flush(); err != nil {
					return written, err
				}
			}
		}
		pos += got
	}

	if node != root {
		return written, fmt.Errorf("%w: payload ends inside a code", huffman.ErrCorruptedTree)
	}
	return written, flush()
}
