package huffman

import (
	"errors"
	"fmt"
	"io"

	"huffarc/pkg/bitio"
)

// ErrCorruptedTree reports a serialised tree or payload that cannot have
// been produced by WriteTree and the matching encoder.
var ErrCorruptedTree = errors.New("corrupted huffman tree")

// maxTreeDepth bounds recursion while reading untrusted trees. A tree over
// 2^16 words plus a tail word cannot be deeper.
const maxTreeDepth = 1<<16 + 1

var (
	bitZero = []byte{0x00}
	bitOne  = []byte{0x80}
)

// WriteTree serialises the tree in prefix form and returns the number of
// bits written. Each node starts with a state bit, 0 for internal and 1 for
// a leaf. A leaf continues with one bit that is 1 when its word is shorter
// than a full word, the word's bit length as a byte in that case, and then
// the word's bits. Internal nodes are followed by their left and right
// subtrees.
func WriteTree(root *Node, c *bitio.Cursor, wordSize int) (uint64, error) {
	if err := ValidateWordSize(wordSize); err != nil {
		return 0, err
	}
	if root == nil {
		return 0, ErrEmptyHistogram
	}
	return writeNode(root, c, wordSize)
}

func writeNode(n *Node, c *bitio.Cursor, wordSize int) (uint64, error) {
	var total uint64
	put := func(src []byte, start, count uint64) error {
		written, err := c.WriteBits(src, start, count)
		total += written
		return err
	}

	if !n.IsLeaf() {
		if n.Left == nil || n.Right == nil {
			return total, ErrMalformedTree
		}
		if err := put(bitZero, 0, 1); err != nil {
			return total, err
		}
		for _, child := range []*Node{n.Left, n.Right} {
			written, err := writeNode(child, c, wordSize)
			total += written
			if err != nil {
				return total, err
			}
		}
		return total, nil
	}

	if err := put(bitOne, 0, 1); err != nil {
		return total, err
	}
	if int(n.Word.Bits) == wordSize*8 {
		if err := put(bitZero, 0, 1); err != nil {
			return total, err
		}
	} else {
		if err := put(bitOne, 0, 1); err != nil {
			return total, err
		}
		if err := put([]byte{n.Word.Bits}, 0, 8); err != nil {
			return total, err
		}
	}
	if err := put(n.Word.Bytes[:], 0, uint64(n.Word.Bits)); err != nil {
		return total, err
	}
	return total, nil
}

// ReadTree reads a tree written by WriteTree whose serialised size is
// exactly treeSize bits. Reading past treeSize, a bit length that no
// encoder writes, or a tree that ends before treeSize is ErrCorruptedTree;
// running out of input is io.ErrUnexpectedEOF. It returns the root and the
// number of bits consumed.
func ReadTree(c *bitio.Cursor, wordSize int, treeSize uint64) (*Node, uint64, error) {
	if err := ValidateWordSize(wordSize); err != nil {
		return nil, 0, err
	}
	r := &treeReader{c: c, wordSize: wordSize, limit: treeSize}
	root, err := r.node(0)
	if err != nil {
		return nil, r.used, err
	}
	if r.used != treeSize {
		return nil, r.used, fmt.Errorf("%w: tree ends at bit %d of declared %d", ErrCorruptedTree, r.used, treeSize)
	}
	return root, r.used, nil
}

type treeReader struct {
	c        *bitio.Cursor
	wordSize int
	limit    uint64
	used     uint64
}

func (r *treeReader) read(dst []byte, count uint64) error {
	if r.used+count > r.limit {
		return fmt.Errorf("%w: out of bounds at bit %d of declared %d", ErrCorruptedTree, r.used+count, r.limit)
	}
	n, err := r.c.ReadBits(dst, count)
	r.used += n
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("reading tree at bit %d: %w", r.used, io.ErrUnexpectedEOF)
	default:
		return err
	}
}

func (r *treeReader) node(depth int) (*Node, error) {
	if depth > maxTreeDepth {
		return nil, fmt.Errorf("%w: deeper than %d", ErrCorruptedTree, maxTreeDepth)
	}

	var state [1]byte
	if err := r.read(state[:], 1); err != nil {
		return nil, err
	}

	if state[0] == 0 {
		left, err := r.node(depth + 1)
		if err != nil {
			return nil, err
		}
		right, err := r.node(depth + 1)
		if err != nil {
			return nil, err
		}
		return &Node{Left: left, Right: right}, nil
	}

	var short [1]byte
	if err := r.read(short[:], 1); err != nil {
		return nil, err
	}

	leaf := &Node{}
	leaf.Word.Bits = uint8(r.wordSize * 8)
	if short[0] != 0 {
		var bits [1]byte
		if err := r.read(bits[:], 8); err != nil {
			return nil, err
		}
		if int(bits[0]) >= r.wordSize*8 || bits[0]%8 != 0 {
			return nil, fmt.Errorf("%w: tail word of %d bits with %d-byte words", ErrCorruptedTree, bits[0], r.wordSize)
		}
		leaf.Word.Bits = bits[0]
	}
	if leaf.Word.Bits > 0 {
		if err := r.read(leaf.Word.Bytes[:], uint64(leaf.Word.Bits)); err != nil {
			return nil, err
		}
	}
	return leaf, nil
}
