package huffman

import (
	"errors"
	"fmt"
)

var (
	// ErrCodeCollision means two leaves mapped to the same code slot.
	ErrCodeCollision = errors.New("huffman: code slot assigned twice")
	// ErrMalformedTree means an internal node lacks one of its children.
	ErrMalformedTree = errors.New("huffman: node with a single child")
)

// Code is a bit pattern, most significant bit first, and its length.
type Code struct {
	Bits []byte
	Len  int
}

// CodeTable maps word values to codes. It has 2^(8*wordsize) slots plus a
// final slot reserved for the tail word.
type CodeTable struct {
	wordSize int
	codes    []Code
}

// TailIndex returns the slot reserved for the tail word.
func (t *CodeTable) TailIndex() int { return len(t.codes) - 1 }

// Size returns the number of slots.
func (t *CodeTable) Size() int { return len(t.codes) }

// index picks the slot for w: its value for a full word, the tail slot
// otherwise.
func (t *CodeTable) index(w Word) int {
	if int(w.Bits) == t.wordSize*8 {
		return w.Value()
	}
	return t.TailIndex()
}

// Lookup returns the code of w.
func (t *CodeTable) Lookup(w Word) (Code, bool) {
	c := t.codes[t.index(w)]
	return c, c.Len > 0
}

// BuildCodes walks the tree appending 0 for every left step and 1 for every
// right step. A tree that is a single leaf gets the one-bit code 0.
func BuildCodes(root *Node, wordSize int) (*CodeTable, error) {
	if err := ValidateWordSize(wordSize); err != nil {
		return nil, err
	}
	if root == nil {
		return nil, ErrEmptyHistogram
	}

	t := &CodeTable{wordSize: wordSize, codes: make([]Code, 1<<(wordSize*8)+1)}
	if root.IsLeaf() {
		if err := t.set(root.Word, Code{Bits: []byte{0}, Len: 1}); err != nil {
			return nil, err
		}
		return t, nil
	}

	var path []byte
	if err := t.walk(root, path, 0); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *CodeTable) walk(n *Node, path []byte, depth int) error {
	if n.IsLeaf() {
		code := Code{Bits: make([]byte, (depth+7)/8), Len: depth}
		copy(code.Bits, path)
		if r := depth % 8; r != 0 {
			code.Bits[len(code.Bits)-1] &= 0xFF << (8 - r)
		}
		return t.set(n.Word, code)
	}
	if n.Left == nil || n.Right == nil {
		return fmt.Errorf("%w at depth %d", ErrMalformedTree, depth)
	}

	if depth/8 >= len(path) {
		path = append(path, 0)
	}
	mask := byte(0x80) >> (depth % 8)

	path[depth/8] &^= mask
	if err := t.walk(n.Left, path, depth+1); err != nil {
		return err
	}
	path[depth/8] |= mask
	return t.walk(n.Right, path, depth+1)
}

func (t *CodeTable) set(w Word, c Code) error {
	if int(w.Bits) > t.wordSize*8 {
		return fmt.Errorf("%w: word %s wider than %d bytes", ErrMalformedTree, w, t.wordSize)
	}
	i := t.index(w)
	if t.codes[i].Len != 0 {
		return fmt.Errorf("%w: word %s", ErrCodeCollision, w)
	}
	t.codes[i] = c
	return nil
}
