package huffman

import (
	"container/heap"
	"errors"
)

// Node is a Huffman tree node. A leaf has no children and carries a word;
// an internal node has exactly two children and no word. Nodes are never
// shared between trees.
type Node struct {
	Word  Word
	Freq  uint64
	Left  *Node
	Right *Node
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return n.Left == nil && n.Right == nil }

// Shape counts the leaves and internal nodes of the tree rooted at n.
func (n *Node) Shape() (leaves, internal int) {
	if n == nil {
		return 0, 0
	}
	if n.IsLeaf() {
		return 1, 0
	}
	l1, i1 := n.Left.Shape()
	l2, i2 := n.Right.Shape()
	return l1 + l2, i1 + i2 + 1
}

// ErrEmptyHistogram is returned when a tree is requested for no symbols.
var ErrEmptyHistogram = errors.New("huffman: no symbols to build a tree from")

type heapItem struct {
	node *Node
	seq  uint64
}

// nodeHeap orders by frequency, then by insertion sequence, so extraction
// order is total and reproducible.
type nodeHeap []heapItem

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].node.Freq != h[j].node.Freq {
		return h[i].node.Freq < h[j].node.Freq
	}
	return h[i].seq < h[j].seq
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(heapItem)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Builder is a min-heap of nodes keyed by frequency.
type Builder struct {
	h   nodeHeap
	seq uint64
}

// NewBuilder returns a builder with room for capacity nodes.
func NewBuilder(capacity int) *Builder {
	return &Builder{h: make(nodeHeap, 0, capacity)}
}

// Insert adds a leaf or merged node.
func (b *Builder) Insert(n *Node) {
	heap.Push(&b.h, heapItem{node: n, seq: b.seq})
	b.seq++
}

// Len returns the number of nodes waiting in the heap.
func (b *Builder) Len() int { return b.h.Len() }

func (b *Builder) extract() *Node {
	return heap.Pop(&b.h).(heapItem).node
}

// ExtractTree merges the two lowest-frequency nodes until one remains and
// returns it. The node with strictly lower frequency becomes the left
// child; on equal frequency the node extracted first does. It returns nil
// for an empty builder.
func (b *Builder) ExtractTree() *Node {
	if b.h.Len() == 0 {
		return nil
	}
	for b.h.Len() > 1 {
		first := b.extract()
		second := b.extract()

		left, right := first, second
		if second.Freq < first.Freq {
			left, right = second, first
		}
		b.Insert(&Node{Freq: first.Freq + second.Freq, Left: left, Right: right})
	}
	return b.extract()
}

// BuildTree builds the tree for a histogram. Leaves are inserted in
// ascending word value, then the tail word.
func BuildTree(h *Histogram) (*Node, error) {
	distinct := h.Distinct()
	if distinct == 0 {
		return nil, ErrEmptyHistogram
	}

	b := NewBuilder(distinct + 1)
	for v, f := range h.Freq {
		if f == 0 {
			continue
		}
		b.Insert(&Node{Word: WordFromValue(v, h.WordSize), Freq: f})
	}
	if h.Tail != nil {
		b.Insert(&Node{Word: *h.Tail, Freq: 1})
	}
	return b.ExtractTree(), nil
}
