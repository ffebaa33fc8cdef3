package storage

import (
	"math/bits"
)

// Position is the inorder traversal index of a node in a binary tree. Leaves
// sit at even positions; a node of level l has exactly l trailing one bits.
//
// ref Libra Position module
type Position uint64

// NewPosition returns the position of the index-th node of level.
func NewPosition(level, index int) Position {
	return Position(uint64(index)<<(level+1) | (1<<level - 1))
}

// LeafPosition returns the position of the index-th leaf.
func LeafPosition(index int) Position {
	return NewPosition(0, index)
}

// Level returns the level of the node, 0 for leaves.
func (p Position) Level() int {
	return bits.TrailingZeros64(^uint64(p))
}

// IndexOnLevel returns n where p is the n-th node of its level.
func (p Position) IndexOnLevel() int {
	return int(uint64(p) >> (1 + p.Level()))
}

func (p Position) Parent() Position {
	return (p | isolateRightMostZeroBit(p)) & ^(isolateRightMostZeroBit(p) << 1)
}

func (p Position) Sibling() Position {
	return p ^ (isolateRightMostZeroBit(p) << 1)
}

func (p Position) IsLeaf() bool {
	return p&1 == 0
}

// IsLeftChild reports whether p is or can be a left child.
func (p Position) IsLeftChild() bool {
	return p&(isolateRightMostZeroBit(p)<<1) == 0
}

// LeftChild returns the left child. It must not be called on a leaf.
func (p Position) LeftChild() Position {
	return p & ^(isolateRightMostZeroBit(p) >> 1)
}

// RightChild returns the right child. It must not be called on a leaf.
func (p Position) RightChild() Position {
	return (p | isolateRightMostZeroBit(p)) & ^(isolateRightMostZeroBit(p) >> 1)
}

// LevelWidths returns the width of every level of a tree holding leafCount
// leaves, leaves first and root last.
func LevelWidths(leafCount int) []int {
	if leafCount <= 0 {
		return nil
	}

	widths := []int{leafCount}
	for w := leafCount; w > 1; {
		w = (w + 1) / 2
		widths = append(widths, w)
	}

	return widths
}

func isolateRightMostZeroBit(x Position) Position {
	return (^x) & (x + 1)
}
