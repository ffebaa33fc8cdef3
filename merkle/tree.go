// Package merkle implements a fixed-width binary Merkle tree whose internal
// nodes are computed by an injected Hasher.
//
// The tree is kept as a sequence of levels, level 0 holding the leaves and the
// last level holding the root. Level i+1 has ceil(w/2) nodes for a level of
// width w: node k is HashNodes(level[2k], level[2k+1]) when both children
// exist, otherwise level[2k] is carried up unchanged.
//
// A Tree is not safe for concurrent use. Reads may run in parallel only while
// no Update is in flight.
package merkle

import (
	"bytes"
	"fmt"
)

// Tree is a layered binary Merkle tree with a leaf count fixed at construction.
type Tree struct {
	hasher Hasher
	levels [][][]byte
}

// New builds the tree bottom-up from leaves. Leaf values are copied. No tree
// is returned if any HashNodes call fails.
func New(hasher Hasher, leaves [][]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyInput
	}

	level := make([][]byte, len(leaves))
	for i, leaf := range leaves {
		level[i] = clone(leaf)
	}

	levels, err := build(hasher, level)
	if err != nil {
		return nil, err
	}

	return &Tree{hasher: hasher, levels: levels}, nil
}

// FromLevels restores a tree from levels previously obtained with Levels. Only
// the level widths are checked; node values are trusted and no hashing is done.
func FromLevels(hasher Hasher, levels [][][]byte) (*Tree, error) {
	if len(levels) == 0 || len(levels[0]) == 0 {
		return nil, ErrEmptyInput
	}

	for i := 1; i < len(levels); i++ {
		if want := (len(levels[i-1]) + 1) / 2; len(levels[i]) != want || len(levels[i-1]) == 1 {
			return nil, fmt.Errorf("%w: level %d has %d nodes, want %d", ErrInvalidLevels, i, len(levels[i]), want)
		}
	}
	if top := len(levels[len(levels)-1]); top != 1 {
		return nil, fmt.Errorf("%w: top level has %d nodes", ErrInvalidLevels, top)
	}

	return &Tree{hasher: hasher, levels: cloneLevels(levels)}, nil
}

// Root returns a copy of the root node.
func (t *Tree) Root() []byte {
	return clone(t.levels[len(t.levels)-1][0])
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int {
	return len(t.levels[0])
}

// Depth returns the number of levels, root level included.
func (t *Tree) Depth() int {
	return len(t.levels)
}

// Leaf returns a copy of the leaf at index.
func (t *Tree) Leaf(index int) ([]byte, error) {
	if err := t.checkIndex(index); err != nil {
		return nil, err
	}

	return clone(t.levels[0][index]), nil
}

// Node returns a copy of the node at position index of level, level 0 being
// the leaves.
func (t *Tree) Node(level, index int) ([]byte, error) {
	if level < 0 || level >= len(t.levels) {
		return nil, fmt.Errorf("%w: level %d not in [0, %d)", ErrIndexOutOfRange, level, len(t.levels))
	}
	if index < 0 || index >= len(t.levels[level]) {
		return nil, fmt.Errorf("%w: %d not in [0, %d) on level %d", ErrIndexOutOfRange, index, len(t.levels[level]), level)
	}

	return clone(t.levels[level][index]), nil
}

// Leaves returns a copy of every leaf in order.
func (t *Tree) Leaves() [][]byte {
	leaves := make([][]byte, len(t.levels[0]))
	for i, leaf := range t.levels[0] {
		leaves[i] = clone(leaf)
	}

	return leaves
}

// Levels returns a deep copy of every level, leaves first and root last.
func (t *Tree) Levels() [][][]byte {
	return cloneLevels(t.levels)
}

// Path returns the authentication path of the leaf at index: the sibling of
// each node on the way to the root, root excluded. A node carried up without
// a sibling contributes nothing at its level, so the path may be shorter than
// Depth()-1.
func (t *Tree) Path(index int) ([][]byte, error) {
	if err := t.checkIndex(index); err != nil {
		return nil, err
	}

	path := make([][]byte, 0, len(t.levels)-1)
	for _, level := range t.levels[:len(t.levels)-1] {
		if sibling := index ^ 1; sibling < len(level) {
			path = append(path, clone(level[sibling]))
		}
		index /= 2
	}

	return path, nil
}

// Update replaces the leaf at index and recomputes its ancestors up to the root.
//
// Update is not atomic: if HashNodes fails at level i, levels below i already
// hold new values while the levels above are stale. Callers that need
// all-or-nothing semantics use UpdateAtomic or Checkpoint/Rollback, or Rebuild
// the tree.
func (t *Tree) Update(index int, value []byte) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}

	t.levels[0][index] = clone(value)
	for i := 0; i < len(t.levels)-1; i++ {
		index /= 2

		node, err := parent(t.hasher, t.levels[i], index)
		if err != nil {
			return fmt.Errorf("level %d node %d: %w", i+1, index, err)
		}
		t.levels[i+1][index] = node
	}

	return nil
}

// Rebuild recomputes every internal node from the current leaves. It leaves
// the tree untouched when hashing fails.
func (t *Tree) Rebuild() error {
	levels, err := build(t.hasher, t.levels[0])
	if err != nil {
		return err
	}

	t.levels = levels
	return nil
}

// Equal reports whether both trees hold identical levels.
func (t *Tree) Equal(other *Tree) bool {
	if len(t.levels) != len(other.levels) {
		return false
	}

	for i := range t.levels {
		if len(t.levels[i]) != len(other.levels[i]) {
			return false
		}
		for k := range t.levels[i] {
			if !bytes.Equal(t.levels[i][k], other.levels[i][k]) {
				return false
			}
		}
	}

	return true
}

func (t *Tree) checkIndex(index int) error {
	if index < 0 || index >= len(t.levels[0]) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(t.levels[0]))
	}

	return nil
}

// build returns leaves followed by every level above them. leaves becomes
// level 0 as is.
func build(hasher Hasher, leaves [][]byte) ([][][]byte, error) {
	level := leaves
	levels := [][][]byte{level}

	for len(level) > 1 {
		next := make([][]byte, (len(level)+1)/2)
		for k := range next {
			node, err := parent(hasher, level, k)
			if err != nil {
				return nil, fmt.Errorf("level %d node %d: %w", len(levels), k, err)
			}
			next[k] = node
		}

		levels = append(levels, next)
		level = next
	}

	return levels, nil
}

// parent computes node k of the level above level. Construction and Update
// both go through here so the odd-carry rule cannot drift between them.
func parent(hasher Hasher, level [][]byte, k int) ([]byte, error) {
	left, right := 2*k, 2*k+1
	if right >= len(level) {
		return clone(level[left]), nil
	}

	node, err := hasher.HashNodes(level[left], level[right])
	if err != nil {
		return nil, asHashError(err)
	}

	return node, nil
}

func clone(value []byte) []byte {
	if value == nil {
		return nil
	}

	return append(make([]byte, 0, len(value)), value...)
}

func cloneLevels(levels [][][]byte) [][][]byte {
	out := make([][][]byte, len(levels))
	for i, level := range levels {
		out[i] = make([][]byte, len(level))
		for k, node := range level {
			out[i][k] = clone(node)
		}
	}

	return out
}
