package merkle

// Checkpoint holds the nodes an Update of one leaf can touch: the leaf and its
// ancestors, level 0 first.
type Checkpoint struct {
	index int
	nodes [][]byte
}

// Index returns the leaf index the checkpoint was taken for.
func (c Checkpoint) Index() int {
	return c.index
}

// Checkpoint captures the root-ward chain of the leaf at index so that a
// failed Update can be undone with Rollback.
func (t *Tree) Checkpoint(index int) (Checkpoint, error) {
	if err := t.checkIndex(index); err != nil {
		return Checkpoint{}, err
	}

	cp := Checkpoint{index: index, nodes: make([][]byte, len(t.levels))}
	for i, level := range t.levels {
		cp.nodes[i] = clone(level[index])
		index /= 2
	}

	return cp, nil
}

// Rollback restores the nodes captured by cp. Checkpoints taken for other
// leaves must be rolled back in reverse order of capture.
func (t *Tree) Rollback(cp Checkpoint) {
	index := cp.index
	for i, node := range cp.nodes {
		t.levels[i][index] = clone(node)
		index /= 2
	}
}

// UpdateAtomic is Update with all-or-nothing semantics: on failure the tree is
// left exactly as it was before the call.
func (t *Tree) UpdateAtomic(index int, value []byte) error {
	cp, err := t.Checkpoint(index)
	if err != nil {
		return err
	}

	if err := t.Update(index, value); err != nil {
		t.Rollback(cp)
		return err
	}

	return nil
}
