// Package transition applies a transfer between two leaves of a state tree and
// records the witness proving it.
package transition

import (
	"fmt"

	"github.com/frankonly/zkmerkle/merkle"
	"github.com/frankonly/zkmerkle/witness"
)

var ErrSameLeaf = fmt.Errorf("sender and receiver are the same leaf")

// Transfer moves state from Sender to Receiver: both leaves are replaced by
// their new values, sender first.
type Transfer struct {
	Sender        int
	Receiver      int
	SenderValue   []byte
	ReceiverValue []byte
}

// Apply performs t on tree and returns the witness of the transition. With
// atomic set, a failed update restores both leaves and their ancestors;
// otherwise the tree is left as the failing update left it.
func Apply(tree *merkle.Tree, t Transfer, atomic bool) (*witness.Witness, error) {
	if t.Sender == t.Receiver {
		return nil, fmt.Errorf("%w: %d", ErrSameLeaf, t.Sender)
	}

	before, err := snapshot(tree, t.Sender, t.Receiver)
	if err != nil {
		return nil, err
	}

	var checkpoints []merkle.Checkpoint
	if atomic {
		for _, index := range []int{t.Sender, t.Receiver} {
			cp, err := tree.Checkpoint(index)
			if err != nil {
				return nil, err
			}
			checkpoints = append(checkpoints, cp)
		}
	}
	rollback := func() {
		for i := len(checkpoints) - 1; i >= 0; i-- {
			tree.Rollback(checkpoints[i])
		}
	}

	if err := tree.Update(t.Sender, t.SenderValue); err != nil {
		rollback()
		return nil, fmt.Errorf("update sender %d: %w", t.Sender, err)
	}
	intermediateRoot := tree.Root()
	senderPath, err := tree.Path(t.Sender)
	if err != nil {
		rollback()
		return nil, err
	}

	if err := tree.Update(t.Receiver, t.ReceiverValue); err != nil {
		rollback()
		return nil, fmt.Errorf("update receiver %d: %w", t.Receiver, err)
	}
	receiverPath, err := tree.Path(t.Receiver)
	if err != nil {
		rollback()
		return nil, err
	}

	after := witness.State{
		Root:  tree.Root(),
		Leaf1: t.SenderValue,
		Leaf2: t.ReceiverValue,
		Path1: senderPath,
		Path2: receiverPath,
	}

	return witness.New(t.Sender, t.Receiver, before, intermediateRoot, after), nil
}

func snapshot(tree *merkle.Tree, sender, receiver int) (witness.State, error) {
	var (
		state witness.State
		err   error
	)

	if state.Leaf1, err = tree.Leaf(sender); err != nil {
		return state, fmt.Errorf("sender: %w", err)
	}
	if state.Leaf2, err = tree.Leaf(receiver); err != nil {
		return state, fmt.Errorf("receiver: %w", err)
	}
	if state.Path1, err = tree.Path(sender); err != nil {
		return state, err
	}
	if state.Path2, err = tree.Path(receiver); err != nil {
		return state, err
	}
	state.Root = tree.Root()

	return state, nil
}
