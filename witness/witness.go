// Package witness holds the record of a two-leaf state transition that a
// prover consumes as Prover.toml.
package witness

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/frankonly/zkmerkle/crypto"
)

// Witness is the circuit input for one transfer. Values are 0x-prefixed hex
// strings; leaf indices are hex too. Field order is the order the circuit
// declares them in.
type Witness struct {
	IntermediateRoot string   `toml:"intermediate_root"`
	LeafIndex1       string   `toml:"leaf_index1"`
	LeafIndex2       string   `toml:"leaf_index2"`
	NewLeaf1         string   `toml:"new_leaf1"`
	NewLeaf2         string   `toml:"new_leaf2"`
	NewPath1         []string `toml:"new_path1"`
	NewPath2         []string `toml:"new_path2"`
	NewRoot          string   `toml:"new_root"`
	OldLeaf1         string   `toml:"old_leaf1"`
	OldLeaf2         string   `toml:"old_leaf2"`
	OldPath1         []string `toml:"old_path1"`
	OldPath2         []string `toml:"old_path2"`
	OldRoot          string   `toml:"old_root"`
}

// State is one side of a transition as read from the tree.
type State struct {
	Root  []byte
	Leaf1 []byte
	Leaf2 []byte
	Path1 [][]byte
	Path2 [][]byte
}

// New assembles a witness for leaves index1 and index2 from the state before
// the transition, the root after index1 changed, and the state after.
func New(index1, index2 int, before State, intermediateRoot []byte, after State) *Witness {
	return &Witness{
		IntermediateRoot: crypto.EncodeHex(intermediateRoot),
		LeafIndex1:       EncodeIndex(index1),
		LeafIndex2:       EncodeIndex(index2),
		NewLeaf1:         crypto.EncodeHex(after.Leaf1),
		NewLeaf2:         crypto.EncodeHex(after.Leaf2),
		NewPath1:         crypto.EncodeHexAll(after.Path1),
		NewPath2:         crypto.EncodeHexAll(after.Path2),
		NewRoot:          crypto.EncodeHex(after.Root),
		OldLeaf1:         crypto.EncodeHex(before.Leaf1),
		OldLeaf2:         crypto.EncodeHex(before.Leaf2),
		OldPath1:         crypto.EncodeHexAll(before.Path1),
		OldPath2:         crypto.EncodeHexAll(before.Path2),
		OldRoot:          crypto.EncodeHex(before.Root),
	}
}

// EncodeIndex renders a leaf index the way the circuit reads it, e.g. 10 as
// "0xa".
func EncodeIndex(index int) string {
	return fmt.Sprintf("0x%x", index)
}

// Marshal renders the witness as TOML.
func (w *Witness) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// WriteFile writes the witness to path, replacing any previous content.
func (w *Witness) WriteFile(path string) error {
	content, err := w.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, content, 0o644)
}

// ReadFile loads a witness written by WriteFile.
func ReadFile(path string) (*Witness, error) {
	w := &Witness{}
	if _, err := toml.DecodeFile(path, w); err != nil {
		return nil, err
	}

	return w, nil
}
