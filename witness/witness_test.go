package witness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testWitness() *Witness {
	before := State{
		Root:  []byte{0x10},
		Leaf1: []byte{0x01},
		Leaf2: []byte{0x02},
		Path1: [][]byte{{0xa1}, {0xa2}},
		Path2: [][]byte{{0xb1}},
	}
	after := State{
		Root:  []byte{0x30},
		Leaf1: []byte{0x64},
		Leaf2: []byte{0xc8},
		Path1: [][]byte{{0xc1}, {0xc2}},
		Path2: [][]byte{},
	}

	return New(2, 10, before, []byte{0x20}, after)
}

func TestEncodeIndex(t *testing.T) {
	r := require.New(t)

	r.Equal("0x0", EncodeIndex(0))
	r.Equal("0x2", EncodeIndex(2))
	r.Equal("0xa", EncodeIndex(10))
	r.Equal("0x100", EncodeIndex(256))
}

func TestNew(t *testing.T) {
	r := require.New(t)

	w := testWitness()
	r.Equal("0x10", w.OldRoot)
	r.Equal("0x20", w.IntermediateRoot)
	r.Equal("0x30", w.NewRoot)
	r.Equal("0x2", w.LeafIndex1)
	r.Equal("0xa", w.LeafIndex2)
	r.Equal("0x01", w.OldLeaf1)
	r.Equal("0xc8", w.NewLeaf2)
	r.Equal([]string{"0xa1", "0xa2"}, w.OldPath1)
	r.Equal([]string{"0xc1", "0xc2"}, w.NewPath1)
	r.Equal([]string{}, w.NewPath2)
}

func TestMarshal(t *testing.T) {
	r := require.New(t)

	content, err := testWitness().Marshal()
	r.NoError(err)
	text := string(content)

	r.Contains(text, `leaf_index2 = "0xa"`)
	r.Contains(text, `old_path1 = ["0xa1", "0xa2"]`)
	r.Contains(text, `new_path2 = []`)

	keys := []string{
		"intermediate_root", "leaf_index1", "leaf_index2", "new_leaf1", "new_leaf2",
		"new_path1", "new_path2", "new_root", "old_leaf1", "old_leaf2",
		"old_path1", "old_path2", "old_root",
	}
	last := -1
	for _, key := range keys {
		at := strings.Index(text, key+" = ")
		r.Greater(at, last, key)
		last = at
	}
}

func TestWriteFile(t *testing.T) {
	r := require.New(t)

	path := filepath.Join(t.TempDir(), "Prover.toml")
	r.NoError(os.WriteFile(path, []byte(strings.Repeat("stale = 1\n", 100)), 0o644))

	w := testWitness()
	r.NoError(w.WriteFile(path))

	content, err := os.ReadFile(path)
	r.NoError(err)
	r.NotContains(string(content), "stale")

	read, err := ReadFile(path)
	r.NoError(err)
	r.Equal(w, read)
}
