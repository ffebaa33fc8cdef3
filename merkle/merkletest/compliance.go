package merkletest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/frankonly/zkmerkle/merkle"
)

// HasherFactory returns a fresh hasher for one compliance subtest.
type HasherFactory func(t *testing.T) merkle.Hasher

// TestHasherCompliance checks the contract merkle.Tree relies on. Inputs are
// small integers encoded with Value, which every backend accepts.
func TestHasherCompliance(t *testing.T, f HasherFactory) {
	t.Run("deterministic", func(t *testing.T) {
		h := f(t)

		a, err := h.HashNodes(Value(1), Value(2))
		require.NoError(t, err)
		b, err := h.HashNodes(Value(1), Value(2))
		require.NoError(t, err)

		require.Equal(t, a, b)
	})

	t.Run("argument order matters", func(t *testing.T) {
		h := f(t)

		a, err := h.HashNodes(Value(1), Value(2))
		require.NoError(t, err)
		b, err := h.HashNodes(Value(2), Value(1))
		require.NoError(t, err)

		require.NotEqual(t, a, b)
	})

	t.Run("distinct inputs", func(t *testing.T) {
		h := f(t)

		a, err := h.HashNodes(Value(1), Value(2))
		require.NoError(t, err)
		b, err := h.HashNodes(Value(1), Value(3))
		require.NoError(t, err)

		require.NotEqual(t, a, b)
	})

	t.Run("inputs untouched", func(t *testing.T) {
		h := f(t)

		left, right := Value(7), Value(9)
		out, err := h.HashNodes(left, right)
		require.NoError(t, err)

		require.Equal(t, Value(7), left)
		require.Equal(t, Value(9), right)

		out[0] ^= 0xff
		require.Equal(t, Value(7), left)
		require.Equal(t, Value(9), right)
	})

	t.Run("builds trees", func(t *testing.T) {
		h := f(t)

		leaves := Values(1, 5)
		tree, err := merkle.New(h, leaves)
		require.NoError(t, err)

		again, err := merkle.New(h, leaves)
		require.NoError(t, err)
		require.True(t, bytes.Equal(tree.Root(), again.Root()))
	})
}
