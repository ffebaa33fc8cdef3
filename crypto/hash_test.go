package crypto

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/frankonly/zkmerkle/merkle"
	"github.com/frankonly/zkmerkle/merkle/merkletest"
)

func TestHash(t *testing.T) {
	r := require.New(t)

	inputs := []string{"encoding/hex", "placeholder", "merkle placeholder"}
	expects := []string{"5638d79f9ac9e896cf275a1d7b1a4b59324984775bb9316a801583f44d798a59",
		"4097889236a2af26c293033feb964c4cf118c0224e0d063fec0a89e9d0569ef2",
		"d33966c05481764d5bfea42d79177abad4d2d245e5d245b13f65a6ea020e5ba6"}

	for i, input := range inputs {
		hash := Hash([]byte(input))
		r.Equal(expects[i], hex.EncodeToString(hash))

		leaf, err := SHA256{}.HashLeaf([]byte(input))
		r.NoError(err)
		r.Equal(hash, leaf)
	}
}

func TestHashNodes(t *testing.T) {
	r := require.New(t)

	inputs := []struct {
		Left  string
		Right string
	}{{"4097889236a2af26c293033feb964c4cf118c0224e0d063fec0a89e9d0569ef2", "4097889236a2af26c293033feb964c4cf118c0224e0d063fec0a89e9d0569ef2"},
		{"a8145d86bde02e70958cc47f935369740c329275c92346cd7c667e97717c8afb", "38a443c3927fd1674608ff1ddea1a6ac7ffec27d876dc37d24a92ffe4eb6b6f1"}}
	expects := []string{"05fa996c850f3f4cdf8fb6b0c70dcd732b14231fc38c3bb8a9292e4d748e627b",
		"2004c2e833cd983d2a04bd568dfa25df56f11ee036ef986b3abcd07073c67d11"}

	for i, input := range inputs {
		left := make([]byte, len(input.Left), len(input.Left)+64)
		copy(left, input.Left)

		hash, err := SHA256{}.HashNodes(left, []byte(input.Right))
		r.NoError(err)
		r.Equal(expects[i], hex.EncodeToString(hash))

		// spare capacity in left must not be written through
		r.Equal(input.Left, string(left[:len(input.Left)]))
		r.Equal(make([]byte, 64), left[len(left):cap(left)])
	}
}

func TestKeccak256(t *testing.T) {
	r := require.New(t)

	leaf, err := Keccak256{}.HashLeaf(nil)
	r.NoError(err)
	r.Equal("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", hex.EncodeToString(leaf))

	node, err := Keccak256{}.HashNodes([]byte("ab"), []byte("cd"))
	r.NoError(err)
	whole, err := Keccak256{}.HashLeaf([]byte("abcd"))
	r.NoError(err)
	r.Equal(whole, node)
}

func TestMiMC(t *testing.T) {
	r := require.New(t)

	node, err := MiMC{}.HashNodes(FieldValue(1), FieldValue(2))
	r.NoError(err)
	r.Len(node, fr.Bytes)

	var e fr.Element
	r.NoError(e.SetBytesCanonical(node))

	leaf, err := MiMC{}.HashLeaf(FieldValue(1))
	r.NoError(err)
	r.NotEqual(node, leaf)

	// nodes feed back in as inputs
	_, err = MiMC{}.HashNodes(node, leaf)
	r.NoError(err)
}

func TestMiMCRejectsNonCanonical(t *testing.T) {
	r := require.New(t)

	tooBig := fr.Modulus().FillBytes(make([]byte, fr.Bytes))
	for _, in := range [][]byte{tooBig, {1, 2, 3}, nil} {
		_, err := MiMC{}.HashNodes(in, FieldValue(1))
		r.True(errors.Is(err, merkle.ErrHash))

		var hashErr *merkle.HashError
		r.True(errors.As(err, &hashErr))
		r.Equal(merkle.Malformed, hashErr.Kind)
	}
}

func TestByName(t *testing.T) {
	r := require.New(t)

	for _, name := range []string{NameSHA256, NameKeccak256, NameMiMC} {
		oracle, err := ByName(name)
		r.NoError(err)
		r.Equal(name, oracle.Name())
	}

	_, err := ByName("md5")
	r.Error(err)
}

func TestOracleCompliance(t *testing.T) {
	for _, name := range []string{NameSHA256, NameKeccak256, NameMiMC} {
		name := name
		t.Run(name, func(t *testing.T) {
			merkletest.TestHasherCompliance(t, func(t *testing.T) merkle.Hasher {
				oracle, err := ByName(name)
				require.NoError(t, err)
				return oracle
			})
		})
	}
}

func TestOracleTrees(t *testing.T) {
	r := require.New(t)

	for _, name := range []string{NameSHA256, NameKeccak256, NameMiMC} {
		oracle, err := ByName(name)
		r.NoError(err)

		leaves := make([][]byte, 16)
		for i := range leaves {
			leaves[i], err = oracle.HashLeaf(FieldValue(uint64(i + 1)))
			r.NoError(err)
		}

		tree, err := merkle.New(oracle, leaves)
		r.NoError(err)
		r.Equal(5, tree.Depth())

		value, err := oracle.HashLeaf(FieldValue(100))
		r.NoError(err)
		r.NoError(tree.Update(2, value))

		leaves[2] = value
		fresh, err := merkle.New(oracle, leaves)
		r.NoError(err)
		r.Equal(fresh.Root(), tree.Root(), name)
	}
}
