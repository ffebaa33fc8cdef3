// Package crypto provides the in-process hash oracles a merkle.Tree can be
// built with, and the codec for the field element values they exchange.
package crypto

import (
	"crypto/sha256"
	"fmt"

	"github.com/frankonly/zkmerkle/merkle"
)

// LeafHasher turns a raw value into a leaf.
type LeafHasher interface {
	HashLeaf(value []byte) ([]byte, error)
}

// Oracle is a complete hashing backend: leaves and internal nodes. Name
// identifies the backend in persisted trees.
type Oracle interface {
	merkle.Hasher
	LeafHasher
	Name() string
}

const (
	NameSHA256    = "sha256"
	NameKeccak256 = "keccak256"
	NameMiMC      = "mimc"
)

// ByName returns the in-process oracle registered under name.
func ByName(name string) (Oracle, error) {
	switch name {
	case NameSHA256:
		return SHA256{}, nil
	case NameKeccak256:
		return Keccak256{}, nil
	case NameMiMC:
		return MiMC{}, nil
	default:
		return nil, fmt.Errorf("unknown hash oracle %q", name)
	}
}

// Hash hashes bytes by SHA256
func Hash(value []byte) []byte {
	hash := sha256.Sum256(value)
	return hash[:]
}

// HashNodes hashes two nodes into one
func HashNodes(left []byte, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// SHA256 is an Oracle over SHA256(left || right).
type SHA256 struct{}

func (SHA256) Name() string { return NameSHA256 }

func (SHA256) HashNodes(left, right []byte) ([]byte, error) {
	return HashNodes(left, right), nil
}

func (SHA256) HashLeaf(value []byte) ([]byte, error) {
	return Hash(value), nil
}
