package crypto

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Keccak256 is an Oracle over keccak256(left || right), the pairing Solidity
// verifiers use.
type Keccak256 struct{}

func (Keccak256) Name() string { return NameKeccak256 }

func (Keccak256) HashNodes(left, right []byte) ([]byte, error) {
	return ethcrypto.Keccak256(left, right), nil
}

func (Keccak256) HashLeaf(value []byte) ([]byte, error) {
	return ethcrypto.Keccak256(value), nil
}
