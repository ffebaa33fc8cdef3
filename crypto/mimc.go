package crypto

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/pkg/errors"

	"github.com/frankonly/zkmerkle/merkle"
)

// MiMC is an Oracle over the MiMC sponge on the BN254 scalar field. Every
// input must be a canonical 32-byte big-endian field element.
type MiMC struct{}

func (MiMC) Name() string { return NameMiMC }

func (MiMC) HashNodes(left, right []byte) ([]byte, error) {
	return mimcSum(left, right)
}

func (MiMC) HashLeaf(value []byte) ([]byte, error) {
	return mimcSum(value)
}

func mimcSum(inputs ...[]byte) ([]byte, error) {
	h := mimc.NewMiMC()
	for i, in := range inputs {
		var e fr.Element
		if err := e.SetBytesCanonical(in); err != nil {
			return nil, merkle.NewHashError(merkle.Malformed, errors.Wrapf(err, "mimc input %d", i))
		}

		b := e.Bytes()
		if _, err := h.Write(b[:]); err != nil {
			return nil, merkle.NewHashError(merkle.Malformed, errors.Wrapf(err, "mimc input %d", i))
		}
	}

	return h.Sum(nil), nil
}
