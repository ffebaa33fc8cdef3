package crypto

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrNotInField = fmt.Errorf("value is not a BN254 scalar field element")

// FieldValue encodes n as a 32-byte big-endian field element.
func FieldValue(n uint64) []byte {
	var e fr.Element
	e.SetUint64(n)
	b := e.Bytes()
	return b[:]
}

// ParseValue parses a decimal or 0x-prefixed hexadecimal integer into a 32-byte
// big-endian field element. Values outside [0, r) are rejected.
func ParseValue(s string) ([]byte, error) {
	s = strings.TrimSpace(s)

	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("%w: cannot parse %q", ErrNotInField, s)
	}
	if n.Sign() < 0 || n.Cmp(fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotInField, s)
	}

	return n.FillBytes(make([]byte, fr.Bytes)), nil
}

// ParseHexValue is ParseValue restricted to 0x-prefixed input, the format
// external provers print.
func ParseHexValue(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, fmt.Errorf("%w: %q is not 0x-prefixed", ErrNotInField, s)
	}

	return ParseValue(s)
}

// EncodeHex renders a node value as 0x-prefixed hex.
func EncodeHex(value []byte) string {
	return hexutil.Encode(value)
}

// EncodeHexAll renders every value with EncodeHex.
func EncodeHexAll(values [][]byte) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = EncodeHex(v)
	}
	return out
}

// DecodeHex parses 0x-prefixed hex with an even number of digits.
func DecodeHex(s string) ([]byte, error) {
	return hexutil.Decode(s)
}
