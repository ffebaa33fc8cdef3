package crypto

import (
	"errors"
	"strings"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	r := require.New(t)

	for _, s := range []string{"42", "0x2a", "0X2A", " 42\n", "0x000000000000002a"} {
		v, err := ParseValue(s)
		r.NoError(err, s)
		r.Equal(FieldValue(42), v, s)
	}

	v, err := ParseValue("0")
	r.NoError(err)
	r.Len(v, fr.Bytes)

	max := new(fr.Element).SetInt64(-1)
	b := max.Bytes()
	v, err = ParseValue(EncodeHex(b[:]))
	r.NoError(err)
	r.Equal(b[:], v)

	for _, s := range []string{"", "-1", "0xzz", "abc", fr.Modulus().String()} {
		_, err := ParseValue(s)
		r.True(errors.Is(err, ErrNotInField), s)
	}
}

func TestParseHexValue(t *testing.T) {
	r := require.New(t)

	v, err := ParseHexValue("0x0c")
	r.NoError(err)
	r.Equal(FieldValue(12), v)

	_, err = ParseHexValue("12")
	r.True(errors.Is(err, ErrNotInField))
}

func TestEncodeHex(t *testing.T) {
	r := require.New(t)

	s := EncodeHex(FieldValue(10))
	r.Equal("0x"+strings.Repeat("0", 63)+"a", s)

	v, err := DecodeHex(s)
	r.NoError(err)
	r.Equal(FieldValue(10), v)

	r.Equal([]string{s, EncodeHex(FieldValue(11))}, EncodeHexAll([][]byte{FieldValue(10), FieldValue(11)}))

	_, err = DecodeHex("0xabc")
	r.Error(err)
}
