// Package merkletest provides deterministic hashers for exercising
// merkle.Tree and a compliance suite for real merkle.Hasher implementations.
package merkletest

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/frankonly/zkmerkle/merkle"
)

// ValueSize is the width of values produced by Value and Additive.
const ValueSize = 32

// Value encodes n as a ValueSize-byte big-endian integer.
func Value(n uint64) []byte {
	return new(big.Int).SetUint64(n).FillBytes(make([]byte, ValueSize))
}

// Values returns Value(first), Value(first+1), ... count values in total.
func Values(first uint64, count int) [][]byte {
	values := make([][]byte, count)
	for i := range values {
		values[i] = Value(first + uint64(i))
	}
	return values
}

// Additive combines two values by integer addition modulo 2^256. It is
// commutative on purpose: it makes expected roots easy to write by hand.
type Additive struct{}

func (Additive) HashNodes(left, right []byte) ([]byte, error) {
	sum := new(big.Int).Add(new(big.Int).SetBytes(left), new(big.Int).SetBytes(right))
	sum.Mod(sum, new(big.Int).Lsh(big.NewInt(1), 8*ValueSize))
	return sum.FillBytes(make([]byte, ValueSize)), nil
}

// Concat renders the combination as "(left,right)". Roots read as the shape
// of the tree, and argument order is visible.
type Concat struct{}

func (Concat) HashNodes(left, right []byte) ([]byte, error) {
	return []byte(fmt.Sprintf("(%s,%s)", left, right)), nil
}

// Strings converts each string to a byte slice.
func Strings(values ...string) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = []byte(v)
	}
	return out
}

// Counting wraps a Hasher and counts HashNodes calls.
type Counting struct {
	merkle.Hasher

	mu    sync.Mutex
	calls int
}

func (c *Counting) HashNodes(left, right []byte) ([]byte, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	return c.Hasher.HashNodes(left, right)
}

// Calls returns the number of HashNodes calls so far.
func (c *Counting) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls
}

// Failing wraps a Hasher and fails every call once FailAfter calls succeeded.
// A negative FailAfter never fails.
type Failing struct {
	merkle.Hasher
	FailAfter int
	Kind      merkle.HashKind

	mu    sync.Mutex
	calls int
}

func (f *Failing) HashNodes(left, right []byte) ([]byte, error) {
	f.mu.Lock()
	n := f.calls
	f.calls++
	f.mu.Unlock()

	if f.FailAfter >= 0 && n >= f.FailAfter {
		return nil, merkle.NewHashError(f.Kind, fmt.Errorf("call %d refused", n))
	}

	return f.Hasher.HashNodes(left, right)
}

// Arm resets the call counter and makes the hasher fail after n more calls.
func (f *Failing) Arm(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = 0
	f.FailAfter = n
}
