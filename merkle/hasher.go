package merkle

// Hasher combines two node values into their parent.
//
// HashNodes must be a pure function of its inputs. It is not required to be
// commutative: the tree always passes the left child first, and swapping the
// arguments yields a different, non-interoperable root. HashNodes must not
// retain or modify left and right.
type Hasher interface {
	HashNodes(left, right []byte) ([]byte, error)
}

// HasherFunc adapts an ordinary function to the Hasher interface.
type HasherFunc func(left, right []byte) ([]byte, error)

// HashNodes calls f(left, right).
func (f HasherFunc) HashNodes(left, right []byte) ([]byte, error) {
	return f(left, right)
}
