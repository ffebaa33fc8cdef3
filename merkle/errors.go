package merkle

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput      = fmt.Errorf("empty leaf set")
	ErrIndexOutOfRange = fmt.Errorf("index out of range")
	ErrInvalidLevels   = fmt.Errorf("invalid levels")

	// ErrHash matches every *HashError with errors.Is.
	ErrHash = fmt.Errorf("hash failed")
	// ErrTimeout matches a *HashError of kind Timeout.
	ErrTimeout = fmt.Errorf("hash timed out")
)

// HashKind classifies why a Hasher call failed.
type HashKind int

const (
	// Unavailable means the backend could not complete the computation.
	Unavailable HashKind = iota
	// Timeout means the backend did not answer in time.
	Timeout
	// Malformed means the backend answered with something that is not a node value.
	Malformed
)

func (k HashKind) String() string {
	switch k {
	case Unavailable:
		return "unavailable"
	case Timeout:
		return "timeout"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("HashKind(%d)", int(k))
	}
}

// HashError is returned when a Hasher fails. Construction and update abort on
// the first HashError and surface it to the caller; the tree never retries.
type HashError struct {
	Kind HashKind
	Err  error
}

// NewHashError wraps err as a HashError of the given kind.
func NewHashError(kind HashKind, err error) *HashError {
	return &HashError{Kind: kind, Err: err}
}

func (e *HashError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("hash %s", e.Kind)
	}
	return fmt.Sprintf("hash %s: %v", e.Kind, e.Err)
}

func (e *HashError) Unwrap() error {
	return e.Err
}

func (e *HashError) Is(target error) bool {
	switch target {
	case ErrHash:
		return true
	case ErrTimeout:
		return e.Kind == Timeout
	default:
		return false
	}
}

// asHashError makes sure whatever a Hasher returned is reported as a HashError.
func asHashError(err error) error {
	var hashErr *HashError
	if errors.As(err, &hashErr) {
		return err
	}
	return NewHashError(Unavailable, err)
}
