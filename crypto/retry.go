package crypto

import (
	"errors"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/frankonly/zkmerkle/merkle"
)

// Retrying re-invokes a flaky Oracle with exponential backoff. Malformed
// answers are returned at once since asking again will not fix them.
type Retrying struct {
	Oracle
	backoff wait.Backoff
}

// NewRetrying makes at most attempts calls per hash, sleeping initial between
// the first two and doubling after that.
func NewRetrying(oracle Oracle, attempts int, initial time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}

	return &Retrying{
		Oracle: oracle,
		backoff: wait.Backoff{
			Duration: initial,
			Factor:   2,
			Jitter:   0.1,
			Steps:    attempts,
		},
	}
}

func (r *Retrying) HashNodes(left, right []byte) ([]byte, error) {
	return r.retry(func() ([]byte, error) {
		return r.Oracle.HashNodes(left, right)
	})
}

func (r *Retrying) HashLeaf(value []byte) ([]byte, error) {
	return r.retry(func() ([]byte, error) {
		return r.Oracle.HashLeaf(value)
	})
}

func (r *Retrying) retry(call func() ([]byte, error)) ([]byte, error) {
	var out []byte
	var lastErr error

	err := wait.ExponentialBackoff(r.backoff, func() (bool, error) {
		out, lastErr = call()
		if lastErr == nil {
			return true, nil
		}

		var hashErr *merkle.HashError
		if errors.As(lastErr, &hashErr) && hashErr.Kind == merkle.Malformed {
			return false, lastErr
		}
		return false, nil
	})
	if err != nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}

	return out, nil
}
