package merkle

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Format writes one line per level, leaves first. Each node is printed as hex;
// when width > 0 only its last width hex digits are kept.
func (t *Tree) Format(w io.Writer, width int) error {
	for _, level := range t.levels {
		nodes := make([]string, len(level))
		for k, node := range level {
			nodes[k] = truncate(hexutil.Encode(node), width)
		}

		if _, err := fmt.Fprintf(w, "[%s]\n", strings.Join(nodes, ", ")); err != nil {
			return err
		}
	}

	return nil
}

func truncate(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}

	return s[len(s)-width:]
}
