package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/frankonly/zkmerkle/merkle"
)

// TreeStore keeps one merkle tree in a KvStore. Every node is stored under
// its Position, next to the leaf count and the name of the oracle that
// hashed the tree.
type TreeStore struct {
	db KvStore
}

func NewTreeStore(db KvStore) *TreeStore {
	return &TreeStore{db: db}
}

// Exists reports whether a tree has been saved.
func (s *TreeStore) Exists() (bool, error) {
	_, err := s.db.Get(sizeKey())
	switch {
	case errors.Is(err, ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}

// Oracle returns the name of the oracle the saved tree was built with.
func (s *TreeStore) Oracle() (string, error) {
	name, err := s.db.Get([]byte(oracleKey))
	if err != nil {
		return "", err
	}

	return string(name), nil
}

// Save writes every node of tree in a single batch. Nodes of a previously
// saved tree with more leaves are left behind but are never read again.
func (s *TreeStore) Save(oracle string, tree *merkle.Tree) error {
	batch := s.db.NewBatch()

	for level, nodes := range tree.Levels() {
		for index, node := range nodes {
			batch.Put(merkleKey(NewPosition(level, index)), node)
		}
	}
	batch.Put(sizeKeyValue(uint64(tree.LeafCount())))
	batch.Put(oracleKeyValue(oracle))

	return batch.Write()
}

// SavePath writes the given leaves and all of their ancestors, which are the
// only nodes an Update of those leaves touches, in a single batch.
func (s *TreeStore) SavePath(tree *merkle.Tree, indices ...int) error {
	batch := s.db.NewBatch()
	for _, index := range indices {
		if index < 0 || index >= tree.LeafCount() {
			return fmt.Errorf("%w: %d", ErrOutOfRange, index)
		}

		for pos := LeafPosition(index); pos.Level() < tree.Depth(); pos = pos.Parent() {
			node, err := tree.Node(pos.Level(), pos.IndexOnLevel())
			if err != nil {
				return err
			}
			batch.Put(merkleKey(pos), node)
		}
	}

	return batch.Write()
}

// Load reads the saved tree back. The tree must have been saved with the
// oracle named oracle; hasher is attached to the loaded tree for later
// updates.
func (s *TreeStore) Load(oracle string, hasher merkle.Hasher) (*merkle.Tree, error) {
	sizeValue, err := s.db.Get(sizeKey())
	if err != nil {
		return nil, err
	}
	if len(sizeValue) != 8 {
		return nil, fmt.Errorf("%w: leaf count has %d bytes", ErrCorrupted, len(sizeValue))
	}

	saved, err := s.Oracle()
	if err != nil {
		return nil, err
	}
	if saved != oracle {
		return nil, fmt.Errorf("%w: tree was built with %q, not %q", ErrOracleMismatch, saved, oracle)
	}

	widths := LevelWidths(int(binary.BigEndian.Uint64(sizeValue)))
	if len(widths) == 0 {
		return nil, fmt.Errorf("%w: empty tree", ErrCorrupted)
	}

	levels := make([][][]byte, len(widths))
	for level, width := range widths {
		levels[level] = make([][]byte, width)
		for index := range levels[level] {
			node, err := s.db.Get(merkleKey(NewPosition(level, index)))
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: node %d of level %d missing", ErrCorrupted, index, level)
			}
			if err != nil {
				return nil, err
			}
			levels[level][index] = node
		}
	}

	return merkle.FromLevels(hasher, levels)
}

func (s *TreeStore) Close() error {
	return s.db.Close()
}
