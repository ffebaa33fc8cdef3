// Package service owns one state tree and serializes access to it. Reads run
// concurrently; mutations run one at a time and are persisted before they
// return.
package service

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/frankonly/zkmerkle/crypto"
	"github.com/frankonly/zkmerkle/merkle"
	"github.com/frankonly/zkmerkle/storage"
	"github.com/frankonly/zkmerkle/transition"
	"github.com/frankonly/zkmerkle/witness"
)

var (
	// ErrInconsistent is returned after a non-atomic update failed part way.
	// Only Rebuild clears it.
	ErrInconsistent = fmt.Errorf("tree is inconsistent")
	ErrNoLeafHasher = fmt.Errorf("no leaf hasher configured")
)

type Config struct {
	// Oracle is the name stored next to the tree.
	Oracle string
	// Atomic rolls failed updates back instead of leaving the tree
	// inconsistent.
	Atomic bool
	// LeafHasher turns raw values into leaves for UpdateValue. Optional.
	LeafHasher crypto.LeafHasher
}

type Service struct {
	cfg    Config
	store  *storage.TreeStore
	logger *zap.SugaredLogger

	mu     sync.RWMutex
	tree   *merkle.Tree
	broken error

	// interrupted holds the checkpoints of the update that set broken.
	interrupted []merkle.Checkpoint
}

// New takes ownership of tree and saves it in full. A nil store keeps the tree
// in memory only.
func New(tree *merkle.Tree, store *storage.TreeStore, cfg Config, logger *zap.SugaredLogger) (*Service, error) {
	s := &Service{cfg: cfg, store: store, logger: logger, tree: tree}
	if store != nil {
		if err := store.Save(cfg.Oracle, tree); err != nil {
			return nil, fmt.Errorf("save tree: %w", err)
		}
	}

	logger.Infow("tree ready", "oracle", cfg.Oracle, "leaves", tree.LeafCount(), "root", crypto.EncodeHex(tree.Root()))
	return s, nil
}

// Open loads the tree saved in store.
func Open(store *storage.TreeStore, hasher merkle.Hasher, cfg Config, logger *zap.SugaredLogger) (*Service, error) {
	tree, err := store.Load(cfg.Oracle, hasher)
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}

	logger.Infow("tree loaded", "oracle", cfg.Oracle, "leaves", tree.LeafCount(), "root", crypto.EncodeHex(tree.Root()))
	return &Service{cfg: cfg, store: store, logger: logger, tree: tree}, nil
}

func (s *Service) Root() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(); err != nil {
		return nil, err
	}

	return s.tree.Root(), nil
}

func (s *Service) LeafCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tree.LeafCount()
}

func (s *Service) Leaf(index int) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(); err != nil {
		return nil, err
	}

	return s.tree.Leaf(index)
}

func (s *Service) Path(index int) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(); err != nil {
		return nil, err
	}

	return s.tree.Path(index)
}

func (s *Service) Levels() ([][][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(); err != nil {
		return nil, err
	}

	return s.tree.Levels(), nil
}

// Update sets the leaf at index and returns the new root.
func (s *Service) Update(index int, leaf []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(); err != nil {
		return nil, err
	}

	cps, err := s.checkpoint(index)
	if err != nil {
		return nil, err
	}

	if err := s.tree.Update(index, leaf); err != nil {
		s.fail(err, cps, "update", index)
		return nil, err
	}

	if err := s.persist(cps, index); err != nil {
		return nil, err
	}

	root := s.tree.Root()
	s.logger.Debugw("leaf updated", "index", index, "root", crypto.EncodeHex(root))
	return root, nil
}

// UpdateValue hashes value into a leaf and updates index with it.
func (s *Service) UpdateValue(index int, value []byte) ([]byte, error) {
	if s.cfg.LeafHasher == nil {
		return nil, ErrNoLeafHasher
	}

	leaf, err := s.cfg.LeafHasher.HashLeaf(value)
	if err != nil {
		return nil, fmt.Errorf("hash leaf: %w", err)
	}

	return s.Update(index, leaf)
}

// Transfer applies t and returns its witness.
func (s *Service) Transfer(t transition.Transfer) (*witness.Witness, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(); err != nil {
		return nil, err
	}

	cps, err := s.checkpoint(t.Sender, t.Receiver)
	if err != nil {
		return nil, err
	}

	w, err := transition.Apply(s.tree, t, false)
	if err != nil {
		s.fail(err, cps, "transfer", t.Sender)
		return nil, err
	}

	if err := s.persist(cps, t.Sender, t.Receiver); err != nil {
		return nil, err
	}

	s.logger.Infow("transfer applied", "sender", t.Sender, "receiver", t.Receiver, "root", w.NewRoot)
	return w, nil
}

// Rebuild recomputes the tree from its leaves, saves it and clears
// ErrInconsistent. When the leaves of an interrupted update cannot be hashed,
// that update is discarded and the tree goes back to its last saved state.
func (s *Service) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tree.Rebuild(); err != nil {
		if s.interrupted == nil {
			return err
		}

		rollback(s.tree, s.interrupted)
		s.logger.Warnw("interrupted update discarded", "error", err)
	}

	if s.store != nil {
		if err := s.store.Save(s.cfg.Oracle, s.tree); err != nil {
			return fmt.Errorf("save tree: %w", err)
		}
	}

	if s.broken != nil {
		s.logger.Infow("tree rebuilt", "root", crypto.EncodeHex(s.tree.Root()))
	}
	s.broken, s.interrupted = nil, nil
	return nil
}

// Format prints every level of the tree, see merkle.Tree.Format.
func (s *Service) Format(w io.Writer, width int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(); err != nil {
		return err
	}

	return s.tree.Format(w, width)
}

func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}

	return s.store.Close()
}

func (s *Service) check() error {
	if s.broken != nil {
		return fmt.Errorf("%w: %v", ErrInconsistent, s.broken)
	}

	return nil
}

// checkpoint captures the chains of the given leaves, in order.
func (s *Service) checkpoint(indices ...int) ([]merkle.Checkpoint, error) {
	cps := make([]merkle.Checkpoint, len(indices))
	for i, index := range indices {
		cp, err := s.tree.Checkpoint(index)
		if err != nil {
			return nil, err
		}
		cps[i] = cp
	}

	return cps, nil
}

func rollback(tree *merkle.Tree, cps []merkle.Checkpoint) {
	for i := len(cps) - 1; i >= 0; i-- {
		tree.Rollback(cps[i])
	}
}

// fail handles a mutation error. The tree is rolled back unless the service
// is non-atomic and the oracle itself failed; then it is left half updated
// and the service refuses calls until Rebuild. A malformed node is always
// rolled back since no Rebuild could hash it.
func (s *Service) fail(err error, cps []merkle.Checkpoint, op string, index int) {
	var hashErr *merkle.HashError
	if s.cfg.Atomic || !errors.As(err, &hashErr) || hashErr.Kind == merkle.Malformed {
		rollback(s.tree, cps)
		s.logger.Warnw(op+" failed", "index", index, "error", err)
		return
	}

	s.broken, s.interrupted = err, cps
	s.logger.Errorw(op+" left the tree inconsistent", "index", index, "error", err)
}

// persist saves the chains of the given leaves in one batch. On failure the
// tree is rolled back so it keeps matching the store.
func (s *Service) persist(cps []merkle.Checkpoint, indices ...int) error {
	if s.store == nil {
		return nil
	}

	if err := s.store.SavePath(s.tree, indices...); err != nil {
		rollback(s.tree, cps)
		s.logger.Warnw("save failed, update rolled back", "leaves", indices, "error", err)
		return fmt.Errorf("save leaves %v: %w", indices, err)
	}

	return nil
}
