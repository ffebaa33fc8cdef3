package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/frankonly/zkmerkle/crypto"
	"github.com/frankonly/zkmerkle/crypto/nargo"
	"github.com/frankonly/zkmerkle/data"
	"github.com/frankonly/zkmerkle/prover"
	"github.com/frankonly/zkmerkle/storage"
)

// Oracle builds the configured hash oracle, wrapped for retries when more
// than one attempt is allowed.
func (h *HasherConfig) Oracle(logger *zap.SugaredLogger) (crypto.Oracle, error) {
	var (
		oracle crypto.Oracle
		err    error
	)

	if h.Name == nargo.Name {
		oracle, err = nargo.New(nargo.Config{
			Binary:         h.Nargo.Binary,
			PairProgramDir: data.Path(h.Nargo.PairProgramDir),
			LeafProgramDir: data.Path(h.Nargo.LeafProgramDir),
			Timeout:        h.Nargo.Timeout,
			RatePerSecond:  h.Nargo.RatePerSecond,
		}, logger.Named("nargo"))
	} else {
		oracle, err = crypto.ByName(h.Name)
	}
	if err != nil {
		return nil, err
	}

	if h.Retries > 1 {
		oracle = crypto.NewRetrying(oracle, h.Retries, h.RetryDelay)
	}

	return oracle, nil
}

// Open opens the configured key-value store.
func (s *StorageConfig) Open(logger *zap.SugaredLogger) (storage.KvStore, error) {
	switch s.Backend {
	case BackendLevelDB:
		return storage.NewLevelDB(data.Path(s.Path))
	case BackendBadger:
		path := s.Path
		if path != "" {
			path = data.Path(path)
		}
		return storage.NewBadger(path, logger.Named("badger"))
	case BackendRedis:
		return storage.NewRedis(storage.RedisConfig{
			Address:   s.Redis.Address,
			Password:  s.Redis.Password,
			DB:        s.Redis.DB,
			KeyPrefix: s.Redis.KeyPrefix,
		})
	case BackendMemory:
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

// Prover builds the proof generator for the configured circuit.
func (p *ProverConfig) Prover(logger *zap.SugaredLogger) (*prover.Prover, error) {
	return prover.New(prover.Config{
		CircuitDir:  data.Path(p.CircuitDir),
		Execute:     p.Execute,
		NargoBinary: p.NargoBinary,
		BBBinary:    p.BBBinary,
		Timeout:     p.Timeout,
	}, logger.Named("prover"))
}

// LeafValues parses the configured leaves.
func (t *TreeConfig) LeafValues() ([][]byte, error) {
	values := make([][]byte, len(t.Leaves))
	for i, leaf := range t.Leaves {
		value, err := crypto.ParseValue(leaf)
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		values[i] = value
	}

	return values, nil
}
