package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/frankonly/zkmerkle/config"
	"github.com/frankonly/zkmerkle/crypto"
	"github.com/frankonly/zkmerkle/data"
	zklog "github.com/frankonly/zkmerkle/log"
	"github.com/frankonly/zkmerkle/merkle"
	"github.com/frankonly/zkmerkle/service"
	"github.com/frankonly/zkmerkle/storage"
)

var (
	forceInit bool
	showWidth int
)

var errTreeExists = errors.New("a tree already exists, use --force to replace it")

// environment is what every local command starts from.
type environment struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
	oracle crypto.Oracle
}

func setup() (*environment, error) {
	if workspace != "" {
		data.SetBase(workspace)
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(data.Path(configPath)); err != nil {
			return nil, err
		}
	}

	logger, err := zklog.Init(&cfg.Logger)
	if err != nil {
		return nil, err
	}

	oracle, err := cfg.Hasher.Oracle(logger)
	if err != nil {
		return nil, err
	}

	return &environment{cfg: cfg, logger: logger, oracle: oracle}, nil
}

func (e *environment) serviceConfig() service.Config {
	return service.Config{Oracle: e.oracle.Name(), Atomic: e.cfg.Tree.Atomic, LeafHasher: e.oracle}
}

// leaf turns a configured or command line value into a leaf.
func (e *environment) leaf(value []byte) ([]byte, error) {
	if !e.cfg.Tree.HashLeaves {
		return value, nil
	}

	return e.oracle.HashLeaf(value)
}

// open loads the persisted tree.
func (e *environment) open() (*service.Service, error) {
	db, err := e.cfg.Storage.Open(e.logger)
	if err != nil {
		return nil, err
	}

	svc, err := service.Open(storage.NewTreeStore(db), e.oracle, e.serviceConfig(), e.logger)
	if errors.Is(err, storage.ErrNotFound) {
		_ = db.Close()
		return nil, fmt.Errorf("no tree in %s storage, run init first", e.cfg.Storage.Backend)
	}
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return svc, nil
}

var (
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Build the configured tree and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}

			db, err := env.cfg.Storage.Open(env.logger)
			if err != nil {
				return err
			}
			store := storage.NewTreeStore(db)
			defer store.Close()

			exists, err := store.Exists()
			if err != nil {
				return err
			}
			if exists && !forceInit {
				return errTreeExists
			}

			values, err := env.cfg.Tree.LeafValues()
			if err != nil {
				return err
			}
			leaves := make([][]byte, len(values))
			for i, value := range values {
				if leaves[i], err = env.leaf(value); err != nil {
					return fmt.Errorf("leaf %d: %w", i, err)
				}
			}

			tree, err := merkle.New(env.oracle, leaves)
			if err != nil {
				return err
			}

			if _, err := service.New(tree, store, env.serviceConfig(), env.logger); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), crypto.EncodeHex(tree.Root()))
			return nil
		},
	}

	showCmd = &cobra.Command{
		Use:   "show",
		Short: "Print every level of the stored tree and its root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}

			svc, err := env.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.Format(cmd.OutOrStdout(), showWidth); err != nil {
				return err
			}
			root, err := svc.Root()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "root:", crypto.EncodeHex(root))
			return nil
		},
	}
)
