package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/frankonly/zkmerkle/api"
	"github.com/frankonly/zkmerkle/config"
	"github.com/frankonly/zkmerkle/data"
	zklog "github.com/frankonly/zkmerkle/log"
	"github.com/frankonly/zkmerkle/merkle"
	"github.com/frankonly/zkmerkle/service"
	"github.com/frankonly/zkmerkle/storage"
)

var (
	configFile = flag.String("config", "", "The zkmerkle TOML configuration, defaults apply when empty")
	tls        = flag.Bool("tls", false, "Connection uses TLS if true, else plain TCP")
	certFile   = flag.String("cert_file", "", "The TLS cert file")
	keyFile    = flag.String("key_file", "", "The TLS key file")
	dbDir      = flag.String("db_dir", "", "The tree DB directory, overrides the configuration")
	port       = flag.Int("port", 0, "The server port, overrides the configuration")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(data.Path(*configFile)); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if *dbDir != "" {
		cfg.Storage.Path = *dbDir
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *tls {
		cfg.Server.TLS = true
	}
	if *certFile != "" {
		cfg.Server.CertFile = *certFile
	}
	if *keyFile != "" {
		cfg.Server.KeyFile = *keyFile
	}

	logger, err := zklog.Init(&cfg.Logger)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	svc, err := openService(cfg)
	if err != nil {
		logger.Fatalw("failed to initialize tree", "error", err)
	}
	defer svc.Close()

	lis, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", cfg.Server.Port))
	if err != nil {
		logger.Fatalw("failed to listen", "error", err)
	}

	var opts []grpc.ServerOption
	if cfg.Server.TLS {
		if cfg.Server.CertFile == "" {
			cfg.Server.CertFile = "x509/server_cert.pem"
		}
		if cfg.Server.KeyFile == "" {
			cfg.Server.KeyFile = "x509/server_key.pem"
		}
		creds, err := credentials.NewServerTLSFromFile(data.Path(cfg.Server.CertFile), data.Path(cfg.Server.KeyFile))
		if err != nil {
			logger.Fatalw("failed to generate credentials", "error", err)
		}
		opts = []grpc.ServerOption{grpc.Creds(creds)}
	}

	grpcServer := grpc.NewServer(opts...)
	api.RegisterStateServer(grpcServer, api.NewServer(svc))

	logger.Infow("serving", "port", cfg.Server.Port, "tls", cfg.Server.TLS)
	if err := grpcServer.Serve(lis); err != nil {
		logger.Errorw("server stopped", "error", err)
	}
}

// openService loads the stored tree, or builds and stores the configured one
// on first start.
func openService(cfg *config.Config) (*service.Service, error) {
	logger := zklog.New()

	oracle, err := cfg.Hasher.Oracle(logger)
	if err != nil {
		return nil, err
	}
	svcCfg := service.Config{Oracle: oracle.Name(), Atomic: cfg.Tree.Atomic, LeafHasher: oracle}

	db, err := cfg.Storage.Open(logger)
	if err != nil {
		return nil, err
	}
	store := storage.NewTreeStore(db)

	svc, err := service.Open(store, oracle, svcCfg, logger)
	if !errors.Is(err, storage.ErrNotFound) {
		if err != nil {
			_ = store.Close()
		}
		return svc, err
	}

	values, err := cfg.Tree.LeafValues()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	leaves := values
	if cfg.Tree.HashLeaves {
		leaves = make([][]byte, len(values))
		for i, value := range values {
			if leaves[i], err = oracle.HashLeaf(value); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("leaf %d: %w", i, err)
			}
		}
	}

	tree, err := merkle.New(oracle, leaves)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return service.New(tree, store, svcCfg, logger)
}
