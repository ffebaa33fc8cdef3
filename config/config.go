// Package config reads and validates the TOML configuration shared by the
// zkcli tool and the server.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/frankonly/zkmerkle/crypto"
	"github.com/frankonly/zkmerkle/crypto/nargo"
	"github.com/frankonly/zkmerkle/log"
)

// Storage backends.
const (
	BackendLevelDB = "leveldb"
	BackendBadger  = "badger"
	BackendRedis   = "redis"
	BackendMemory  = "memory"
)

type Config struct {
	Logger  log.LoggerConfig `toml:"logger"`
	Hasher  HasherConfig     `toml:"hasher"`
	Storage StorageConfig    `toml:"storage"`
	Tree    TreeConfig       `toml:"tree"`
	Prover  ProverConfig     `toml:"prover"`
	Server  ServerConfig     `toml:"server"`
}

// HasherConfig selects the hash oracle. Name is one of sha256, keccak256,
// mimc or nargo.
type HasherConfig struct {
	Name string `toml:"name"`
	// Retries is the number of attempts per hash. 1 disables retrying.
	Retries    int           `toml:"retries"`
	RetryDelay time.Duration `toml:"retry_delay"`
	Nargo      NargoConfig   `toml:"nargo"`
}

type NargoConfig struct {
	Binary         string        `toml:"binary"`
	PairProgramDir string        `toml:"pair_program_dir"`
	LeafProgramDir string        `toml:"leaf_program_dir"`
	Timeout        time.Duration `toml:"timeout"`
	RatePerSecond  float64       `toml:"rate_per_second,omitempty"`
}

// StorageConfig selects where the tree is persisted. Path is the database
// directory for leveldb and badger; an empty badger path keeps it in memory.
type StorageConfig struct {
	Backend string      `toml:"backend"`
	Path    string      `toml:"path,omitempty"`
	Redis   RedisConfig `toml:"redis"`
}

type RedisConfig struct {
	Address   string `toml:"address"`
	Password  string `toml:"password,omitempty"`
	DB        int    `toml:"db"`
	KeyPrefix string `toml:"key_prefix,omitempty"`
}

// TreeConfig describes the initial state. Leaves are decimal or 0x hex field
// elements; with HashLeaves set each is hashed into its leaf.
type TreeConfig struct {
	Leaves     []string `toml:"leaves"`
	HashLeaves bool     `toml:"hash_leaves"`
	Atomic     bool     `toml:"atomic"`
}

type ProverConfig struct {
	CircuitDir  string        `toml:"circuit_dir"`
	Execute     bool          `toml:"execute"`
	NargoBinary string        `toml:"nargo_binary,omitempty"`
	BBBinary    string        `toml:"bb_binary,omitempty"`
	Timeout     time.Duration `toml:"timeout"`
}

type ServerConfig struct {
	Port     int    `toml:"port"`
	TLS      bool   `toml:"tls"`
	CertFile string `toml:"cert_file,omitempty"`
	KeyFile  string `toml:"key_file,omitempty"`
}

// Default returns a configuration that runs without external tools: a MiMC
// tree over the values 1 to 16 kept in leveldb.
func Default() *Config {
	leaves := make([]string, 16)
	for i := range leaves {
		leaves[i] = fmt.Sprint(i + 1)
	}

	return &Config{
		Logger: log.LoggerConfig{Environment: log.Production},
		Hasher: HasherConfig{
			Name:       crypto.NameMiMC,
			Retries:    1,
			RetryDelay: 100 * time.Millisecond,
			Nargo: NargoConfig{
				Binary:         "nargo",
				PairProgramDir: "pedersen2noir",
				LeafProgramDir: "pedersen1noir",
				Timeout:        time.Minute,
			},
		},
		Storage: StorageConfig{
			Backend: BackendLevelDB,
			Path:    "tree.db",
			Redis:   RedisConfig{Address: "localhost:6379"},
		},
		Tree: TreeConfig{
			Leaves:     leaves,
			HashLeaves: true,
		},
		Prover: ProverConfig{
			CircuitDir: "merkletreenoir",
			Execute:    true,
			Timeout:    10 * time.Minute,
		},
		Server: ServerConfig{Port: 10000},
	}
}

// Load reads the file at path over Default and validates the result. Unknown
// keys are an error.
func Load(path string) (*Config, error) {
	c := Default()

	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return c, nil
}

// Save writes c to path as TOML.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return err
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}

func (c *Config) Validate() error {
	var allErrors field.ErrorList

	switch env := strings.ToLower(c.Logger.Environment); env {
	case log.Development, log.Production:
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("logger", "env"), c.Logger.Environment,
			[]string{log.Development, log.Production}))
	}

	allErrors = append(allErrors, c.Hasher.validate(field.NewPath("hasher"))...)
	allErrors = append(allErrors, c.Storage.validate(field.NewPath("storage"))...)
	allErrors = append(allErrors, c.Tree.validate(field.NewPath("tree"))...)

	if c.Prover.Timeout < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("prover", "timeout"), c.Prover.Timeout, "must not be negative"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("server", "port"), c.Server.Port, "must be in 1-65535"))
	}

	return allErrors.ToAggregate()
}

func (h *HasherConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList

	switch h.Name {
	case crypto.NameSHA256, crypto.NameKeccak256, crypto.NameMiMC:
	case nargo.Name:
		n := path.Child("nargo")
		if h.Nargo.PairProgramDir == "" {
			allErrors = append(allErrors, field.Required(n.Child("pair_program_dir"), "nargo needs the two-input program"))
		}
		if h.Nargo.LeafProgramDir == "" {
			allErrors = append(allErrors, field.Required(n.Child("leaf_program_dir"), "nargo needs the one-input program"))
		}
		if h.Nargo.Timeout < 0 {
			allErrors = append(allErrors, field.Invalid(n.Child("timeout"), h.Nargo.Timeout, "must not be negative"))
		}
		if h.Nargo.RatePerSecond < 0 {
			allErrors = append(allErrors, field.Invalid(n.Child("rate_per_second"), h.Nargo.RatePerSecond, "must not be negative"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("name"), h.Name,
			[]string{crypto.NameSHA256, crypto.NameKeccak256, crypto.NameMiMC, nargo.Name}))
	}

	if h.Retries < 1 {
		allErrors = append(allErrors, field.Invalid(path.Child("retries"), h.Retries, "must be at least 1"))
	}
	if h.RetryDelay < 0 {
		allErrors = append(allErrors, field.Invalid(path.Child("retry_delay"), h.RetryDelay, "must not be negative"))
	}

	return allErrors
}

func (s *StorageConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList

	switch s.Backend {
	case BackendLevelDB:
		if s.Path == "" {
			allErrors = append(allErrors, field.Required(path.Child("path"), "leveldb needs a directory"))
		}
	case BackendRedis:
		if s.Redis.Address == "" {
			allErrors = append(allErrors, field.Required(path.Child("redis", "address"), "redis needs an address"))
		}
	case BackendBadger, BackendMemory:
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("backend"), s.Backend,
			[]string{BackendLevelDB, BackendBadger, BackendRedis, BackendMemory}))
	}

	return allErrors
}

func (t *TreeConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList

	if len(t.Leaves) == 0 {
		allErrors = append(allErrors, field.Required(path.Child("leaves"), "at least one leaf"))
	}
	for i, leaf := range t.Leaves {
		if _, err := crypto.ParseValue(leaf); err != nil {
			allErrors = append(allErrors, field.Invalid(path.Child("leaves").Index(i), leaf, err.Error()))
		}
	}

	return allErrors
}
