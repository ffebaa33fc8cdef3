package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/frankonly/zkmerkle/crypto"
	"github.com/frankonly/zkmerkle/crypto/nargo"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "zkmerkle.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	r := require.New(t)

	c := Default()
	r.NoError(c.Validate())
	r.Len(c.Tree.Leaves, 16)
	r.Equal("1", c.Tree.Leaves[0])
	r.Equal("16", c.Tree.Leaves[15])
	r.Equal(crypto.NameMiMC, c.Hasher.Name)
	r.Equal(10000, c.Server.Port)
}

func TestLoadOverlaysDefault(t *testing.T) {
	r := require.New(t)

	c, err := Load(writeConfig(t, `
[hasher]
name = "keccak256"
retries = 3
retry_delay = "250ms"

[storage]
backend = "memory"

[tree]
leaves = ["0x01", "2", "3"]
atomic = true

[server]
port = 12000
`))
	r.NoError(err)

	r.Equal(crypto.NameKeccak256, c.Hasher.Name)
	r.Equal(3, c.Hasher.Retries)
	r.Equal(250*time.Millisecond, c.Hasher.RetryDelay)
	r.Equal(BackendMemory, c.Storage.Backend)
	r.Equal([]string{"0x01", "2", "3"}, c.Tree.Leaves)
	r.True(c.Tree.Atomic)
	r.True(c.Tree.HashLeaves)
	r.Equal(12000, c.Server.Port)
	r.Equal("production", c.Logger.Environment)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, `
[tree]
leafs = ["1"]
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "tree.leafs")
}

func TestLoadValidates(t *testing.T) {
	_, err := Load(writeConfig(t, `
[hasher]
name = "pedersen"
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "hasher.name")
}

func TestValidate(t *testing.T) {
	r := require.New(t)

	c := Default()
	c.Logger.Environment = "staging"
	c.Hasher.Name = nargo.Name
	c.Hasher.Nargo.PairProgramDir = ""
	c.Hasher.Retries = 0
	c.Storage.Backend = BackendRedis
	c.Storage.Redis.Address = ""
	c.Tree.Leaves = []string{"1", "x", "-2"}
	c.Server.Port = 70000

	err := c.Validate()
	r.Error(err)
	for _, path := range []string{
		"logger.env",
		"hasher.nargo.pair_program_dir",
		"hasher.retries",
		"storage.redis.address",
		"tree.leaves[1]",
		"tree.leaves[2]",
		"server.port",
	} {
		r.Contains(err.Error(), path)
	}
	r.NotContains(err.Error(), "tree.leaves[0]")
	r.NotContains(err.Error(), "leaf_program_dir")

	c = Default()
	c.Tree.Leaves = nil
	r.ErrorContains(c.Validate(), "tree.leaves")
}

func TestSaveLoad(t *testing.T) {
	r := require.New(t)

	c := Default()
	c.Hasher.Name = crypto.NameSHA256
	c.Hasher.Nargo.RatePerSecond = 2.5
	c.Storage.Redis.KeyPrefix = "tree:"
	c.Prover.Execute = false

	path := filepath.Join(t.TempDir(), "zkmerkle.toml")
	r.NoError(c.Save(path))

	loaded, err := Load(path)
	r.NoError(err)
	r.Equal(c, loaded)
}

func TestBuild(t *testing.T) {
	r := require.New(t)
	logger := zaptest.NewLogger(t).Sugar()

	c := Default()
	oracle, err := c.Hasher.Oracle(logger)
	r.NoError(err)
	r.Equal(crypto.NameMiMC, oracle.Name())

	c.Hasher.Retries = 3
	oracle, err = c.Hasher.Oracle(logger)
	r.NoError(err)
	r.IsType(&crypto.Retrying{}, oracle)
	r.Equal(crypto.NameMiMC, oracle.Name())

	c.Storage.Backend = BackendMemory
	db, err := c.Storage.Open(logger)
	r.NoError(err)
	r.NoError(db.Close())

	c.Storage.Backend = BackendBadger
	c.Storage.Path = ""
	db, err = c.Storage.Open(logger)
	r.NoError(err)
	r.NoError(db.Close())

	values, err := c.Tree.LeafValues()
	r.NoError(err)
	r.Len(values, 16)
	r.Equal(crypto.FieldValue(16), values[15])
}
