package nargo

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/frankonly/zkmerkle/crypto"
	"github.com/frankonly/zkmerkle/merkle"
	"github.com/frankonly/zkmerkle/merkle/merkletest"
)

// fakeNargo answers with a 31-byte digest of the Prover.toml it was given,
// which keeps results inside the field and sensitive to input order.
const fakeNargo = `#!/bin/sh
dir="$5"
echo "[fake] Circuit witness successfully solved"
echo "[fake] Circuit output: 0x00$(sha256sum "$dir/Prover.toml" | cut -c1-62)"
`

func writeScript(t *testing.T, body string) string {
	t.Helper()

	for _, tool := range []string{"sh", "sha256sum", "cut"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available: %v", tool, err)
		}
	}

	path := filepath.Join(t.TempDir(), "nargo")
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))
	return path
}

func newHasher(t *testing.T, script string, timeout time.Duration) (*Hasher, Config) {
	t.Helper()

	cfg := Config{
		Binary:         writeScript(t, script),
		PairProgramDir: t.TempDir(),
		LeafProgramDir: t.TempDir(),
		Timeout:        timeout,
	}

	h, err := New(cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return h, cfg
}

func TestNargoCompliance(t *testing.T) {
	merkletest.TestHasherCompliance(t, func(t *testing.T) merkle.Hasher {
		h, _ := newHasher(t, fakeNargo, 10*time.Second)
		return h
	})
}

func TestNargoWritesProverToml(t *testing.T) {
	r := require.New(t)

	h, cfg := newHasher(t, fakeNargo, 10*time.Second)

	out, err := h.HashNodes(crypto.FieldValue(1), crypto.FieldValue(2))
	r.NoError(err)
	r.Len(out, 32)

	content, err := os.ReadFile(filepath.Join(cfg.PairProgramDir, proverFile))
	r.NoError(err)
	r.Equal("input1 = \""+crypto.EncodeHex(crypto.FieldValue(1))+"\"\n"+
		"input2 = \""+crypto.EncodeHex(crypto.FieldValue(2))+"\"\n", string(content))

	_, err = h.HashLeaf(crypto.FieldValue(3))
	r.NoError(err)

	content, err = os.ReadFile(filepath.Join(cfg.LeafProgramDir, proverFile))
	r.NoError(err)
	r.Equal("input1 = \""+crypto.EncodeHex(crypto.FieldValue(3))+"\"\n", string(content))
	r.Equal(Name, h.Name())
}

func TestNargoFailure(t *testing.T) {
	r := require.New(t)

	h, _ := newHasher(t, "#!/bin/sh\necho 'backend exploded' >&2\nexit 3\n", 10*time.Second)

	_, err := h.HashNodes(crypto.FieldValue(1), crypto.FieldValue(2))
	r.True(errors.Is(err, merkle.ErrHash))
	r.False(errors.Is(err, merkle.ErrTimeout))
	r.Contains(err.Error(), "backend exploded")

	var hashErr *merkle.HashError
	r.True(errors.As(err, &hashErr))
	r.Equal(merkle.Unavailable, hashErr.Kind)
}

func TestNargoTimeout(t *testing.T) {
	r := require.New(t)

	h, _ := newHasher(t, "#!/bin/sh\nexec sleep 5\n", 100*time.Millisecond)

	start := time.Now()
	_, err := h.HashNodes(crypto.FieldValue(1), crypto.FieldValue(2))
	r.True(errors.Is(err, merkle.ErrTimeout))
	r.Less(time.Since(start), 4*time.Second)
}

func TestNargoMalformed(t *testing.T) {
	r := require.New(t)

	for _, script := range []string{
		"#!/bin/sh\necho 'nothing to see'\n",
		"#!/bin/sh\necho 'Circuit output: 0xnothex'\n",
	} {
		h, _ := newHasher(t, script, 10*time.Second)

		_, err := h.HashNodes(crypto.FieldValue(1), crypto.FieldValue(2))
		r.True(errors.Is(err, merkle.ErrHash))

		var hashErr *merkle.HashError
		r.True(errors.As(err, &hashErr))
		r.Equal(merkle.Malformed, hashErr.Kind)
	}
}

func TestNargoRateLimit(t *testing.T) {
	r := require.New(t)

	cfg := Config{
		Binary:         writeScript(t, fakeNargo),
		PairProgramDir: t.TempDir(),
		LeafProgramDir: t.TempDir(),
		RatePerSecond:  20,
	}
	h, err := New(cfg, zaptest.NewLogger(t).Sugar())
	r.NoError(err)

	start := time.Now()
	for i := 0; i < 4; i++ {
		_, err := h.HashLeaf(crypto.FieldValue(uint64(i)))
		r.NoError(err)
	}
	r.GreaterOrEqual(time.Since(start), 100*time.Millisecond)
}

func TestNewRejectsMissingPieces(t *testing.T) {
	r := require.New(t)
	logger := zaptest.NewLogger(t).Sugar()

	_, err := New(Config{Binary: filepath.Join(t.TempDir(), "missing")}, logger)
	r.Error(err)

	binary := writeScript(t, fakeNargo)
	_, err = New(Config{Binary: binary, PairProgramDir: t.TempDir(), LeafProgramDir: filepath.Join(t.TempDir(), "missing")}, logger)
	r.Error(err)

	file := filepath.Join(t.TempDir(), "file")
	r.NoError(os.WriteFile(file, nil, 0644))
	_, err = New(Config{Binary: binary, PairProgramDir: file, LeafProgramDir: t.TempDir()}, logger)
	r.Error(err)
}

func TestParseOutput(t *testing.T) {
	r := require.New(t)

	v, err := parseOutput([]byte("[p] Circuit output: 0x2a\n"))
	r.NoError(err)
	r.Equal(crypto.FieldValue(42), v)

	v, err = parseOutput([]byte("solving\n0x0b, trailing\n0x0c\n"))
	r.NoError(err)
	r.Equal(crypto.FieldValue(11), v)

	v, err = parseOutput([]byte("Circuit output: Field(0x07)\n"))
	r.NoError(err)
	r.Equal(crypto.FieldValue(7), v)

	_, err = parseOutput(nil)
	r.True(errors.Is(err, merkle.ErrHash))
}
