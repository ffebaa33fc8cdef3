// Package nargo implements a hash oracle backed by Noir programs executed
// through the nargo toolchain, one process per hash.
//
// Each call writes the inputs to <program dir>/Prover.toml, runs
//
//	nargo execute -p Prover --program-dir <program dir>
//
// and reads the first 0x-prefixed value nargo prints as the result.
package nargo

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/frankonly/zkmerkle/crypto"
	"github.com/frankonly/zkmerkle/merkle"
)

// Name identifies this oracle in persisted trees.
const Name = "nargo"

const proverFile = "Prover.toml"

// Config locates the toolchain and the two hashing programs.
type Config struct {
	// Binary is the nargo executable, looked up in PATH when not absolute.
	Binary string
	// PairProgramDir holds the program hashing input1 and input2.
	PairProgramDir string
	// LeafProgramDir holds the program hashing input1 alone.
	LeafProgramDir string
	// Timeout bounds one invocation; zero means no bound.
	Timeout time.Duration
	// RatePerSecond caps invocations per second; zero means no cap.
	RatePerSecond float64
}

// Hasher is a crypto.Oracle running nargo. Calls are serialized since every
// program directory has a single Prover.toml.
type Hasher struct {
	cfg     Config
	binary  string
	limiter *rate.Limiter
	logger  *zap.SugaredLogger

	mu sync.Mutex
}

var _ crypto.Oracle = (*Hasher)(nil)

// New checks that the binary and both program directories exist.
func New(cfg Config, logger *zap.SugaredLogger) (*Hasher, error) {
	if cfg.Binary == "" {
		cfg.Binary = "nargo"
	}

	binary, err := exec.LookPath(cfg.Binary)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot find nargo binary %q", cfg.Binary)
	}

	for _, dir := range []string{cfg.PairProgramDir, cfg.LeafProgramDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, errors.Wrap(err, "nargo program directory")
		}
		if !info.IsDir() {
			return nil, errors.Errorf("nargo program directory %s is not a directory", dir)
		}
	}

	h := &Hasher{cfg: cfg, binary: binary, logger: logger}
	if cfg.RatePerSecond > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	return h, nil
}

func (h *Hasher) Name() string { return Name }

func (h *Hasher) HashNodes(left, right []byte) ([]byte, error) {
	return h.execute(h.cfg.PairProgramDir, left, right)
}

func (h *Hasher) HashLeaf(value []byte) ([]byte, error) {
	return h.execute(h.cfg.LeafProgramDir, value)
}

func (h *Hasher) execute(dir string, inputs ...[]byte) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := context.Background()
	if h.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.Timeout)
		defer cancel()
	}

	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, merkle.NewHashError(merkle.Timeout, errors.Wrap(err, "nargo rate limit"))
		}
	}

	if err := writeInputs(filepath.Join(dir, proverFile), inputs); err != nil {
		return nil, merkle.NewHashError(merkle.Unavailable, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, h.binary, "execute", "-p", "Prover", "--program-dir", dir)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	h.logger.Debugw("nargo execute", "dir", dir, "inputs", len(inputs), "elapsed", time.Since(start))

	if ctx.Err() == context.DeadlineExceeded {
		return nil, merkle.NewHashError(merkle.Timeout, errors.Wrapf(ctx.Err(), "nargo execute in %s", dir))
	}
	if err != nil {
		return nil, merkle.NewHashError(merkle.Unavailable,
			errors.Wrapf(err, "nargo execute in %s: %s", dir, strings.TrimSpace(stderr.String())))
	}

	return parseOutput(stdout.Bytes())
}

type proverInputs struct {
	Input1 string `toml:"input1"`
	Input2 string `toml:"input2,omitempty"`
}

func writeInputs(path string, inputs [][]byte) error {
	in := proverInputs{Input1: crypto.EncodeHex(inputs[0])}
	if len(inputs) > 1 {
		in.Input2 = crypto.EncodeHex(inputs[1])
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(in); err != nil {
		return errors.Wrap(err, "encode prover inputs")
	}

	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0644), "write %s", path)
}

// parseOutput returns the first 0x-prefixed token of the first line holding one.
func parseOutput(out []byte) ([]byte, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		i := strings.Index(line, "0x")
		if i < 0 {
			continue
		}

		token := strings.TrimRight(strings.Fields(line[i:])[0], ",;.)]\"'")
		value, err := crypto.ParseHexValue(token)
		if err != nil {
			return nil, merkle.NewHashError(merkle.Malformed, err)
		}
		return value, nil
	}

	return nil, merkle.NewHashError(merkle.Malformed, errors.New("no hash in nargo output"))
}
