// Package prover drives the external proving toolchain for a transition
// witness: nargo turns Prover.toml into a compressed witness and bb proves it.
package prover

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config locates the circuit and the tools. Relative artifact paths are
// resolved against CircuitDir.
type Config struct {
	// CircuitDir holds the circuit package and its Prover.toml.
	CircuitDir string
	// Execute runs nargo execute in CircuitDir before proving.
	Execute     bool
	NargoBinary string
	BBBinary    string
	// Bytecode, Witness and Output default to target/<circuit>.json,
	// target/<circuit>.gz and target/proof.
	Bytecode string
	Witness  string
	Output   string
	// Timeout bounds each process; zero means no bound.
	Timeout time.Duration
}

type Prover struct {
	cfg    Config
	logger *zap.SugaredLogger
}

// New fills in defaults and checks that the circuit directory exists. The
// binaries are resolved when Prove runs.
func New(cfg Config, logger *zap.SugaredLogger) (*Prover, error) {
	info, err := os.Stat(cfg.CircuitDir)
	if err != nil {
		return nil, errors.Wrap(err, "circuit directory")
	}
	if !info.IsDir() {
		return nil, errors.Errorf("circuit directory %s is not a directory", cfg.CircuitDir)
	}

	name := filepath.Base(filepath.Clean(cfg.CircuitDir))
	if cfg.NargoBinary == "" {
		cfg.NargoBinary = "nargo"
	}
	if cfg.BBBinary == "" {
		cfg.BBBinary = "bb"
	}
	if cfg.Bytecode == "" {
		cfg.Bytecode = filepath.Join("target", name+".json")
	}
	if cfg.Witness == "" {
		cfg.Witness = filepath.Join("target", name+".gz")
	}
	if cfg.Output == "" {
		cfg.Output = filepath.Join("target", "proof")
	}

	return &Prover{cfg: cfg, logger: logger}, nil
}

// WitnessInput is where the transition witness must be written before Prove.
func (p *Prover) WitnessInput() string {
	return filepath.Join(p.cfg.CircuitDir, "Prover.toml")
}

// Output is the path of the proof written by a successful Prove.
func (p *Prover) Output() string {
	return p.resolve(p.cfg.Output)
}

// Prove generates a proof for the witness in WitnessInput. Output of both
// tools is forwarded to the logger line by line; a non-zero exit fails the
// run.
func (p *Prover) Prove(ctx context.Context) error {
	logger := p.logger.With("run", uuid.NewString())

	if p.cfg.Execute {
		err := p.run(ctx, logger, p.cfg.NargoBinary, "execute", "--program-dir", p.cfg.CircuitDir)
		if err != nil {
			return errors.Wrap(err, "solve witness")
		}
	}

	if err := os.MkdirAll(filepath.Dir(p.Output()), 0755); err != nil {
		return errors.Wrap(err, "create proof directory")
	}

	err := p.run(ctx, logger, p.cfg.BBBinary, "prove",
		"-b", p.resolve(p.cfg.Bytecode),
		"-w", p.resolve(p.cfg.Witness),
		"-o", p.Output())
	if err != nil {
		return errors.Wrap(err, "generate proof")
	}

	logger.Infow("proof generated", "output", p.Output())
	return nil
}

func (p *Prover) run(ctx context.Context, logger *zap.SugaredLogger, binary string, args ...string) error {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.WaitDelay = time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.WithStack(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.WithStack(err)
	}

	logger = logger.With("cmd", filepath.Base(binary))
	logger.Debugw("starting", "args", args)

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "start %s", binary)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go forward(&wg, stdout, func(line string) { logger.Infow(line, "stream", "stdout") })
	go forward(&wg, stderr, func(line string) { logger.Warnw(line, "stream", "stderr") })
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return errors.Wrapf(ctx.Err(), "%s %s", binary, args[0])
		}
		return errors.Wrapf(err, "%s %s", binary, args[0])
	}

	return nil
}

func forward(wg *sync.WaitGroup, r io.Reader, emit func(string)) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		emit(scanner.Text())
	}
}

func (p *Prover) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(p.cfg.CircuitDir, path)
}
