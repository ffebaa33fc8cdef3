package log

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	Development = "development"
	Production  = "production"
)

// LoggerConfig selects the environment, "development" or "production", an
// optional file written next to stderr, and whether stacktraces are logged.
type LoggerConfig struct {
	EnableStacktrace bool   `toml:"enable_stacktrace,omitempty"`
	Environment      string `toml:"env"`
	Path             string `toml:"path,omitempty"`
}

var logger *zap.SugaredLogger

// New returns the same logger all the time. It is the development logger
// until Init installs another one.
func New() *zap.SugaredLogger {
	if logger != nil {
		return logger
	}

	l, err := NewLogger(&LoggerConfig{Environment: Development})
	if err != nil {
		panic(err)
	}

	logger = l
	return logger
}

// Init builds a logger from conf and makes it the one New returns.
func Init(conf *LoggerConfig) (*zap.SugaredLogger, error) {
	l, err := NewLogger(conf)
	if err != nil {
		return nil, err
	}

	logger = l
	return logger, nil
}

// NewLogger writes debug and above in development, info and above in
// production, in console format.
func NewLogger(conf *LoggerConfig) (*zap.SugaredLogger, error) {
	level := zap.NewAtomicLevel()
	switch {
	case strings.EqualFold(Development, conf.Environment):
		level.SetLevel(zap.DebugLevel)
	case strings.EqualFold(Production, conf.Environment):
		level.SetLevel(zap.InfoLevel)
	default:
		return nil, fmt.Errorf("environment must be either %s or %s, got %q", Development, Production, conf.Environment)
	}

	outputPaths := []string{"stderr"}
	if conf.Path != "" {
		outputPaths = append(outputPaths, conf.Path)
	}

	cfg := &zap.Config{
		Level:             level,
		Encoding:          "console",
		DisableStacktrace: !conf.EnableStacktrace,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "path",
			MessageKey:     "msg",
			StacktraceKey:  "stack",
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return base.Sugar(), nil
}
