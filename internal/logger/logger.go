// Package logger owns the process-wide zap logger. Output goes to a log file
// so it never interleaves with what commands print to the terminal.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Dir   string // Directory holding friture.log
	Level string // debug, info, warn, error
}

var (
	mu      sync.RWMutex
	global  = zap.NewNop()
	logPath string
)

// Setup points the global logger at <Dir>/friture.log. The returned cleanup
// flushes the logger and restores the no-op logger.
func Setup(cfg Config) (func() error, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(cfg.Dir, "friture.log")

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.DisableStacktrace = level != zapcore.DebugLevel

	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	global = l
	logPath = path
	mu.Unlock()

	l.Info("logger initialized", zap.String("path", path), zap.String("level", level.String()))

	cleanup := func() error {
		mu.Lock()
		defer mu.Unlock()
		err := global.Sync()
		global = zap.NewNop()
		logPath = ""
		return err
	}
	return cleanup, nil
}

// L returns the global logger. It is a no-op logger until Setup succeeds.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}
