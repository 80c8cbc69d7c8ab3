// Package logger builds the process-wide zap logger.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Logger holds the configured logger. Log is a no-op logger until Init
// succeeds.
type Logger struct {
	Log *zap.Logger
}

// New returns a Logger with a no-op Log.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init replaces Log with a production JSON logger writing to stderr at the
// given level ("debug", "Info", "WARN", ...).
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	zl, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	l.Log = zl
	return nil
}
