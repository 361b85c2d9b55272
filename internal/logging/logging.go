// Package logging builds the operator-facing zerolog logger. The TUI owns
// the terminal, so logs go to a file unless stderr is asked for.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Stderr selects standard error instead of a log file.
const Stderr = "-"

// Config selects the log destination and level.
type Config struct {
	File  string
	Level string
	// Console switches stderr output to zerolog's human readable writer.
	Console bool
}

// New opens the log destination. The returned closer must be called on exit.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var (
		out    io.Writer
		closer io.Closer = nopCloser{}
	)
	switch strings.TrimSpace(cfg.File) {
	case "", Stderr:
		out = os.Stderr
		if cfg.Console {
			out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		}
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Str("app", "churnscout").Logger()
	return logger, closer, nil
}

func parseLevel(raw string) (zerolog.Level, error) {
	if strings.TrimSpace(raw) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("log level %q: %w", raw, err)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
