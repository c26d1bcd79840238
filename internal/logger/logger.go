package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	// Level is one of debug, info, warn, error. Unknown values fall back to info.
	Level string
	// File enables rotated file output in addition to stderr when set.
	File string
}

// New builds the application logger. The returned closer flushes the rotated
// file, if any, and is safe to call when no file is configured.
func New(cfg Config) (*log.Logger, io.Closer, error) {
	return newWithWriter(cfg, os.Stderr)
}

func newWithWriter(cfg Config, console io.Writer) (*log.Logger, io.Closer, error) {
	var writer io.Writer = console
	var closer io.Closer = nopCloser{}

	if path := strings.TrimSpace(cfg.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, err
		}
		fileWriter := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		writer = io.MultiWriter(console, fileWriter)
		closer = fileWriter
	}

	level := ParseLevel(cfg.Level)
	logger := log.NewWithOptions(writer, log.Options{
		ReportCaller:    level == log.DebugLevel,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "nutriwell",
	})
	return logger, closer, nil
}

func ParseLevel(raw string) log.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
