// Package logger builds the process-wide slog logger. Records go to a
// rotating file so the dashboard never writes to the terminal it draws on.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	appDir   = "tsm"
	fileName = "tsm.log"

	defaultMaxSizeMB  = 5
	defaultMaxBackups = 3
)

// Options configures New.
type Options struct {
	// Level is the minimum level recorded.
	Level slog.Level

	// Path is the log file. Empty selects DefaultPath.
	Path string

	// Stderr additionally mirrors records to this writer (e.g. os.Stderr
	// for --debug on plain CLI commands). Nil disables mirroring.
	Stderr io.Writer

	MaxSizeMB  int
	MaxBackups int
}

// DefaultPath returns <UserCacheDir>/tsm/tsm.log.
func DefaultPath() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, appDir, fileName)
}

// New returns a text logger writing to a rotating file, and a closer for
// that file.
func New(opts Options) (*slog.Logger, io.Closer) {
	path := opts.Path
	if path == "" {
		path = DefaultPath()
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = defaultMaxSizeMB
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = defaultMaxBackups
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}

	var w io.Writer = file
	if opts.Stderr != nil {
		w = io.MultiWriter(file, opts.Stderr)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: opts.Level})
	return slog.New(handler), file
}

// Init builds a logger with New and installs it as slog's default.
func Init(opts Options) io.Closer {
	l, closer := New(opts)
	slog.SetDefault(l)
	return closer
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
