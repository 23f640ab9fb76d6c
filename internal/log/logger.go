package log

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the log file.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 28
)

// Options configures NewLogger.
type Options struct {
	// Verbose lowers the level from Warn to Debug.
	Verbose bool

	// JSON selects the JSON handler instead of text.
	JSON bool

	// File, when set, also writes logs to a rotating file.
	File string

	// MaxSizeMB, MaxBackups and MaxAgeDays tune file rotation.
	// Zero values use the defaults.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger creates a secure logger writing to w and, optionally, to a
// rotating file. The returned closer flushes and closes the file.
func NewLogger(w io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	level := levelFor(opts.Verbose)

	var closer io.Closer = nopCloser{}
	out := w
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return nil, nil, err
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: orDefault(opts.MaxBackups, DefaultMaxBackups),
			MaxAge:     orDefault(opts.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   true,
		}
		closer = rotator
		if w != nil {
			out = io.MultiWriter(w, rotator)
		} else {
			out = rotator
		}
	}
	if out == nil {
		return nil, nil, errors.New("log: no output writer")
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	return slog.New(NewSecureHandler(handler)), closer, nil
}

// NewSecureLogger creates a text logger writing to w.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelFor(verbose)})
	return slog.New(NewSecureHandler(handler))
}

func levelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
