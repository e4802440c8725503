// Package logger builds the slog logger for a log mode.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	ModeDebug = "debug"
	ModeDev   = "dev"
	ModeProd  = "prod"
)

// New returns a logger writing to w (stdout when nil): text at debug level
// for "debug", text at info level for "dev" and JSON at info level for
// "prod". Unknown modes behave like "dev".
func New(mode string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}

	switch mode {
	case ModeDebug:
		opts.Level = slog.LevelDebug
		opts.AddSource = true
		return slog.New(slog.NewTextHandler(w, opts))
	case ModeProd:
		return slog.New(slog.NewJSONHandler(w, opts))
	default:
		return slog.New(slog.NewTextHandler(w, opts))
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
