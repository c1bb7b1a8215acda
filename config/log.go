package config

import (
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogging installs the default logger. When a path is configured the
// logs are written to that file as JSON, otherwise as text on stderr. The
// returned closer releases the log file.
func SetupLogging(cfg LogConfig) (io.Closer, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Path == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
		return nopCloser{}, nil
	}

	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, errors.Wrap(err, "create log file")
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(f, opts)))

	return f, nil
}
