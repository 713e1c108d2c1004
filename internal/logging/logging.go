package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config controls where logs go and when the file rolls over.
type Config struct {
	// Level is the minimum level recorded: debug, info, warn, error.
	Level string
	// FilePath is the log file. Rotated copies live beside it.
	FilePath string
	// MaxSizeMB is the file size that triggers rotation.
	MaxSizeMB int
	// MaxFiles is how many rotated copies are kept.
	MaxFiles int
	// WriteToStderr mirrors every record to stderr for interactive runs.
	WriteToStderr bool
}

// DefaultConfig returns the standard file-logging setup: info level,
// 10 MB files, 5 rotations, stderr mirroring on.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// Setup opens the rotating log file and builds a JSON slog logger on it.
// The returned cleanup flushes and closes the file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, nil, err
	}

	w, err := newRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var sink io.Writer = w
	if cfg.WriteToStderr {
		sink = io.MultiWriter(w, os.Stderr)
	}

	handler := slog.NewJSONHandler(sink, &slog.HandlerOptions{
		Level: LevelFromString(cfg.Level),
	})

	cleanup := func() {
		_ = w.Sync()
		_ = w.Close()
	}
	return slog.New(handler), cleanup, nil
}

// LevelFromString maps a level name to its slog level. Unknown names get
// info, the same default slog itself uses.
func LevelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
