package infra

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel maps a config string to a slog level. Unknown values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// NewLogger builds the application logger. When file logging is enabled,
// output is teed into a rotating file under workDir.
// The returned closer flushes and closes the file writer.
func NewLogger(cfg *Config, workDir string, stderr io.Writer) (*slog.Logger, func() error) {
	if stderr == nil {
		stderr = os.Stderr
	}

	out := stderr
	closer := func() error { return nil }

	if cfg.Logging.File {
		rotator := &lumberjack.Logger{
			Filename:   LogPath(workDir),
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(stderr, rotator)
		closer = rotator.Close
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Logging.Level)}

	var h slog.Handler
	if strings.EqualFold(cfg.Logging.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}

	return slog.New(h).With(slog.String("app", cfg.App.Name)), closer
}
