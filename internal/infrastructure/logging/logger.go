package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/lumicore/internal/infrastructure/config"
)

// serviceName is attached to every log entry.
const serviceName = "lumicore"

// Logger is the process logger: a slog.Logger that stamps every entry with
// the service name and build version.
//
// Its Debug/Info/Warn/Error methods satisfy the Logger interfaces declared
// by the param, device, sinks and mqtt packages, so a *Logger can be passed
// to any of them. It is safe for concurrent use.
type Logger struct {
	*slog.Logger
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// parseLevel maps a configured level name to a slog level. Unknown names
// log at info.
func parseLevel(name string) slog.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(name))]; ok {
		return l
	}
	return slog.LevelInfo
}

// writerFor resolves logging.output. "discard" silences the logger.
func writerFor(output string) io.Writer {
	switch strings.ToLower(output) {
	case "stderr":
		return os.Stderr
	case "discard":
		return io.Discard
	default:
		return os.Stdout
	}
}

// utcTime rewrites the entry timestamp to UTC so that logs from rigs in
// different time zones sort together.
func utcTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.TimeValue(a.Value.Time().UTC())
	}
	return a
}

// New creates a Logger for the output named in cfg.
//
// Parameters:
//   - cfg: Logging section of the configuration
//   - version: Build version stamped on every entry
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	return NewWithWriter(cfg, version, writerFor(cfg.Output))
}

// NewWithWriter creates a Logger writing to w. cfg.Output is ignored.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: utcTime,
	}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{slog.New(handler).With("service", serviceName, "version", version)}
}

// Component returns a Logger whose entries carry component=name, e.g.
// log.Component("registry").
func (l *Logger) Component(name string) *Logger {
	return &Logger{l.Logger.With("component", name)}
}

// Default is the logger used before configuration is loaded: JSON on
// stdout at info level.
func Default() *Logger {
	return NewWithWriter(config.LoggingConfig{}, "dev", os.Stdout)
}
