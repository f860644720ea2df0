// Package logger is the zerolog wrapper used by the inspectors, the CLI and
// the HTTP server.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger. A nil *Logger is valid and discards everything.
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level      string // debug, info, warn, error, disabled
	Format     string // json, console
	TimeFormat string // rfc3339, unix, unixms
	Output     io.Writer
}

// DefaultConfig logs info and above as JSON to stderr. Stdout is left to
// command output.
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "json",
		TimeFormat: "rfc3339",
		Output:     os.Stderr,
	}
}

// New builds a Logger. The level is applied per logger, not globally, so
// several loggers with different levels can coexist in one process.
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	zerolog.TimeFieldFormat = timeFormat(cfg.TimeFormat)

	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zlog := zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().Timestamp().Logger()

	return &Logger{zlog: zlog}
}

// Nop returns a Logger that writes nothing.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// WithContext stores the logger in ctx.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.get().WithContext(ctx)
}

// FromContext returns the logger stored in ctx, or a Nop logger.
func FromContext(ctx context.Context) *Logger {
	zlog := zerolog.Ctx(ctx)
	if zlog.GetLevel() == zerolog.Disabled {
		return Nop()
	}
	return &Logger{zlog: *zlog}
}

// With starts a child logger carrying extra fields.
func (l *Logger) With() *Fields {
	return &Fields{ctx: l.get().With()}
}

// Fields chains fields onto a child logger.
type Fields struct {
	ctx zerolog.Context
}

func (f *Fields) Str(key, val string) *Fields {
	f.ctx = f.ctx.Str(key, val)
	return f
}

func (f *Fields) Strs(key string, vals []string) *Fields {
	f.ctx = f.ctx.Strs(key, vals)
	return f
}

func (f *Fields) Int(key string, val int) *Fields {
	f.ctx = f.ctx.Int(key, val)
	return f
}

func (f *Fields) Err(err error) *Fields {
	f.ctx = f.ctx.Err(err)
	return f
}

func (f *Fields) Logger() *Logger {
	return &Logger{zlog: f.ctx.Logger()}
}

func (l *Logger) Debug(msg string) { l.get().Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.get().Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.get().Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.get().Error().Msg(msg) }

func (l *Logger) Debugf(format string, args ...any) { l.get().Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.get().Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.get().Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.get().Error().Msgf(format, args...) }

// DebugWith logs msg with a set of fields at debug level.
func (l *Logger) DebugWith(msg string, fields map[string]any) {
	event := l.get().Debug()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// ErrorWith logs msg with err and a set of fields at error level.
func (l *Logger) ErrorWith(msg string, err error, fields map[string]any) {
	event := l.get().Error().Err(err)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// Event exposes a raw zerolog event at the given level, for call sites that
// build many typed fields (request logging).
func (l *Logger) Event(level zerolog.Level) *zerolog.Event {
	return l.get().WithLevel(level)
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level zerolog.Level) bool {
	zlog := l.get()
	return zlog.GetLevel() <= level && level != zerolog.Disabled && zlog.GetLevel() != zerolog.Disabled
}

func (l *Logger) get() *zerolog.Logger {
	if l == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return &l.zlog
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func timeFormat(format string) string {
	switch format {
	case "unix":
		return zerolog.TimeFormatUnix
	case "unixms":
		return zerolog.TimeFormatUnixMs
	case "unixmicro":
		return zerolog.TimeFormatUnixMicro
	default:
		return time.RFC3339
	}
}
