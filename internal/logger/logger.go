package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging surface used across the service.
// Each call carries a message, an event key and a field map rendered under that key.
type Logger interface {
	DebugObj(msg, key string, fields map[string]any)
	InfoObj(msg, key string, fields map[string]any)
	WarnObj(msg, key string, fields map[string]any)
	ErrorObj(msg, key string, fields map[string]any)
	Sync() error
}

// Options controls logger construction.
type Options struct {
	Level  string
	Format string // "json" or "console"
}

type zapLogger struct {
	z *zap.Logger
}

// New builds a zap backed Logger.
func New(opts Options) (Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if strings.EqualFold(strings.TrimSpace(opts.Format), "console") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &zapLogger{z: z}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) Logger {
	if z == nil {
		return NopLogger{}
	}
	return &zapLogger{z: z}
}

func parseLevel(raw string) (zapcore.Level, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return lvl, nil
}

func (l *zapLogger) DebugObj(msg, key string, fields map[string]any) {
	l.z.Debug(msg, obj(key, fields))
}

func (l *zapLogger) InfoObj(msg, key string, fields map[string]any) {
	l.z.Info(msg, obj(key, fields))
}

func (l *zapLogger) WarnObj(msg, key string, fields map[string]any) {
	l.z.Warn(msg, obj(key, fields))
}

func (l *zapLogger) ErrorObj(msg, key string, fields map[string]any) {
	l.z.Error(msg, obj(key, fields))
}

func (l *zapLogger) Sync() error { return l.z.Sync() }

func obj(key string, fields map[string]any) zap.Field {
	if key == "" {
		key = "details"
	}
	return zap.Any(key, fields)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) DebugObj(string, string, map[string]any) {}
func (NopLogger) InfoObj(string, string, map[string]any)  {}
func (NopLogger) WarnObj(string, string, map[string]any)  {}
func (NopLogger) ErrorObj(string, string, map[string]any) {}
func (NopLogger) Sync() error                             { return nil }
