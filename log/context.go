package log

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type loggerKey struct{}

var ErrDuplicateLogger = errors.New("duplicate logger in context")

// NewContext stores logger in ctx. Its zerolog logger is attached too, so
// zerolog.Ctx(ctx) works for packages that only know zerolog.
func NewContext(ctx context.Context, logger *Logger) (context.Context, error) {
	if _, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return nil, ErrDuplicateLogger
	}

	ctx = context.WithValue(ctx, loggerKey{}, logger)
	return logger.Zerolog().WithContext(ctx), nil
}

// NewContextByConfig builds a logger from cfg and stores it in ctx.
func NewContextByConfig(ctx context.Context, cfg *Config) (context.Context, error) {
	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "new logger")
	}

	return NewContext(ctx, logger)
}

// FromContext returns the logger stored in ctx or nil.
func FromContext(ctx context.Context) *Logger {
	logger, _ := ctx.Value(loggerKey{}).(*Logger)
	return logger
}

// ComponentLogger returns a zerolog logger for the named component. It uses
// the Logger from ctx, falling back to zerolog.Ctx which is a disabled
// logger when nothing is stored.
func ComponentLogger(ctx context.Context, name string, fields ...*Field) *zerolog.Logger {
	if logger := FromContext(ctx); logger != nil {
		return logger.GetLogger(name, fields...)
	}

	return withFields(zerolog.Ctx(ctx).With().Str("component", name), fields)
}
