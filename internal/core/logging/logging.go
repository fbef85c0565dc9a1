// Package logging configures zerolog and carries loggers through contexts.
package logging

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type loggerKey struct{}

// New returns a logger writing to out, either as JSON lines or through a
// console writer.
func New(out io.Writer, level zerolog.Level, json bool) zerolog.Logger {
	if json {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}
	writer := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	writer.PartsOrder = []string{
		zerolog.TimestampFieldName,
		zerolog.LevelFieldName,
		"task",
		zerolog.MessageFieldName,
	}
	writer.FieldsExclude = []string{"task"}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, &logger)
}

// Log returns the logger stored in ctx, or the global zerolog logger.
func Log(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &log.Logger
	}
	logger, ok := ctx.Value(loggerKey{}).(*zerolog.Logger)
	if !ok || logger == nil {
		return &log.Logger
	}
	return logger
}

// WithTask returns a context whose logger tags every event with task.
func WithTask(ctx context.Context, task string) context.Context {
	return WithLogger(ctx, Log(ctx).With().Str("task", task).Logger())
}
