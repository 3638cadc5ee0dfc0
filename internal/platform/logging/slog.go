package logging

import (
	"context"
	"log/slog"

	"go.uber.org/zap/zapcore"
)

// NewSlog wraps a Logger in the standard library slog front so packages can
// keep the *slog.Logger signature while records still flow through the zap
// cores and the mirror.
func NewSlog(logger *Logger) *slog.Logger {
	if logger == nil {
		logger = Default()
	}
	return slog.New(&slogBridge{logger: logger})
}

type slogBridge struct {
	logger *Logger
	attrs  []any
	group  string
}

func (b *slogBridge) Enabled(_ context.Context, level slog.Level) bool {
	return b.logger.Zap().Core().Enabled(toZapLevel(level))
}

func (b *slogBridge) Handle(ctx context.Context, record slog.Record) error {
	args := make([]any, 0, len(b.attrs)+record.NumAttrs()*2)
	args = append(args, b.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		args = append(args, b.qualify(attr.Key), attr.Value.Resolve().Any())
		return true
	})

	b.logger.logContext(ctx, toZapLevel(record.Level), record.Message, args...)
	return nil
}

func (b *slogBridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &slogBridge{
		logger: b.logger,
		attrs:  append([]any(nil), b.attrs...),
		group:  b.group,
	}
	for _, attr := range attrs {
		next.attrs = append(next.attrs, next.qualify(attr.Key), attr.Value.Resolve().Any())
	}
	return next
}

func (b *slogBridge) WithGroup(name string) slog.Handler {
	if name == "" {
		return b
	}
	group := name
	if b.group != "" {
		group = b.group + "." + name
	}
	return &slogBridge{
		logger: b.logger,
		attrs:  append([]any(nil), b.attrs...),
		group:  group,
	}
}

func (b *slogBridge) qualify(key string) string {
	if b.group == "" {
		return key
	}
	return b.group + "." + key
}

func toZapLevel(level slog.Level) zapcore.Level {
	switch {
	case level < slog.LevelInfo:
		return zapcore.DebugLevel
	case level < slog.LevelWarn:
		return zapcore.InfoLevel
	case level < slog.LevelError:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
