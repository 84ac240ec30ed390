package orm

import (
	"context"
	"log/slog"
)

type slogLogger struct {
	l     *slog.Logger
	level slog.Level
}

// SlogLogger adapts a *slog.Logger to Logger. Every statement is logged at
// debug level with its SQL text and bound arguments.
//
//	db = db.Debug(orm.SlogLogger(slog.Default()))
func SlogLogger(l *slog.Logger) Logger {
	return slogLogger{l: l, level: slog.LevelDebug}
}

func (s slogLogger) Log(ctx context.Context, query string, args ...any) {
	s.l.LogAttrs(ctx, s.level, "orm: query",
		slog.String("sql", query),
		slog.Any("args", args),
	)
}
