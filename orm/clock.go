package orm

import (
	"context"
	"time"
)

// Clock supplies the time written to created_at, updated_at and
// deleted_at.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// FixedClock always reports t.
func FixedClock(t time.Time) Clock { return ClockFunc(func() time.Time { return t }) }

type clockKey struct{}

// WithClock returns a context whose writes are stamped by c.
func WithClock(ctx context.Context, c Clock) context.Context {
	return context.WithValue(ctx, clockKey{}, c)
}

func now(ctx context.Context) time.Time {
	if c, ok := ctx.Value(clockKey{}).(Clock); ok {
		return c.Now()
	}
	return time.Now()
}
