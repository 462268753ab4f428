package logx

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	SessionIDKey = "session_id"
	TurnIDKey    = "turn_id"
)

// WithSession returns a context whose logger carries the session id.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return with(ctx, SessionIDKey, sessionID)
}

// WithTurn returns a context whose logger carries the turn id.
func WithTurn(ctx context.Context, turnID string) context.Context {
	return with(ctx, TurnIDKey, turnID)
}

// Ctx returns the logger bound to ctx, falling back to the global logger.
func Ctx(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &log.Logger
	}
	l := zerolog.Ctx(ctx)
	if l == nil || l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}

func with(ctx context.Context, key, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if value == "" {
		return ctx
	}
	l := Ctx(ctx).With().Str(key, value).Logger()
	return l.WithContext(ctx)
}
