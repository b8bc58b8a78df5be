package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

func WithRequestID(ctx context.Context, reqID string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("req_id", reqID))
}

// WithUser attaches the resolved user and organization ids to the contextual
// logger so downstream handlers log them without re-resolving.
func WithUser(ctx context.Context, userID, organizationID string) context.Context {
	l := FromContext(ctx).With("user_id", userID)
	if organizationID != "" {
		l = l.With("organization_id", organizationID)
	}
	return WithContext(ctx, l)
}
