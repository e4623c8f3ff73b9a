package auth

import (
	"context"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
)

type callerKey struct{}

func WithCaller(ctx context.Context, c domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored by the auth middleware.
func CallerFrom(ctx context.Context) (domain.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(domain.Caller)
	return c, ok
}
