package ctxutil

import (
	"context"

	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
)

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipal returns the authenticated caller, or nil when the request is anonymous.
func GetPrincipal(ctx context.Context) *auth.Principal {
	if ctx == nil {
		return nil
	}
	if p, ok := ctx.Value(principalKey{}).(*auth.Principal); ok {
		return p
	}
	return nil
}
