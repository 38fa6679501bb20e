package httpx

import (
	"context"

	"github.com/aussiebroadwan/leasekeeper/pkg/jwtx"
)

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying verified bearer claims.
func WithClaims(ctx context.Context, c jwtx.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the verified bearer claims, if any.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(jwtx.Claims)
	return c, ok
}

// SubjectFromContext returns the authenticated operator, or "" outside the
// admin API.
func SubjectFromContext(ctx context.Context) string {
	c, _ := ClaimsFromContext(ctx)
	return c.Subject
}
