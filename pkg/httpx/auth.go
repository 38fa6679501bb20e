package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/leasekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Error codes written by the auth middlewares (RFC 6750).
const (
	ErrCodeInvalidToken      = "invalid_token"
	ErrCodeInsufficientScope = "insufficient_scope"
)

// AuthnMiddleware requires a valid admin bearer token and stores its claims
// in the request context.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				slogx.FromContext(ctx).Warn("admin token rejected", "error", err)
				writeUnauthorized(w, "token verification failed")
				return
			}

			trace.SpanFromContext(ctx).SetAttributes(attribute.String("enduser.id", claims.Subject))
			ctx = WithClaims(ctx, claims)
			ctx = slogx.With(ctx, "operator", claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAnyScope lets the request through when the caller holds at least
// one of scopes. It must run after AuthnMiddleware.
func RequireAnyScope(scopes ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := ClaimsFromContext(r.Context())
			for _, s := range scopes {
				if claims.HasScope(s) {
					next.ServeHTTP(w, r)
					return
				}
			}

			want := strings.Join(scopes, " ")
			w.Header().Set("WWW-Authenticate", `Bearer error="`+ErrCodeInsufficientScope+`", scope="`+want+`"`)
			WriteError(w, http.StatusForbidden, ErrCodeInsufficientScope, "requires one of: "+want)
		})
	}
}

// bearerToken extracts the credentials of an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="`+ErrCodeInvalidToken+`", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, ErrCodeInvalidToken, desc)
}
