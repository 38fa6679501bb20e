package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/leasekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/leasekeeper/pkg/httpx"
	"github.com/aussiebroadwan/leasekeeper/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestAuthnAndScopes(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("admin", pemKey)
	require.NoError(t, err)
	verifier := jwtx.NewVerifierFromSigner(signer, "leasekeeper", nil)

	mint := func(scopes ...string) string {
		tok, err := signer.Sign(jwtx.NewAdminClaims("ops", scopes, time.Minute, "leasekeeper", time.Now()))
		require.NoError(t, err)
		return tok
	}

	var subject string
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = httpx.SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), httpx.AuthnMiddleware(verifier), httpx.RequireAnyScope(jwtx.ScopeAdminWrite))

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/sweeps", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing token", func(t *testing.T) {
		rec := call("")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("garbage token", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, call("Bearer nope").Code)
	})

	t.Run("insufficient scope", func(t *testing.T) {
		rec := call("Bearer " + mint(jwtx.ScopeAdminRead))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "insufficient_scope")
	})

	t.Run("allowed", func(t *testing.T) {
		rec := call("Bearer " + mint(jwtx.ScopeAdminWrite))
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "ops", subject)
	})

	t.Run("scheme is case insensitive", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, call("bearer "+mint(jwtx.ScopeAdminWrite)).Code)
	})

	t.Run("error body", func(t *testing.T) {
		rec := call("Basic b3BzOnB3")

		var body httpx.ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, httpx.ErrCodeInvalidToken, body.Error)
		require.Equal(t, "missing bearer token", body.ErrorDescription)
	})
}
