package leasesdk_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/leasekeeper/pkg/leasesdk"
	"github.com/stretchr/testify/require"
)

func TestIssueToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/tokens", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req leasesdk.IssueTokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, 30, req.PlanDays)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(leasesdk.TokenResponse{Handle: "https://t.me/+x", PlanDays: 30})
	}))
	defer srv.Close()

	c := leasesdk.NewClient(srv.URL+"/", "secret")
	tok, err := c.IssueToken(t.Context(), leasesdk.IssueTokenRequest{PlanDays: 30})
	require.NoError(t, err)
	require.Equal(t, "https://t.me/+x", tok.Handle)
}

func TestRenewEscapesRef(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/subscriptions/@ana smith/renew", r.URL.Path)
		_ = json.NewEncoder(w).Encode(leasesdk.SubscriptionResponse{PrincipalID: 42, Status: "active"})
	}))
	defer srv.Close()

	sub, err := leasesdk.NewClient(srv.URL, "t").Renew(t.Context(), "@ana smith", 5)
	require.NoError(t, err)
	require.Equal(t, int64(42), sub.PrincipalID)
}

func TestAPIErrors(t *testing.T) {
	t.Run("json body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(leasesdk.ErrorResponse{
				Error:            leasesdk.ErrorCodeGateway,
				ErrorDescription: "telegram unavailable",
			})
		}))
		defer srv.Close()

		_, err := leasesdk.NewClient(srv.URL, "t").Sweep(t.Context())
		var apiErr *leasesdk.APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		require.Equal(t, leasesdk.ErrorCodeGateway, apiErr.Code)
		require.Equal(t, "telegram unavailable", apiErr.Description)
	})

	t.Run("plain text body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("invalid_token\n"))
		}))
		defer srv.Close()

		_, err := leasesdk.NewClient(srv.URL, "t").ListTokens(t.Context())
		var apiErr *leasesdk.APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		require.Equal(t, "invalid_token", apiErr.Description)
	})
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(leasesdk.HealthResponse{Status: "ok"})
	}))
	defer srv.Close()

	h, err := leasesdk.NewClient(srv.URL, "").GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", h.Status)
}
