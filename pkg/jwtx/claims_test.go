package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/leasekeeper/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestNewAdminClaims(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	c := jwtx.NewAdminClaims("ops", []string{jwtx.ScopeAdminRead}, time.Hour, "leasekeeper", now)

	require.Equal(t, "ops", c.Subject)
	require.Equal(t, "leasekeeper", c.Issuer)
	require.Equal(t, now.Add(time.Hour).Unix(), c.ExpiresAt.Unix())
	require.Equal(t, now.Unix(), c.NotBefore.Unix())
	require.NotEmpty(t, c.ID)

	other := jwtx.NewAdminClaims("ops", nil, time.Hour, "leasekeeper", now)
	require.NotEqual(t, c.ID, other.ID)
}

func TestHasScope(t *testing.T) {
	c := jwtx.NewAdminClaims("ops", []string{jwtx.ScopeAdminRead}, time.Minute, "leasekeeper", time.Now())

	require.True(t, c.HasScope(jwtx.ScopeAdminRead))
	require.False(t, c.HasScope(jwtx.ScopeAdminWrite))
}
