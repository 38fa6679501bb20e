package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/stretchr/testify/require"
)

func TestExtend(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()

	t.Run("before expiry extends from expiry", func(t *testing.T) {
		expires := now.Add(3 * domain.Day)
		require.Equal(t, expires.Add(10*domain.Day), domain.Extend(expires, now, 10))
	})

	t.Run("after expiry extends from now", func(t *testing.T) {
		expires := now.Add(-3 * domain.Day)
		require.Equal(t, now.Add(10*domain.Day), domain.Extend(expires, now, 10))
	})

	t.Run("exactly at expiry", func(t *testing.T) {
		require.Equal(t, now.Add(domain.Day), domain.Extend(now, now, 1))
	})
}

func TestSubscriptionStatus(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()

	require.Equal(t, domain.StatusActive, domain.Subscription{ExpiresAt: now}.Status(now))
	require.Equal(t, domain.StatusLapsed, domain.Subscription{ExpiresAt: now.Add(-time.Second)}.Status(now))
}

func TestTokenRedeemable(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	tok := domain.Token{ValidUntil: now}

	require.False(t, tok.Redeemable(now))
	require.True(t, tok.Redeemable(now.Add(-time.Second)))
}

func TestPermissionsSufficient(t *testing.T) {
	require.True(t, domain.Permissions{Status: "creator"}.Sufficient())
	require.True(t, domain.Permissions{Status: "administrator", CanInviteUsers: true, CanRestrictMembers: true}.Sufficient())
	require.False(t, domain.Permissions{Status: "administrator", CanInviteUsers: true}.Sufficient())
	require.False(t, domain.Permissions{Status: "member", CanInviteUsers: true, CanRestrictMembers: true}.Sufficient())
}
