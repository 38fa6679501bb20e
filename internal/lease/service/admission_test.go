package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway/gatewaytest"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	t.Run("valid token admits and is consumed", func(t *testing.T) {
		h := newHarness(t)
		h.putToken(t, "abc", 30, testNow.Add(48*time.Hour))

		got, err := h.admission().Decide(t.Context(), join(42, "abc"))
		require.NoError(t, err)
		require.Equal(t, domain.DecisionAdmitted, got.Decision)
		require.Equal(t, testNow.Add(30*domain.Day).Unix(), got.Subscription.ExpiresAt.Unix())

		_, err = h.store.Tokens().GetToken(t.Context(), "abc")
		require.ErrorIs(t, err, store.ErrNotFound)

		sub, err := h.store.Subscriptions().GetSubscription(t.Context(), 42)
		require.NoError(t, err)
		require.Equal(t, testNow.Unix(), sub.GrantedAt.Unix())

		require.Len(t, h.gw.CallsTo("ApproveJoin"), 1)
		revoked := h.gw.CallsTo("RevokeInvitation")
		require.Len(t, revoked, 1)
		require.Equal(t, "abc", revoked[0].Handle)
		require.Len(t, h.gw.CallsTo("NotifyPrincipal"), 1)
	})

	t.Run("same token twice admits then declines", func(t *testing.T) {
		h := newHarness(t)
		h.putToken(t, "abc", 7, testNow.Add(48*time.Hour))
		svc := h.admission()

		first, err := svc.Decide(t.Context(), join(42, "abc"))
		require.NoError(t, err)
		require.Equal(t, domain.DecisionAdmitted, first.Decision)
		require.Equal(t, testNow.Add(7*domain.Day).Unix(), first.Subscription.ExpiresAt.Unix())

		second, err := svc.Decide(t.Context(), join(43, "abc"))
		require.NoError(t, err)
		require.Equal(t, domain.DecisionDeclined, second.Decision)

		_, err = h.store.Subscriptions().GetSubscription(t.Context(), 43)
		require.ErrorIs(t, err, store.ErrNotFound)
		require.Len(t, h.gw.CallsTo("DeclineJoin"), 1)
	})

	t.Run("unknown or expired handle declines without mutation", func(t *testing.T) {
		h := newHarness(t)
		h.putToken(t, "old", 30, testNow.Add(-time.Minute))
		before := h.putSubscription(t, 42, "user", testNow.Add(5*domain.Day))

		for _, handle := range []string{"nope", "old", ""} {
			got, err := h.admission().Decide(t.Context(), join(42, handle))
			require.NoError(t, err)
			require.Equal(t, domain.DecisionDeclined, got.Decision, handle)
		}

		after, err := h.store.Subscriptions().GetSubscription(t.Context(), 42)
		require.NoError(t, err)
		require.Equal(t, before.ExpiresAt.Unix(), after.ExpiresAt.Unix())

		// Expired tokens are left for housekeeping.
		_, err = h.store.Tokens().GetToken(t.Context(), "old")
		require.NoError(t, err)
		require.Empty(t, h.gw.CallsTo("ApproveJoin"))
	})

	t.Run("other group is ignored", func(t *testing.T) {
		h := newHarness(t)
		h.putToken(t, "abc", 30, testNow.Add(time.Hour))

		sig := join(42, "abc")
		sig.GroupID = 999
		got, err := h.admission().Decide(t.Context(), sig)
		require.NoError(t, err)
		require.Equal(t, domain.DecisionIgnored, got.Decision)
		require.Empty(t, h.gw.Calls())

		_, err = h.store.Tokens().GetToken(t.Context(), "abc")
		require.NoError(t, err)
	})

	t.Run("approve failure rolls back and keeps token", func(t *testing.T) {
		h := newHarness(t)
		h.putToken(t, "abc", 30, testNow.Add(time.Hour))
		h.gw.Fail("ApproveJoin", errors.New("telegram down"))

		_, err := h.admission().Decide(t.Context(), join(42, "abc"))
		require.ErrorIs(t, err, ErrGateway)

		_, err = h.store.Tokens().GetToken(t.Context(), "abc")
		require.NoError(t, err)
		_, err = h.store.Subscriptions().GetSubscription(t.Context(), 42)
		require.ErrorIs(t, err, store.ErrNotFound)
		require.Empty(t, h.gw.CallsTo("RevokeInvitation"))

		// Once the gateway recovers the same token still works.
		h.gw.Fail("ApproveJoin", nil)
		got, err := h.admission().Decide(t.Context(), join(42, "abc"))
		require.NoError(t, err)
		require.Equal(t, domain.DecisionAdmitted, got.Decision)
	})

	t.Run("approve failure restores the previous lease", func(t *testing.T) {
		h := newHarness(t)
		before := h.putSubscription(t, 42, "old name", testNow.Add(3*domain.Day))
		_, err := h.store.Subscriptions().MarkSubscriptionReminded(t.Context(), 42, before.ExpiresAt, testNow)
		require.NoError(t, err)
		h.putToken(t, "abc", 30, testNow.Add(time.Hour))
		h.gw.Fail("ApproveJoin", errors.New("telegram down"))

		_, err = h.admission().Decide(t.Context(), join(42, "abc"))
		require.ErrorIs(t, err, ErrGateway)

		after, err := h.store.Subscriptions().GetSubscription(t.Context(), 42)
		require.NoError(t, err)
		require.Equal(t, "old name", after.DisplayName)
		require.Equal(t, before.ExpiresAt.Unix(), after.ExpiresAt.Unix())
		require.Equal(t, before.ExpiresAt.Unix(), after.RemindedFor.Unix())

		tok, err := h.store.Tokens().GetToken(t.Context(), "abc")
		require.NoError(t, err)
		require.Equal(t, 30, tok.PlanDays)
	})

	t.Run("lease is committed before approval", func(t *testing.T) {
		h := newHarness(t)
		h.putToken(t, "abc", 30, testNow.Add(time.Hour))

		var (
			seenLease bool
			seenToken bool
		)
		h.gw.OnCall = func(c gatewaytest.Call) {
			if c.Method != "ApproveJoin" {
				return
			}
			// Runs outside any transaction: the single sqlite connection
			// must be free and the writes visible.
			_, err := h.store.Subscriptions().GetSubscription(context.Background(), c.Principal)
			seenLease = err == nil
			_, err = h.store.Tokens().GetToken(context.Background(), "abc")
			seenToken = err == nil
		}

		got, err := h.admission().Decide(t.Context(), join(42, "abc"))
		require.NoError(t, err)
		require.Equal(t, domain.DecisionAdmitted, got.Decision)
		require.True(t, seenLease)
		require.False(t, seenToken)
	})

	t.Run("post admission failures do not undo admission", func(t *testing.T) {
		h := newHarness(t)
		h.putToken(t, "abc", 30, testNow.Add(time.Hour))
		h.gw.Fail("RevokeInvitation", errors.New("nope"))
		h.gw.Unreachable[42] = true

		got, err := h.admission().Decide(t.Context(), join(42, "abc"))
		require.NoError(t, err)
		require.Equal(t, domain.DecisionAdmitted, got.Decision)
	})

	t.Run("decline failure is swallowed", func(t *testing.T) {
		h := newHarness(t)
		h.gw.Fail("DeclineJoin", errors.New("nope"))

		got, err := h.admission().Decide(t.Context(), join(42, "nope"))
		require.NoError(t, err)
		require.Equal(t, domain.DecisionDeclined, got.Decision)
	})

	t.Run("readmission overwrites the lease", func(t *testing.T) {
		h := newHarness(t)
		h.putSubscription(t, 42, "old name", testNow.Add(100*domain.Day))
		_, err := h.store.Subscriptions().MarkSubscriptionReminded(t.Context(), 42, testNow.Add(100*domain.Day), testNow)
		require.NoError(t, err)
		h.putToken(t, "abc", 7, testNow.Add(time.Hour))

		got, err := h.admission().Decide(t.Context(), join(42, "abc"))
		require.NoError(t, err)
		require.Equal(t, testNow.Add(7*domain.Day).Unix(), got.Subscription.ExpiresAt.Unix())
		require.True(t, got.Subscription.RemindedFor.IsZero())
		require.Equal(t, "user", got.Subscription.DisplayName)
	})
}

func TestDecideConcurrentRedemption(t *testing.T) {
	h := newHarness(t)
	h.putToken(t, "abc", 30, testNow.Add(time.Hour))
	svc := h.admission()

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := range n {
		wg.Add(1)
		go func(principal int64) {
			defer wg.Done()
			got, err := svc.Decide(t.Context(), join(principal, "abc"))
			if err != nil {
				return
			}
			if got.Decision == domain.DecisionAdmitted {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}(int64(100 + i))
	}
	wg.Wait()

	require.Equal(t, 1, admitted)
	require.Len(t, h.gw.CallsTo("ApproveJoin"), 1)
	require.Len(t, h.gw.CallsTo("DeclineJoin"), n-1)
}

func TestNotifyTreatsUnreachableAsExpected(t *testing.T) {
	h := newHarness(t)
	h.gw.Unreachable[7] = true

	require.False(t, notify(t.Context(), h.gw, 7, "hi"))
	require.True(t, notify(t.Context(), h.gw, 8, "hi"))

	h.gw.Fail("NotifyPrincipal", errors.New("flaky"))
	require.False(t, notify(t.Context(), h.gw, 8, "hi"))
}
