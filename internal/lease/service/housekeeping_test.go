package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingCleanup(t *testing.T) {
	h := newHarness(t)
	h.putToken(t, "expired", 30, testNow.Add(-time.Hour))
	h.putToken(t, "boundary", 30, testNow)
	h.putToken(t, "live", 30, testNow.Add(time.Hour))
	h.gw.Fail("RevokeInvitation", errors.New("already gone"))

	hk := &Housekeeper{
		Store:   h.store,
		Gateway: h.gw,
		Clock:   h.clock.Clock(),
		GroupID: testGroup,
	}

	require.Equal(t, 2, hk.Cleanup(t.Context()))
	require.Len(t, h.gw.CallsTo("RevokeInvitation"), 2)

	_, err := h.store.Tokens().GetToken(t.Context(), "expired")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = h.store.Tokens().GetToken(t.Context(), "boundary")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = h.store.Tokens().GetToken(t.Context(), "live")
	require.NoError(t, err)

	require.Zero(t, hk.Cleanup(t.Context()))
}

func TestHousekeepingRun(t *testing.T) {
	h := newHarness(t)
	h.putToken(t, "expired", 30, testNow.Add(-time.Hour))

	hk := &Housekeeper{
		Store:   h.store,
		Gateway: h.gw,
		Clock:   h.clock.Clock(),
		GroupID: testGroup,
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- hk.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(h.gw.CallsTo("RevokeInvitation")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("housekeeping did not stop")
	}
}
