package service

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway/gatewaytest"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store/drivers/sqlite"
	"github.com/aussiebroadwan/leasekeeper/pkg/clockx"
	"github.com/stretchr/testify/require"
)

const testGroup = int64(-100500)

var testNow = time.Unix(1_760_000_000, 0).UTC()

type harness struct {
	store store.Store
	gw    *gatewaytest.Fake
	clock *clockx.Manual
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	return &harness{
		store: s,
		gw:    gatewaytest.New(),
		clock: clockx.NewManual(testNow),
	}
}

func (h *harness) tokens() *TokenService {
	return &TokenService{Store: h.store, Gateway: h.gw, Clock: h.clock.Clock(), GroupID: testGroup}
}

func (h *harness) admission() *AdmissionService {
	return &AdmissionService{Store: h.store, Gateway: h.gw, Clock: h.clock.Clock(), GroupID: testGroup}
}

func (h *harness) renewal() *RenewalService {
	return &RenewalService{Store: h.store, Gateway: h.gw, Clock: h.clock.Clock()}
}

func (h *harness) sweeper() *Sweeper {
	return &Sweeper{Store: h.store, Gateway: h.gw, Clock: h.clock.Clock(), GroupID: testGroup}
}

func (h *harness) putToken(t *testing.T, handle string, planDays int, validUntil time.Time) {
	t.Helper()
	require.NoError(t, h.store.Tokens().CreateToken(t.Context(), domain.Token{
		Handle:     handle,
		PlanDays:   planDays,
		ValidUntil: validUntil,
		CreatedBy:  "admin",
		CreatedAt:  h.clock.Now(),
	}))
}

func (h *harness) putSubscription(t *testing.T, principal int64, name string, expiresAt time.Time) domain.Subscription {
	t.Helper()
	sub, err := h.store.Subscriptions().UpsertSubscription(t.Context(), domain.Subscription{
		PrincipalID: principal,
		DisplayName: name,
		GrantedAt:   expiresAt.Add(-30 * domain.Day),
		ExpiresAt:   expiresAt,
		UpdatedAt:   h.clock.Now(),
	})
	require.NoError(t, err)
	return sub
}

func join(principal int64, handle string) domain.JoinSignal {
	return domain.JoinSignal{
		GroupID:     testGroup,
		PrincipalID: principal,
		DisplayName: "user",
		Handle:      handle,
	}
}
