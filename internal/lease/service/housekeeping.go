package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/metrics"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/aussiebroadwan/leasekeeper/pkg/clockx"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
)

// DefaultHousekeepingInterval is used when Housekeeper.Interval is unset.
const DefaultHousekeepingInterval = time.Hour

// Housekeeper removes tokens that expired without being redeemed and revokes
// their invitation links.
type Housekeeper struct {
	Store    store.Store
	Gateway  gateway.Gateway
	Clock    clockx.Clock
	Metrics  *metrics.Metrics
	GroupID  int64
	Interval time.Duration
}

// Run cleans up once immediately and then every Interval until ctx is
// cancelled. It always returns nil.
func (h *Housekeeper) Run(ctx context.Context) error {
	interval := h.Interval
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}
	ctx = slogx.With(ctx, slog.String("worker", "housekeeping"))
	log := slogx.FromContext(ctx)
	log.Info("housekeeping started", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		h.Cleanup(ctx)

		select {
		case <-ctx.Done():
			log.Info("housekeeping stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Cleanup deletes every expired token and returns how many went. A failed
// revoke is logged and the token is deleted anyway; a failed delete leaves
// it for the next pass.
func (h *Housekeeper) Cleanup(ctx context.Context) int {
	log := slogx.FromContext(ctx)
	now := clockx.Or(h.Clock)()

	expired, err := h.Store.Tokens().ListExpiredTokens(ctx, now)
	if err != nil {
		log.Error("list expired tokens", slog.Any("error", err))
		return 0
	}
	if len(expired) == 0 {
		log.Debug("no expired tokens")
		return 0
	}

	deleted := 0
	for _, t := range expired {
		tlog := log.With(slog.String("handle", t.Handle), slog.Time("valid_until", t.ValidUntil))

		if err := h.Gateway.RevokeInvitation(ctx, h.GroupID, t.Handle); err != nil {
			tlog.Warn("revoke expired invitation", slog.Any("error", err))
		}
		if err := h.Store.Tokens().DeleteToken(ctx, t.Handle); err != nil {
			tlog.Error("delete expired token", slog.Any("error", err))
			continue
		}
		h.Metrics.TokenExpired()
		deleted++
	}

	log.Info("expired tokens removed", slog.Int("expired", len(expired)), slog.Int("deleted", deleted))
	return deleted
}
