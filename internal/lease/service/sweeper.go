package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/metrics"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/aussiebroadwan/leasekeeper/pkg/clockx"
	"github.com/aussiebroadwan/leasekeeper/pkg/idx"
	"github.com/aussiebroadwan/leasekeeper/pkg/otelx"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Reporter receives the outcome of sweeps that attempted at least one
// eviction.
type Reporter interface {
	ReportSweep(ctx context.Context, result domain.SweepResult) error
}

// Sweeper evicts principals whose lease has lapsed. It never modifies
// subscriptions; a lapsed row stays until it is renewed, re-admitted or
// purged.
type Sweeper struct {
	Store    store.Store
	Gateway  gateway.Gateway
	Clock    clockx.Clock
	Metrics  *metrics.Metrics
	Reporter Reporter
	GroupID  int64

	mu sync.Mutex
}

// Sweep runs one pass. Concurrent callers queue behind each other. A failed
// eviction is logged and counted but does not stop the pass; the error
// return is reserved for being unable to read the store at all.
func (s *Sweeper) Sweep(ctx context.Context) (domain.SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clock := clockx.Or(s.Clock)
	now := clock()
	result := domain.SweepResult{
		RunID:     idx.NewAt(now),
		StartedAt: now,
	}

	ctx, span := otelx.Tracer().Start(ctx, "sweeper.sweep")
	defer span.End()
	span.SetAttributes(attribute.String("sweep.run_id", result.RunID))

	ctx = slogx.With(ctx, slog.String("run_id", result.RunID))
	log := slogx.FromContext(ctx)
	log.Info("sweep started")

	subs, err := s.Store.Subscriptions().ListSubscriptions(ctx)
	if err != nil {
		log.Error("failed to list subscriptions", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "list subscriptions")
		return result, err
	}

	for _, sub := range subs {
		if !sub.Lapsed(now) {
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Warn("sweep interrupted", slog.Any("error", err))
			break
		}

		// The list is a snapshot; a renewal may have landed since.
		current, err := s.Store.Subscriptions().GetSubscription(ctx, sub.PrincipalID)
		if errors.Is(err, store.ErrNotFound) {
			log.Info("subscription gone before eviction, skipping",
				slog.Int64("principal_id", sub.PrincipalID),
			)
			continue
		}
		if err != nil {
			log.Error("failed to re-read subscription",
				slog.Int64("principal_id", sub.PrincipalID),
				slog.Any("error", err),
			)
			result.Failed = append(result.Failed, sub.PrincipalID)
			continue
		}
		if !current.Lapsed(now) {
			log.Info("subscription renewed during sweep, skipping",
				slog.Int64("principal_id", sub.PrincipalID),
				slog.Time("expires_at", current.ExpiresAt),
			)
			continue
		}
		sub = current

		if err := s.Gateway.EvictMember(ctx, s.GroupID, sub.PrincipalID); err != nil {
			log.Error("eviction failed",
				slog.Int64("principal_id", sub.PrincipalID),
				slog.Any("error", err),
			)
			result.Failed = append(result.Failed, sub.PrincipalID)
			s.Metrics.Eviction(false)
			continue
		}

		log.Info("principal evicted",
			slog.Int64("principal_id", sub.PrincipalID),
			slog.String("display_name", sub.DisplayName),
			slog.Time("expired_at", sub.ExpiresAt),
		)
		result.Evicted = append(result.Evicted, sub.PrincipalID)
		s.Metrics.Eviction(true)
	}

	result.Duration = clock().Sub(now)
	s.Metrics.SweepDuration(result.Duration)
	span.SetAttributes(
		attribute.Int("sweep.evicted", len(result.Evicted)),
		attribute.Int("sweep.failed", len(result.Failed)),
	)
	log.Info("sweep completed",
		slog.Int("evicted", len(result.Evicted)),
		slog.Int("failed", len(result.Failed)),
		slog.Duration("duration", result.Duration),
	)

	if s.Reporter != nil && result.Attempted() > 0 {
		if err := s.Reporter.ReportSweep(ctx, result); err != nil {
			log.Warn("failed to send sweep report", slog.Any("error", err))
		}
	}

	return result, nil
}
