package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/metrics"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/aussiebroadwan/leasekeeper/pkg/clockx"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
)

type RenewalService struct {
	Store   store.Store
	Gateway gateway.Gateway
	Clock   clockx.Clock
	Metrics *metrics.Metrics
}

// Renew extends the lease named by ref by addDays. ref is a principal id
// or a display name, optionally prefixed with "@". The new expiry is
// max(expires_at, now) + addDays, so renewing never shortens a lease.
func (s *RenewalService) Renew(ctx context.Context, ref string, addDays int) (domain.Subscription, error) {
	log := slogx.FromContext(ctx)

	if addDays <= 0 {
		return domain.Subscription{}, fmt.Errorf("%w: days must be positive", ErrInvalidArgument)
	}

	principal, err := s.resolve(ctx, ref)
	if err != nil {
		log.Warn("renewal target not resolved", slog.String("ref", ref), slog.Any("error", err))
		return domain.Subscription{}, err
	}

	now := clockx.Or(s.Clock)()
	sub, err := s.Store.Subscriptions().ExtendSubscription(ctx, principal, now, domain.PlanDuration(addDays))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Subscription{}, fmt.Errorf("%w: no subscription for %d", ErrNotFound, principal)
		}
		log.Error("failed to extend subscription", slog.Int64("principal_id", principal), slog.Any("error", err))
		return domain.Subscription{}, err
	}

	s.Metrics.Renewal()
	log.Info("subscription renewed",
		slog.Int64("principal_id", sub.PrincipalID),
		slog.Int("add_days", addDays),
		slog.Time("expires_at", sub.ExpiresAt),
	)

	text := fmt.Sprintf("Your access has been extended until %s.", sub.ExpiresAt.In(now.Location()).Format(expiryLayout))
	notify(ctx, s.Gateway, sub.PrincipalID, text)

	return sub, nil
}

func (s *RenewalService) resolve(ctx context.Context, ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, fmt.Errorf("%w: empty principal reference", ErrInvalidArgument)
	}

	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}

	name := strings.TrimPrefix(ref, "@")
	matches, err := s.Store.Subscriptions().FindSubscriptionsByDisplayName(ctx, name)
	if err != nil {
		return 0, err
	}
	switch len(matches) {
	case 0:
		return 0, fmt.Errorf("%w: no subscription named %q", ErrNotFound, name)
	case 1:
		return matches[0].PrincipalID, nil
	default:
		return 0, fmt.Errorf("%w: %d subscriptions named %q, use the id", ErrInvalidArgument, len(matches), name)
	}
}
