package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/aussiebroadwan/leasekeeper/pkg/clockx"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// SubscriptionView is a subscription with its status at the time of listing.
type SubscriptionView struct {
	domain.Subscription
	Status domain.SubscriptionStatus
}

type SubscriptionService struct {
	Store store.Store
	Clock clockx.Clock

	// PurgeSecret is a base32 TOTP secret. When set, Purge requires a
	// current code.
	PurgeSecret string
}

// List returns every subscription, soonest expiry first.
func (s *SubscriptionService) List(ctx context.Context) ([]SubscriptionView, error) {
	subs, err := s.Store.Subscriptions().ListSubscriptions(ctx)
	if err != nil {
		return nil, err
	}

	now := clockx.Or(s.Clock)()
	views := make([]SubscriptionView, len(subs))
	for i, sub := range subs {
		views[i] = SubscriptionView{Subscription: sub, Status: sub.Status(now)}
	}
	return views, nil
}

// Purge deletes lapsed subscriptions and returns how many were removed.
func (s *SubscriptionService) Purge(ctx context.Context, code string) (int64, error) {
	log := slogx.FromContext(ctx)
	now := clockx.Or(s.Clock)()

	if s.PurgeSecret != "" {
		ok, err := totp.ValidateCustom(strings.TrimSpace(code), s.PurgeSecret, now, totp.ValidateOpts{
			Period:    30,
			Skew:      1,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil || !ok {
			log.Warn("purge refused, bad one-time code")
			return 0, fmt.Errorf("%w: invalid one-time code", ErrNotAuthorized)
		}
	}

	n, err := s.Store.Subscriptions().DeleteLapsedSubscriptions(ctx, now)
	if err != nil {
		log.Error("failed to purge lapsed subscriptions", slog.Any("error", err))
		return 0, err
	}

	log.Info("lapsed subscriptions purged", slog.Int64("deleted", n), slog.Time("before", now.Truncate(time.Second)))
	return n, nil
}
