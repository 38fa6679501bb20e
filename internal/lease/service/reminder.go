package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/metrics"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/aussiebroadwan/leasekeeper/pkg/clockx"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
)

// ReminderService warns principals whose lease ends within Window. Each
// expiry is reminded at most once; renewing starts a new cycle.
type ReminderService struct {
	Store   store.Store
	Gateway gateway.Gateway
	Clock   clockx.Clock
	Metrics *metrics.Metrics
	Window  time.Duration
}

// Remind notifies every due principal and returns how many were reached.
// A zero Window disables reminders.
func (s *ReminderService) Remind(ctx context.Context) (int, error) {
	if s.Window <= 0 {
		return 0, nil
	}
	log := slogx.FromContext(ctx)

	now := clockx.Or(s.Clock)()
	due, err := s.Store.Subscriptions().ListSubscriptionsDueReminder(ctx, now, now.Add(s.Window))
	if err != nil {
		log.Error("failed to list subscriptions due a reminder", slog.Any("error", err))
		return 0, err
	}

	sent := 0
	for _, sub := range due {
		left := sub.ExpiresAt.Sub(now).Round(time.Hour)
		text := fmt.Sprintf("Heads up: your access ends on %s (in about %s). Ask an admin to renew it.",
			sub.ExpiresAt.In(now.Location()).Format(expiryLayout), left)

		if !notify(ctx, s.Gateway, sub.PrincipalID, text) {
			s.Metrics.Reminder(false)
			continue
		}
		s.Metrics.Reminder(true)
		sent++

		ok, err := s.Store.Subscriptions().MarkSubscriptionReminded(ctx, sub.PrincipalID, sub.ExpiresAt, now)
		if err != nil {
			log.Error("failed to record reminder",
				slog.Int64("principal_id", sub.PrincipalID),
				slog.Any("error", err),
			)
			continue
		}
		if !ok {
			log.Debug("subscription changed while reminding", slog.Int64("principal_id", sub.PrincipalID))
		}
	}

	log.Info("reminder pass completed", slog.Int("due", len(due)), slog.Int("sent", sent))
	return sent, nil
}
