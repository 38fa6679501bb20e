package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store/drivers/sqlite/gen"
)

type subscriptionsRepo struct {
	q *gen.Queries
}

func (r *subscriptionsRepo) UpsertSubscription(
	ctx context.Context,
	s domain.Subscription,
) (domain.Subscription, error) {
	row, err := r.q.UpsertSubscription(ctx, gen.UpsertSubscriptionParams{
		PrincipalID: s.PrincipalID,
		DisplayName: s.DisplayName,
		GrantedAt:   s.GrantedAt.Unix(),
		ExpiresAt:   s.ExpiresAt.Unix(),
		UpdatedAt:   s.UpdatedAt.Unix(),
	})
	if err != nil {
		return domain.Subscription{}, err
	}
	return mapSubscription(row), nil
}

func (r *subscriptionsRepo) GetSubscription(ctx context.Context, principalID int64) (domain.Subscription, error) {
	row, err := r.q.GetSubscription(ctx, principalID)
	if err != nil {
		return domain.Subscription{}, mapNotFound(err)
	}
	return mapSubscription(row), nil
}

func (r *subscriptionsRepo) FindSubscriptionsByDisplayName(
	ctx context.Context,
	name string,
) ([]domain.Subscription, error) {
	rows, err := r.q.FindSubscriptionsByDisplayName(ctx, name)
	if err != nil {
		return nil, err
	}
	return mapSubscriptions(rows), nil
}

func (r *subscriptionsRepo) ExtendSubscription(
	ctx context.Context,
	principalID int64,
	now time.Time,
	add time.Duration,
) (domain.Subscription, error) {
	row, err := r.q.ExtendSubscription(ctx, gen.ExtendSubscriptionParams{
		Now:         now.Unix(),
		AddSeconds:  int64(add / time.Second),
		PrincipalID: principalID,
	})
	if err != nil {
		return domain.Subscription{}, mapNotFound(err)
	}
	return mapSubscription(row), nil
}

func (r *subscriptionsRepo) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	rows, err := r.q.ListSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	return mapSubscriptions(rows), nil
}

func (r *subscriptionsRepo) ListSubscriptionsDueReminder(
	ctx context.Context,
	from, until time.Time,
) ([]domain.Subscription, error) {
	rows, err := r.q.ListSubscriptionsDueReminder(ctx, gen.ListSubscriptionsDueReminderParams{
		FromTs:  from.Unix(),
		UntilTs: until.Unix(),
	})
	if err != nil {
		return nil, err
	}
	return mapSubscriptions(rows), nil
}

func (r *subscriptionsRepo) MarkSubscriptionReminded(
	ctx context.Context,
	principalID int64,
	expiresAt, now time.Time,
) (bool, error) {
	n, err := r.q.MarkSubscriptionReminded(ctx, gen.MarkSubscriptionRemindedParams{
		UpdatedAt:   now.Unix(),
		PrincipalID: principalID,
		ExpiresAt:   expiresAt.Unix(),
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *subscriptionsRepo) PutSubscription(ctx context.Context, s domain.Subscription) error {
	return r.q.PutSubscription(ctx, gen.PutSubscriptionParams{
		PrincipalID: s.PrincipalID,
		DisplayName: s.DisplayName,
		GrantedAt:   s.GrantedAt.Unix(),
		ExpiresAt:   s.ExpiresAt.Unix(),
		RemindedFor: unixOrZero(s.RemindedFor),
		UpdatedAt:   s.UpdatedAt.Unix(),
	})
}

func (r *subscriptionsRepo) DeleteSubscription(ctx context.Context, principalID int64) error {
	n, err := r.q.DeleteSubscription(ctx, principalID)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *subscriptionsRepo) DeleteLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteLapsedSubscriptions(ctx, now.Unix())
}
