package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
)

type subscriptionsRepo struct {
	q querier
}

func (r *subscriptionsRepo) UpsertSubscription(ctx context.Context, s domain.Subscription) (domain.Subscription, error) {
	return scanSubscription(r.q.QueryRow(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, 0, $5)
		ON CONFLICT (principal_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			granted_at   = EXCLUDED.granted_at,
			expires_at   = EXCLUDED.expires_at,
			reminded_for = 0,
			updated_at   = EXCLUDED.updated_at
		RETURNING `+subscriptionColumns,
		s.PrincipalID, s.DisplayName, s.GrantedAt.Unix(), s.ExpiresAt.Unix(), s.UpdatedAt.Unix(),
	))
}

func (r *subscriptionsRepo) GetSubscription(ctx context.Context, principalID int64) (domain.Subscription, error) {
	s, err := scanSubscription(r.q.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions WHERE principal_id = $1`, principalID))
	return s, mapNotFound(err)
}

func (r *subscriptionsRepo) FindSubscriptionsByDisplayName(ctx context.Context, name string) ([]domain.Subscription, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE lower(display_name) = lower($1)
		ORDER BY principal_id`, name)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSubscription)
}

func (r *subscriptionsRepo) ExtendSubscription(
	ctx context.Context,
	principalID int64,
	now time.Time,
	add time.Duration,
) (domain.Subscription, error) {
	s, err := scanSubscription(r.q.QueryRow(ctx, `
		UPDATE subscriptions
		SET expires_at = GREATEST(expires_at, $1) + $2,
		    updated_at = $1
		WHERE principal_id = $3
		RETURNING `+subscriptionColumns,
		now.Unix(), int64(add/time.Second), principalID,
	))
	return s, mapNotFound(err)
}

func (r *subscriptionsRepo) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY expires_at, principal_id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSubscription)
}

func (r *subscriptionsRepo) ListSubscriptionsDueReminder(
	ctx context.Context,
	from, until time.Time,
) ([]domain.Subscription, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE expires_at >= $1 AND expires_at < $2 AND reminded_for <> expires_at
		ORDER BY expires_at, principal_id`, from.Unix(), until.Unix())
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSubscription)
}

func (r *subscriptionsRepo) MarkSubscriptionReminded(
	ctx context.Context,
	principalID int64,
	expiresAt, now time.Time,
) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE subscriptions
		SET reminded_for = expires_at, updated_at = $1
		WHERE principal_id = $2 AND expires_at = $3`,
		now.Unix(), principalID, expiresAt.Unix(),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *subscriptionsRepo) PutSubscription(ctx context.Context, s domain.Subscription) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (principal_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			granted_at   = EXCLUDED.granted_at,
			expires_at   = EXCLUDED.expires_at,
			reminded_for = EXCLUDED.reminded_for,
			updated_at   = EXCLUDED.updated_at`,
		s.PrincipalID, s.DisplayName, s.GrantedAt.Unix(), s.ExpiresAt.Unix(), unixOrZero(s.RemindedFor), s.UpdatedAt.Unix(),
	)
	return err
}

func (r *subscriptionsRepo) DeleteSubscription(ctx context.Context, principalID int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM subscriptions WHERE principal_id = $1`, principalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *subscriptionsRepo) DeleteLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM subscriptions WHERE expires_at < $1`, now.Unix())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
