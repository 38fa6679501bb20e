// Package storetest is a conformance suite every store driver must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/stretchr/testify/require"
)

// Now is the fixed instant the suite works against.
var Now = time.Unix(1_760_000_000, 0).UTC()

// Factory returns an empty, migrated store. It is called once per subtest.
type Factory func(t *testing.T) store.Store

// Run exercises every repository operation against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("tokens", func(t *testing.T) { testTokens(t, newStore(t)) })
	t.Run("consume once", func(t *testing.T) { testConsumeOnce(t, newStore(t)) })
	t.Run("consume concurrently", func(t *testing.T) { testConsumeConcurrently(t, newStore(t)) })
	t.Run("rollback keeps token", func(t *testing.T) { testRollbackKeepsToken(t, newStore(t)) })
	t.Run("upsert subscription", func(t *testing.T) { testUpsertSubscription(t, newStore(t)) })
	t.Run("extend subscription", func(t *testing.T) { testExtendSubscription(t, newStore(t)) })
	t.Run("find by display name", func(t *testing.T) { testFindByDisplayName(t, newStore(t)) })
	t.Run("reminders", func(t *testing.T) { testReminders(t, newStore(t)) })
	t.Run("delete lapsed", func(t *testing.T) { testDeleteLapsed(t, newStore(t)) })
	t.Run("put and delete subscription", func(t *testing.T) { testPutDeleteSubscription(t, newStore(t)) })
}

func token(handle string, plan int, validUntil time.Time) domain.Token {
	return domain.Token{
		Handle:     handle,
		PlanDays:   plan,
		ValidUntil: validUntil,
		CreatedBy:  "admin",
		CreatedAt:  Now,
	}
}

func subscription(id int64, name string, expires time.Time) domain.Subscription {
	return domain.Subscription{
		PrincipalID: id,
		DisplayName: name,
		GrantedAt:   Now,
		ExpiresAt:   expires,
		UpdatedAt:   Now,
	}
}

func testTokens(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.Tokens()

	require.NoError(t, repo.CreateToken(ctx, token("https://t.me/+b", 30, Now.Add(time.Hour))))
	require.NoError(t, repo.CreateToken(ctx, token("https://t.me/+a", 7, Now.Add(-time.Hour))))
	require.ErrorIs(t, repo.CreateToken(ctx, token("https://t.me/+a", 7, Now)), store.ErrAlreadyExists)

	got, err := repo.GetToken(ctx, "https://t.me/+b")
	require.NoError(t, err)
	require.Equal(t, 30, got.PlanDays)
	require.Equal(t, Now.Add(time.Hour), got.ValidUntil)
	require.Equal(t, "admin", got.CreatedBy)

	_, err = repo.GetToken(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	all, err := repo.ListTokens(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "https://t.me/+a", all[0].Handle)

	expired, err := repo.ListExpiredTokens(ctx, Now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, "https://t.me/+a", expired[0].Handle)

	require.NoError(t, repo.DeleteToken(ctx, "https://t.me/+a"))
	_, err = repo.GetToken(ctx, "https://t.me/+a")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testConsumeOnce(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.Tokens()

	require.NoError(t, repo.CreateToken(ctx, token("live", 7, Now.Add(48*time.Hour))))
	require.NoError(t, repo.CreateToken(ctx, token("stale", 7, Now)))

	got, err := repo.ConsumeToken(ctx, "live", Now)
	require.NoError(t, err)
	require.Equal(t, 7, got.PlanDays)

	_, err = repo.ConsumeToken(ctx, "live", Now)
	require.ErrorIs(t, err, store.ErrNotFound)

	// valid_until == now is already expired, and stays in place.
	_, err = repo.ConsumeToken(ctx, "stale", Now)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = repo.GetToken(ctx, "stale")
	require.NoError(t, err)
}

func testConsumeConcurrently(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Tokens().CreateToken(ctx, token("race", 30, Now.Add(time.Hour))))

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithTx(ctx, func(tx store.Tx) error {
				_, err := tx.Tokens().ConsumeToken(ctx, "race", Now)
				return err
			})
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
				return
			}
			if !errors.Is(err, store.ErrNotFound) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, winners)
}

func testRollbackKeepsToken(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Tokens().CreateToken(ctx, token("keep", 30, Now.Add(time.Hour))))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Tokens().ConsumeToken(ctx, "keep", Now); err != nil {
			return err
		}
		if _, err := tx.Subscriptions().UpsertSubscription(ctx, subscription(1, "a", Now.Add(domain.Day))); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Tokens().GetToken(ctx, "keep")
	require.NoError(t, err)
	_, err = s.Subscriptions().GetSubscription(ctx, 1)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testUpsertSubscription(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.Subscriptions()

	first, err := repo.UpsertSubscription(ctx, subscription(42, "alice", Now.Add(7*domain.Day)))
	require.NoError(t, err)
	require.Equal(t, Now.Add(7*domain.Day), first.ExpiresAt)
	require.True(t, first.RemindedFor.IsZero())

	ok, err := repo.MarkSubscriptionReminded(ctx, 42, first.ExpiresAt, Now)
	require.NoError(t, err)
	require.True(t, ok)

	later := Now.Add(time.Hour)
	second, err := repo.UpsertSubscription(ctx, domain.Subscription{
		PrincipalID: 42,
		DisplayName: "alice2",
		GrantedAt:   later,
		ExpiresAt:   later.Add(30 * domain.Day),
		UpdatedAt:   later,
	})
	require.NoError(t, err)
	require.Equal(t, "alice2", second.DisplayName)
	require.Equal(t, later, second.GrantedAt)
	require.Equal(t, later.Add(30*domain.Day), second.ExpiresAt)
	require.True(t, second.RemindedFor.IsZero(), "admission resets reminder marker")

	all, err := repo.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func testExtendSubscription(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.Subscriptions()

	_, err := repo.UpsertSubscription(ctx, subscription(1, "future", Now.Add(3*domain.Day)))
	require.NoError(t, err)
	_, err = repo.UpsertSubscription(ctx, subscription(2, "past", Now.Add(-3*domain.Day)))
	require.NoError(t, err)

	got, err := repo.ExtendSubscription(ctx, 1, Now, 10*domain.Day)
	require.NoError(t, err)
	require.Equal(t, Now.Add(13*domain.Day), got.ExpiresAt)
	require.Equal(t, Now, got.UpdatedAt)

	got, err = repo.ExtendSubscription(ctx, 2, Now, 10*domain.Day)
	require.NoError(t, err)
	require.Equal(t, Now.Add(10*domain.Day), got.ExpiresAt)

	_, err = repo.ExtendSubscription(ctx, 999, Now, domain.Day)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testFindByDisplayName(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.Subscriptions()

	for _, sub := range []domain.Subscription{
		subscription(1, "Alice", Now),
		subscription(2, "bob", Now),
		subscription(3, "BOB", Now),
	} {
		_, err := repo.UpsertSubscription(ctx, sub)
		require.NoError(t, err)
	}

	got, err := repo.FindSubscriptionsByDisplayName(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(1), got[0].PrincipalID)

	got, err = repo.FindSubscriptionsByDisplayName(ctx, "Bob")
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = repo.FindSubscriptionsByDisplayName(ctx, "carol")
	require.NoError(t, err)
	require.Empty(t, got)
}

func testReminders(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.Subscriptions()

	window := 72 * time.Hour
	for _, sub := range []domain.Subscription{
		subscription(1, "soon", Now.Add(24*time.Hour)),
		subscription(2, "later", Now.Add(10*domain.Day)),
		subscription(3, "gone", Now.Add(-time.Hour)),
	} {
		_, err := repo.UpsertSubscription(ctx, sub)
		require.NoError(t, err)
	}

	due, err := repo.ListSubscriptionsDueReminder(ctx, Now, Now.Add(window))
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, int64(1), due[0].PrincipalID)

	// Stale expiry: no row changes.
	ok, err := repo.MarkSubscriptionReminded(ctx, 1, Now, Now)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.MarkSubscriptionReminded(ctx, 1, due[0].ExpiresAt, Now)
	require.NoError(t, err)
	require.True(t, ok)

	due, err = repo.ListSubscriptionsDueReminder(ctx, Now, Now.Add(window))
	require.NoError(t, err)
	require.Empty(t, due)

	// A renewal moves expires_at, so the marker no longer covers it.
	_, err = repo.ExtendSubscription(ctx, 1, Now, time.Hour)
	require.NoError(t, err)
	due, err = repo.ListSubscriptionsDueReminder(ctx, Now, Now.Add(window))
	require.NoError(t, err)
	require.Len(t, due, 1)
}

func testDeleteLapsed(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.Subscriptions()

	for _, sub := range []domain.Subscription{
		subscription(1, "gone", Now.Add(-time.Second)),
		subscription(2, "edge", Now),
		subscription(3, "live", Now.Add(time.Hour)),
	} {
		_, err := repo.UpsertSubscription(ctx, sub)
		require.NoError(t, err)
	}

	n, err := repo.DeleteLapsedSubscriptions(ctx, Now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	all, err := repo.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, int64(2), all[0].PrincipalID)
}

func testPutDeleteSubscription(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.Subscriptions()

	want := subscription(7, "restored", Now.Add(3*domain.Day))
	want.RemindedFor = want.ExpiresAt
	require.NoError(t, repo.PutSubscription(ctx, want))

	got, err := repo.GetSubscription(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, want.ExpiresAt.Unix(), got.ExpiresAt.Unix())
	require.Equal(t, want.RemindedFor.Unix(), got.RemindedFor.Unix())

	// Overwrites, marker included.
	want.RemindedFor = time.Time{}
	want.DisplayName = "renamed"
	require.NoError(t, repo.PutSubscription(ctx, want))
	got, err = repo.GetSubscription(ctx, 7)
	require.NoError(t, err)
	require.True(t, got.RemindedFor.IsZero())
	require.Equal(t, "renamed", got.DisplayName)

	require.NoError(t, repo.DeleteSubscription(ctx, 7))
	_, err = repo.GetSubscription(ctx, 7)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, repo.DeleteSubscription(ctx, 7), store.ErrNotFound)
}
