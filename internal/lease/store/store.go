package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrNestedTx      = errors.New("store: nested transactions are not supported")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Repositories hang off it so a Tx can hand out the same
// repositories bound to the transaction.
type Store interface {
	Tokens() Tokens
	Subscriptions() Subscriptions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Tokens interface {
	// CreateToken persists a freshly issued token. Returns ErrAlreadyExists
	// if the handle is taken.
	CreateToken(ctx context.Context, t domain.Token) error

	GetToken(ctx context.Context, handle string) (domain.Token, error)

	// ConsumeToken deletes and returns the token in one statement, but only
	// while valid_until is after now. Absent or expired yields ErrNotFound
	// and leaves the row alone.
	ConsumeToken(ctx context.Context, handle string, now time.Time) (domain.Token, error)

	// ListTokens returns every stored token, soonest to expire first.
	ListTokens(ctx context.Context) ([]domain.Token, error)

	// ListExpiredTokens returns tokens with valid_until <= now.
	ListExpiredTokens(ctx context.Context, now time.Time) ([]domain.Token, error)

	DeleteToken(ctx context.Context, handle string) error
}

type Subscriptions interface {
	// UpsertSubscription fully overwrites the lease for the principal and
	// clears any reminder marker.
	UpsertSubscription(ctx context.Context, s domain.Subscription) (domain.Subscription, error)

	GetSubscription(ctx context.Context, principalID int64) (domain.Subscription, error)

	// FindSubscriptionsByDisplayName matches case-insensitively.
	FindSubscriptionsByDisplayName(ctx context.Context, name string) ([]domain.Subscription, error)

	// ExtendSubscription sets expires_at = max(expires_at, now) + add in a
	// single statement and returns the updated row.
	ExtendSubscription(ctx context.Context, principalID int64, now time.Time, add time.Duration) (domain.Subscription, error)

	// ListSubscriptions returns all rows ordered by expires_at.
	ListSubscriptions(ctx context.Context) ([]domain.Subscription, error)

	// ListSubscriptionsDueReminder returns rows with from <= expires_at < until
	// whose reminder marker does not cover the current expires_at.
	ListSubscriptionsDueReminder(ctx context.Context, from, until time.Time) ([]domain.Subscription, error)

	// MarkSubscriptionReminded records the reminder only if expires_at still
	// equals expiresAt. Reports whether a row changed.
	MarkSubscriptionReminded(ctx context.Context, principalID int64, expiresAt, now time.Time) (bool, error)

	// PutSubscription writes s verbatim, reminder marker included, replacing
	// any existing row for the principal.
	PutSubscription(ctx context.Context, s domain.Subscription) error

	// DeleteSubscription removes the principal's row. Returns ErrNotFound if
	// there was none.
	DeleteSubscription(ctx context.Context, principalID int64) error

	// DeleteLapsedSubscriptions removes rows with expires_at < now.
	DeleteLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error)
}
