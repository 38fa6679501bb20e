package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store/drivers/sqlite/gen"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

type Store struct {
	db  *sql.DB
	q   *gen.Queries
	dsn string
}

var _ store.Store = (*Store)(nil)

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Single writer. This also keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA foreign_keys = ON;`,
		`PRAGMA busy_timeout = 5000;`,
	} {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &Store{
		db:  db,
		q:   gen.New(db),
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx, q: gen.New(tx)}, nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Tokens() store.Tokens               { return &tokensRepo{q: s.q} }
func (s *Store) Subscriptions() store.Subscriptions { return &subscriptionsRepo{q: s.q} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapConstraint(err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return store.ErrAlreadyExists
		}
	}
	return err
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// optionalUnix maps the zero marker to the zero time.
func optionalUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return fromUnix(sec)
}

// unixOrZero is the inverse of optionalUnix.
func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func mapToken(row gen.Token) domain.Token {
	return domain.Token{
		Handle:     row.Handle,
		PlanDays:   int(row.PlanDays),
		ValidUntil: fromUnix(row.ValidUntil),
		CreatedBy:  row.CreatedBy,
		CreatedAt:  fromUnix(row.CreatedAt),
	}
}

func mapSubscription(row gen.Subscription) domain.Subscription {
	return domain.Subscription{
		PrincipalID: row.PrincipalID,
		DisplayName: row.DisplayName,
		GrantedAt:   fromUnix(row.GrantedAt),
		ExpiresAt:   fromUnix(row.ExpiresAt),
		RemindedFor: optionalUnix(row.RemindedFor),
		UpdatedAt:   fromUnix(row.UpdatedAt),
	}
}

func mapSubscriptions(rows []gen.Subscription) []domain.Subscription {
	out := make([]domain.Subscription, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapSubscription(row))
	}
	return out
}
