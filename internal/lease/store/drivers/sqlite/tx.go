package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store/drivers/sqlite/gen"
)

// txStore is a Store bound to one *sql.Tx. Only the repositories and
// Commit/Rollback do real work on it.
type txStore struct {
	tx *sql.Tx
	q  *gen.Queries
}

var _ store.Tx = (*txStore)(nil)

func (t *txStore) Tokens() store.Tokens               { return &tokensRepo{q: t.q} }
func (t *txStore) Subscriptions() store.Subscriptions { return &subscriptionsRepo{q: t.q} }

func (t *txStore) Commit() error { return t.tx.Commit() }

// Rollback after Commit is a no-op, so callers can defer it unconditionally.
func (t *txStore) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func (t *txStore) Tx(context.Context) (store.Tx, error)                 { return nil, store.ErrNestedTx }
func (t *txStore) WithTx(context.Context, func(tx store.Tx) error) error { return store.ErrNestedTx }
func (t *txStore) ApplyMigrations() error                               { return store.ErrNestedTx }
func (t *txStore) Close() error                                         { return nil }
func (t *txStore) Ping(context.Context) error                           { return nil }
