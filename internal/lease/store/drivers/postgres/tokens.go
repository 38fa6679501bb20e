package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
)

type tokensRepo struct {
	q querier
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO tokens (`+tokenColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		t.Handle, t.PlanDays, t.ValidUntil.Unix(), t.CreatedBy, t.CreatedAt.Unix(),
	)
	return mapUniqueViolation(err)
}

func (r *tokensRepo) GetToken(ctx context.Context, handle string) (domain.Token, error) {
	t, err := scanToken(r.q.QueryRow(ctx, `
		SELECT `+tokenColumns+` FROM tokens WHERE handle = $1`, handle))
	return t, mapNotFound(err)
}

func (r *tokensRepo) ConsumeToken(ctx context.Context, handle string, now time.Time) (domain.Token, error) {
	t, err := scanToken(r.q.QueryRow(ctx, `
		DELETE FROM tokens
		WHERE handle = $1 AND valid_until > $2
		RETURNING `+tokenColumns, handle, now.Unix()))
	return t, mapNotFound(err)
}

func (r *tokensRepo) ListTokens(ctx context.Context) ([]domain.Token, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+tokenColumns+` FROM tokens ORDER BY valid_until, handle`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanToken)
}

func (r *tokensRepo) ListExpiredTokens(ctx context.Context, now time.Time) ([]domain.Token, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+tokenColumns+` FROM tokens
		WHERE valid_until <= $1
		ORDER BY valid_until, handle`, now.Unix())
	if err != nil {
		return nil, err
	}
	return collect(rows, scanToken)
}

func (r *tokensRepo) DeleteToken(ctx context.Context, handle string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM tokens WHERE handle = $1`, handle)
	return err
}
