package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store/drivers/sqlite/gen"
)

type tokensRepo struct {
	q *gen.Queries
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token) error {
	err := r.q.CreateToken(ctx, gen.CreateTokenParams{
		Handle:     t.Handle,
		PlanDays:   int64(t.PlanDays),
		ValidUntil: t.ValidUntil.Unix(),
		CreatedBy:  t.CreatedBy,
		CreatedAt:  t.CreatedAt.Unix(),
	})
	return mapConstraint(err)
}

func (r *tokensRepo) GetToken(ctx context.Context, handle string) (domain.Token, error) {
	row, err := r.q.GetToken(ctx, handle)
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	return mapToken(row), nil
}

func (r *tokensRepo) ConsumeToken(ctx context.Context, handle string, now time.Time) (domain.Token, error) {
	row, err := r.q.ConsumeToken(ctx, gen.ConsumeTokenParams{
		Handle:     handle,
		ValidUntil: now.Unix(),
	})
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	return mapToken(row), nil
}

func (r *tokensRepo) ListTokens(ctx context.Context) ([]domain.Token, error) {
	rows, err := r.q.ListTokens(ctx)
	if err != nil {
		return nil, err
	}
	return mapTokens(rows), nil
}

func (r *tokensRepo) ListExpiredTokens(ctx context.Context, now time.Time) ([]domain.Token, error) {
	rows, err := r.q.ListExpiredTokens(ctx, now.Unix())
	if err != nil {
		return nil, err
	}
	return mapTokens(rows), nil
}

func (r *tokensRepo) DeleteToken(ctx context.Context, handle string) error {
	return r.q.DeleteToken(ctx, handle)
}

func mapTokens(rows []gen.Token) []domain.Token {
	out := make([]domain.Token, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapToken(row))
	}
	return out
}
