package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/metrics"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/aussiebroadwan/leasekeeper/pkg/clockx"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
)

// DefaultInviteValidity is how long an issued token stays redeemable when
// no validity window is configured.
const DefaultInviteValidity = 48 * time.Hour

type TokenService struct {
	Store    store.Store
	Gateway  gateway.Gateway
	Clock    clockx.Clock
	Metrics  *metrics.Metrics
	GroupID  int64
	Validity time.Duration
}

// Issue creates an invitation at the gateway and records it as a token
// granting planDays on redemption. Nothing is persisted if the gateway
// refuses.
func (s *TokenService) Issue(ctx context.Context, planDays int, createdBy string) (domain.Token, error) {
	log := slogx.FromContext(ctx)

	if planDays <= 0 {
		log.Warn("refused to issue token with non-positive plan",
			slog.Int("plan_days", planDays),
			slog.String("created_by", createdBy),
		)
		return domain.Token{}, fmt.Errorf("%w: plan days must be positive", ErrInvalidArgument)
	}

	validity := s.Validity
	if validity <= 0 {
		validity = DefaultInviteValidity
	}
	now := clockx.Or(s.Clock)()
	validUntil := now.Add(validity)

	name := fmt.Sprintf("%dd plan by %s", planDays, createdBy)
	handle, err := s.Gateway.CreateInvitation(ctx, s.GroupID, validUntil, name)
	if err != nil {
		log.Error("failed to create invitation", slog.Any("error", err))
		return domain.Token{}, gatewayError(err)
	}

	token := domain.Token{
		Handle:     handle,
		PlanDays:   planDays,
		ValidUntil: validUntil,
		CreatedBy:  createdBy,
		CreatedAt:  now,
	}

	if err := s.Store.Tokens().CreateToken(ctx, token); err != nil {
		log.Error("failed to persist token, revoking invitation",
			slog.String("handle", handle),
			slog.Any("error", err),
		)
		if rerr := s.Gateway.RevokeInvitation(ctx, s.GroupID, handle); rerr != nil {
			log.Warn("failed to revoke orphaned invitation",
				slog.String("handle", handle),
				slog.Any("error", rerr),
			)
		}
		return domain.Token{}, err
	}

	s.Metrics.TokenIssued()
	log.Info("token issued",
		slog.String("handle", handle),
		slog.Int("plan_days", planDays),
		slog.Time("valid_until", validUntil),
		slog.String("created_by", createdBy),
	)
	return token, nil
}

// ListPending returns the tokens that can still be redeemed.
func (s *TokenService) ListPending(ctx context.Context) ([]domain.Token, error) {
	tokens, err := s.Store.Tokens().ListTokens(ctx)
	if err != nil {
		return nil, err
	}

	now := clockx.Or(s.Clock)()
	pending := make([]domain.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Redeemable(now) {
			pending = append(pending, t)
		}
	}
	return pending, nil
}
