package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/metrics"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/aussiebroadwan/leasekeeper/pkg/clockx"
	"github.com/aussiebroadwan/leasekeeper/pkg/otelx"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// expiryLayout is how lease ends are shown to principals and admins.
const expiryLayout = "2006-01-02 15:04 MST"

type AdmissionService struct {
	Store   store.Store
	Gateway gateway.Gateway
	Clock   clockx.Clock
	Metrics *metrics.Metrics
	GroupID int64
}

// Decide evaluates a join request. A signal for another group is ignored
// outright. A valid token is consumed and the lease written in one
// transaction, which commits before the request is approved. If the approval
// fails both writes are reverted, so the token stays redeemable, and the
// error is returned. Anything else is declined.
func (s *AdmissionService) Decide(ctx context.Context, sig domain.JoinSignal) (domain.Admission, error) {
	ctx, span := otelx.Tracer().Start(ctx, "admission.decide")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("principal.id", sig.PrincipalID),
		attribute.Int64("group.id", sig.GroupID),
	)

	ctx = slogx.With(ctx,
		slog.Int64("principal_id", sig.PrincipalID),
		slog.String("handle", sig.Handle),
	)
	log := slogx.FromContext(ctx)

	if sig.GroupID != s.GroupID {
		log.Debug("ignoring join request for another group", slog.Int64("group_id", sig.GroupID))
		s.Metrics.Decision(string(domain.DecisionIgnored))
		span.SetAttributes(attribute.String("decision", string(domain.DecisionIgnored)))
		return domain.Admission{Decision: domain.DecisionIgnored}, nil
	}

	if sig.Handle == "" {
		return s.decline(ctx, sig, "no invitation presented"), nil
	}

	now := clockx.Or(s.Clock)()

	grant, err := s.redeem(ctx, sig, now)
	if err == nil {
		if gwErr := s.Gateway.ApproveJoin(ctx, s.GroupID, sig.PrincipalID); gwErr != nil {
			err = gatewayError(gwErr)
			if rbErr := s.revert(ctx, grant); rbErr != nil {
				log.Error("failed to revert admission after approve failure, token lost",
					slog.Any("error", rbErr),
				)
				err = errors.Join(err, rbErr)
			}
		}
	}
	if errors.Is(err, errNotRedeemable) {
		return s.decline(ctx, sig, "invitation unknown, used or expired"), nil
	}
	if err != nil {
		log.Error("admission failed, token left redeemable", slog.Any("error", err))
		s.Metrics.Decision("failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "admission failed")
		return domain.Admission{}, err
	}

	sub := grant.sub
	log.Info("principal admitted",
		slog.String("display_name", sig.DisplayName),
		slog.Time("expires_at", sub.ExpiresAt),
	)
	s.Metrics.Decision(string(domain.DecisionAdmitted))
	span.SetAttributes(attribute.String("decision", string(domain.DecisionAdmitted)))

	s.afterAdmission(ctx, sig, sub, now)

	return domain.Admission{Decision: domain.DecisionAdmitted, Subscription: sub}, nil
}

// errNotRedeemable marks a handle that is unknown, spent or expired.
var errNotRedeemable = errors.New("token not redeemable")

// grant is what redeem committed, kept so revert can undo it.
type grant struct {
	token domain.Token
	sub   domain.Subscription
	prev  *domain.Subscription
}

// redeem consumes the token and overwrites the principal's lease in one
// transaction.
func (s *AdmissionService) redeem(ctx context.Context, sig domain.JoinSignal, now time.Time) (grant, error) {
	var g grant
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		token, err := tx.Tokens().ConsumeToken(ctx, sig.Handle, now)
		if errors.Is(err, store.ErrNotFound) {
			return errNotRedeemable
		}
		if err != nil {
			return fmt.Errorf("consume token: %w", err)
		}
		g.token = token

		prev, err := tx.Subscriptions().GetSubscription(ctx, sig.PrincipalID)
		switch {
		case err == nil:
			g.prev = &prev
		case !errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("read subscription: %w", err)
		}

		g.sub, err = tx.Subscriptions().UpsertSubscription(ctx, domain.Subscription{
			PrincipalID: sig.PrincipalID,
			DisplayName: sig.DisplayName,
			GrantedAt:   now,
			ExpiresAt:   now.Add(domain.PlanDuration(token.PlanDays)),
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}
		return nil
	})
	return g, err
}

// revert puts the token back and restores the lease redeem replaced.
func (s *AdmissionService) revert(ctx context.Context, g grant) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tokens().CreateToken(ctx, g.token); err != nil {
			return fmt.Errorf("restore token: %w", err)
		}
		if g.prev != nil {
			if err := tx.Subscriptions().PutSubscription(ctx, *g.prev); err != nil {
				return fmt.Errorf("restore subscription: %w", err)
			}
			return nil
		}
		if err := tx.Subscriptions().DeleteSubscription(ctx, g.sub.PrincipalID); err != nil {
			return fmt.Errorf("remove subscription: %w", err)
		}
		return nil
	})
}

// afterAdmission runs the best-effort follow-ups. None of them can undo the
// admission.
func (s *AdmissionService) afterAdmission(ctx context.Context, sig domain.JoinSignal, sub domain.Subscription, now time.Time) {
	log := slogx.FromContext(ctx)

	if err := s.Gateway.RevokeInvitation(ctx, s.GroupID, sig.Handle); err != nil {
		log.Warn("failed to revoke spent invitation", slog.Any("error", err))
	}

	text := fmt.Sprintf("Welcome! Your access is valid until %s.", sub.ExpiresAt.In(now.Location()).Format(expiryLayout))
	notify(ctx, s.Gateway, sig.PrincipalID, text)
}

func (s *AdmissionService) decline(ctx context.Context, sig domain.JoinSignal, reason string) domain.Admission {
	log := slogx.FromContext(ctx)
	log.Info("join request declined", slog.String("reason", reason))

	if err := s.Gateway.DeclineJoin(ctx, s.GroupID, sig.PrincipalID); err != nil {
		log.Warn("failed to decline join request", slog.Any("error", err))
	}

	s.Metrics.Decision(string(domain.DecisionDeclined))
	return domain.Admission{Decision: domain.DecisionDeclined}
}

// notify messages a principal and logs the outcome. Unreachable principals
// are normal: most never open a chat with the bot.
func notify(ctx context.Context, gw gateway.Gateway, principal int64, text string) bool {
	log := slogx.FromContext(ctx)

	err := gw.NotifyPrincipal(ctx, principal, text)
	switch {
	case err == nil:
		return true
	case errors.Is(err, gateway.ErrUnreachable):
		log.Debug("principal unreachable", slog.Int64("principal_id", principal))
	default:
		log.Warn("failed to notify principal",
			slog.Int64("principal_id", principal),
			slog.Any("error", err),
		)
	}
	return false
}
