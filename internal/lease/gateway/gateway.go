// Package gateway defines the only path to the external group-membership
// API. Everything that touches group membership goes through a Gateway.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
)

// ErrUnreachable means the principal cannot be messaged, usually because
// they never opened a chat with the bot. Callers treat it as expected.
var ErrUnreachable = errors.New("gateway: principal unreachable")

type Gateway interface {
	// CreateInvitation creates a single-use invitation into group that
	// requires a join request and stops working at expiresAt. Returns the
	// invitation handle.
	CreateInvitation(ctx context.Context, group int64, expiresAt time.Time, name string) (string, error)

	// ApproveJoin admits principal's pending request. Approving a principal
	// who is already a member succeeds.
	ApproveJoin(ctx context.Context, group, principal int64) error

	DeclineJoin(ctx context.Context, group, principal int64) error

	RevokeInvitation(ctx context.Context, group int64, handle string) error

	// EvictMember removes principal from group without a lasting ban.
	EvictMember(ctx context.Context, group, principal int64) error

	NotifyPrincipal(ctx context.Context, principal int64, text string) error

	CheckPermissions(ctx context.Context, group int64) (domain.Permissions, error)
}
