package service

import (
	"context"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway"
)

type DiagnosticsService struct {
	Gateway gateway.Gateway
	GroupID int64
}

// Check reports the bot's standing in the managed group.
func (s *DiagnosticsService) Check(ctx context.Context) (domain.Permissions, error) {
	perms, err := s.Gateway.CheckPermissions(ctx, s.GroupID)
	if err != nil {
		return domain.Permissions{}, gatewayError(err)
	}
	return perms, nil
}
