package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/service"
	"github.com/aussiebroadwan/leasekeeper/pkg/httpx"
	"github.com/aussiebroadwan/leasekeeper/pkg/leasesdk"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
)

type SubscriptionsHandler struct {
	RenewalService      *service.RenewalService
	SubscriptionService *service.SubscriptionService
}

// HandleList godoc
//
//	@Summary		List Subscriptions
//	@Description	Every subscription with its status, soonest expiry first.
//	@Tags			Subscriptions
//	@Produce		json
//	@Success		200	{object}	leasesdk.SubscriptionListResponse
//	@Failure		401	{string}	string	"invalid_token"
//	@Security		BearerAuth
//	@Router			/v1/subscriptions [get].
func (h *SubscriptionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.SubscriptionService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := leasesdk.SubscriptionListResponse{Subscriptions: make([]leasesdk.SubscriptionResponse, len(views))}
	for i, v := range views {
		resp.Subscriptions[i] = subscriptionResponse(v.Subscription, v.Status)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRenew godoc
//
//	@Summary		Renew Subscription
//	@Description	Extend a lease to max(expires_at, now) + days. ref is a principal id or a display name.
//	@Tags			Subscriptions
//	@Accept			json
//	@Produce		json
//	@Param			ref		path		string					true	"Principal id or @name"
//	@Param			request	body		leasesdk.RenewRequest	true	"Days to add"
//	@Success		200		{object}	leasesdk.SubscriptionResponse
//	@Failure		400		{object}	leasesdk.ErrorResponse	"bad days or ambiguous name"
//	@Failure		404		{object}	leasesdk.ErrorResponse	"no such subscription"
//	@Security		BearerAuth
//	@Router			/v1/subscriptions/{ref}/renew [post].
func (h *SubscriptionsHandler) HandleRenew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req leasesdk.RenewRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	sub, err := h.RenewalService.Renew(ctx, r.PathValue("ref"), req.Days)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(ctx).Info("subscription renewed via api", "principal_id", sub.PrincipalID, "days", req.Days)
	httpx.WriteJSON(w, http.StatusOK, subscriptionResponse(sub, domain.StatusActive))
}

// HandlePurge godoc
//
//	@Summary		Purge Lapsed Subscriptions
//	@Description	Delete every subscription that has lapsed. Requires a TOTP code when the server has a purge secret.
//	@Tags			Subscriptions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		leasesdk.PurgeRequest	false	"One-time code"
//	@Success		200		{object}	leasesdk.PurgeResponse
//	@Failure		403		{object}	leasesdk.ErrorResponse	"bad one-time code"
//	@Security		BearerAuth
//	@Router			/v1/subscriptions/purge [post].
func (h *SubscriptionsHandler) HandlePurge(w http.ResponseWriter, r *http.Request) {
	var req leasesdk.PurgeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	n, err := h.SubscriptionService.Purge(r.Context(), req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, leasesdk.PurgeResponse{Deleted: n})
}

func subscriptionResponse(s domain.Subscription, status domain.SubscriptionStatus) leasesdk.SubscriptionResponse {
	return leasesdk.SubscriptionResponse{
		PrincipalID: s.PrincipalID,
		DisplayName: s.DisplayName,
		GrantedAt:   s.GrantedAt,
		ExpiresAt:   s.ExpiresAt,
		Status:      string(status),
	}
}
