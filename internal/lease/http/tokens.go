package http

import (
	"net/http"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/service"
	"github.com/aussiebroadwan/leasekeeper/pkg/httpx"
	"github.com/aussiebroadwan/leasekeeper/pkg/leasesdk"
)

type TokensHandler struct {
	TokenService *service.TokenService
}

// HandleIssue godoc
//
//	@Summary		Issue Invitation
//	@Description	Create a single-use, join-request gated invitation link bound to a plan length.
//	@Tags			Tokens
//	@Accept			json
//	@Produce		json
//	@Param			request	body		leasesdk.IssueTokenRequest	true	"Plan length"
//	@Success		201		{object}	leasesdk.TokenResponse
//	@Failure		400		{object}	leasesdk.ErrorResponse	"error, error_description"
//	@Failure		401		{string}	string					"invalid_token"
//	@Failure		502		{object}	leasesdk.ErrorResponse	"Telegram refused"
//	@Security		BearerAuth
//	@Router			/v1/tokens [post].
func (h *TokensHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req leasesdk.IssueTokenRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	tok, err := h.TokenService.Issue(ctx, req.PlanDays, httpx.SubjectFromContext(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, tokenResponse(tok))
}

// HandleList godoc
//
//	@Summary		List Pending Invitations
//	@Description	Invitations that have not been redeemed and have not expired.
//	@Tags			Tokens
//	@Produce		json
//	@Success		200	{object}	leasesdk.TokenListResponse
//	@Failure		401	{string}	string	"invalid_token"
//	@Security		BearerAuth
//	@Router			/v1/tokens [get].
func (h *TokensHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.TokenService.ListPending(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := leasesdk.TokenListResponse{Tokens: make([]leasesdk.TokenResponse, len(tokens))}
	for i, t := range tokens {
		resp.Tokens[i] = tokenResponse(t)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func tokenResponse(t domain.Token) leasesdk.TokenResponse {
	return leasesdk.TokenResponse{
		Handle:     t.Handle,
		PlanDays:   t.PlanDays,
		ValidUntil: t.ValidUntil,
		CreatedBy:  t.CreatedBy,
		CreatedAt:  t.CreatedAt,
	}
}
