package http

import (
	"net/http"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/service"
	"github.com/aussiebroadwan/leasekeeper/pkg/httpx"
	"github.com/aussiebroadwan/leasekeeper/pkg/leasesdk"
)

// OperationsHandler exposes the on-demand jobs and diagnostics.
type OperationsHandler struct {
	Sweeper            *service.Sweeper
	ReminderService    *service.ReminderService
	DiagnosticsService *service.DiagnosticsService
}

// HandleSweep godoc
//
//	@Summary		Run Sweep
//	@Description	Evict every member whose lease has lapsed. Waits for any sweep already in progress.
//	@Tags			Operations
//	@Produce		json
//	@Success		200	{object}	leasesdk.SweepResponse
//	@Failure		401	{string}	string	"invalid_token"
//	@Security		BearerAuth
//	@Router			/v1/sweeps [post].
func (h *OperationsHandler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	res, err := h.Sweeper.Sweep(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, leasesdk.SweepResponse{
		RunID:      res.RunID,
		StartedAt:  res.StartedAt,
		DurationMS: res.Duration.Milliseconds(),
		Evicted:    nonNil(res.Evicted),
		Failed:     nonNil(res.Failed),
	})
}

// HandleRemind godoc
//
//	@Summary		Send Expiry Reminders
//	@Description	Message every principal whose lease ends within the reminder window and has not been reminded for it.
//	@Tags			Operations
//	@Produce		json
//	@Success		200	{object}	leasesdk.ReminderResponse
//	@Security		BearerAuth
//	@Router			/v1/reminders [post].
func (h *OperationsHandler) HandleRemind(w http.ResponseWriter, r *http.Request) {
	sent, err := h.ReminderService.Remind(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, leasesdk.ReminderResponse{Sent: sent})
}

// HandleDiagnostics godoc
//
//	@Summary		Bot Permissions
//	@Description	The bot's membership status and rights in the managed group.
//	@Tags			Operations
//	@Produce		json
//	@Success		200	{object}	leasesdk.DiagnosticsResponse
//	@Failure		502	{object}	leasesdk.ErrorResponse	"Telegram refused"
//	@Security		BearerAuth
//	@Router			/v1/diagnostics [get].
func (h *OperationsHandler) HandleDiagnostics(w http.ResponseWriter, r *http.Request) {
	perms, err := h.DiagnosticsService.Check(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, leasesdk.DiagnosticsResponse{
		Status:             perms.Status,
		CanInviteUsers:     perms.CanInviteUsers,
		CanRestrictMembers: perms.CanRestrictMembers,
		Sufficient:         perms.Sufficient(),
	})
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
