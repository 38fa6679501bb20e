package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/aussiebroadwan/leasekeeper/pkg/httpx"
	"github.com/aussiebroadwan/leasekeeper/pkg/leasesdk"
)

// readyTimeout bounds the database ping behind /readyz.
const readyTimeout = 2 * time.Second

type HealthHandler struct {
	StartTime time.Time
	Version   string
	Store     store.Store
}

func (h *HealthHandler) response(status string) leasesdk.HealthResponse {
	return leasesdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.StartTime).Truncate(time.Second).String(),
		Version: h.Version,
	}
}

// HandleLivez godoc
//
//	@Summary		Liveness Probe
//	@Description	Returns 200 while the process is up. Does not touch the database.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	leasesdk.HealthResponse
//	@Router			/livez [get].
func (h *HealthHandler) HandleLivez(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.response("ok"))
}

// HandleReadyz godoc
//
//	@Summary		Readiness Probe
//	@Description	Pings the lease store. Returns 503 while it is unreachable.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	leasesdk.HealthResponse
//	@Failure		503	{object}	leasesdk.HealthResponse	"database unreachable"
//	@Router			/readyz [get].
func (h *HealthHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := h.response("ok")
	resp.Checks = &leasesdk.HealthChecks{Database: "ok"}
	code := http.StatusOK

	if err := h.Store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Checks.Database = "error: " + err.Error()
		code = http.StatusServiceUnavailable
	}

	httpx.WriteJSON(w, code, resp)
}
