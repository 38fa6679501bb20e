package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/service"
	"github.com/aussiebroadwan/leasekeeper/pkg/httpx"
	"github.com/aussiebroadwan/leasekeeper/pkg/leasesdk"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
)

// writeServiceError maps service sentinels onto status codes. Anything
// unrecognised is a 500 and gets logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		httpx.WriteError(w, http.StatusBadRequest, leasesdk.ErrorCodeInvalidRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, leasesdk.ErrorCodeNotFound, err.Error())
	case errors.Is(err, service.ErrNotAuthorized):
		httpx.WriteError(w, http.StatusForbidden, leasesdk.ErrorCodeForbidden, err.Error())
	case errors.Is(err, service.ErrGateway):
		httpx.WriteError(w, http.StatusBadGateway, leasesdk.ErrorCodeGateway, "telegram refused the request")
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, leasesdk.ErrorCodeServerError, "internal server error")
	}
}

func writeBadRequest(w http.ResponseWriter, desc string) {
	httpx.WriteError(w, http.StatusBadRequest, leasesdk.ErrorCodeInvalidRequest, desc)
}
