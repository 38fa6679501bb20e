package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/metrics"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/service"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/aussiebroadwan/leasekeeper/pkg/httpx"
	"github.com/aussiebroadwan/leasekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"

	_ "github.com/aussiebroadwan/leasekeeper/api/leasekeeper" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store
	metrics      *metrics.Metrics

	// Limits defaults to httpx.DefaultRateLimits.
	Limits httpx.RateLimitProfiles

	TokenService        *service.TokenService
	RenewalService      *service.RenewalService
	SubscriptionService *service.SubscriptionService
	Sweeper             *service.Sweeper
	ReminderService     *service.ReminderService
	DiagnosticsService  *service.DiagnosticsService
}

// NewRouter builds the router. A nil verifier leaves the /v1 admin routes
// unregistered.
func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		metrics:      m,
		Limits:       httpx.DefaultRateLimits(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSystem()
	if r.verifier == nil {
		r.logger.Warn("no admin key configured, admin API disabled")
	} else {
		r.registerTokens()
		r.registerSubscriptions()
		r.registerOperations()
	}

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Leasekeeper Admin API
//	@version		0.1.0
//	@description	Operator API for the Telegram group lease manager: issue invitations, renew and list subscriptions, and trigger sweeps.
//	@description
//	@description				Admin endpoints require an EdDSA-signed JWT minted with leasekeeper-admin.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/leasekeeper
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSystem() {
	h := &HealthHandler{StartTime: r.startTime, Version: r.buildVersion, Store: r.store}
	public := httpx.RateLimitByIP(r.Limits.Public)

	r.Mux.Handle("GET /livez", httpx.Chain(http.HandlerFunc(h.HandleLivez), public))
	r.Mux.Handle("GET /readyz", httpx.Chain(http.HandlerFunc(h.HandleReadyz), public))
	r.Mux.Handle("GET /metrics", httpx.Chain(r.metrics.Handler(), public))
}

// secured wraps h with bearer authentication, the scope check and a
// per-operator rate limit.
func (r *Router) secured(h http.Handler, scope string, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope(scope),
		httpx.RateLimitBySubject(limit),
	)
}

func (r *Router) registerTokens() {
	h := &TokensHandler{TokenService: r.TokenService}

	r.Mux.Handle("POST /v1/tokens",
		r.secured(http.HandlerFunc(h.HandleIssue), jwtx.ScopeAdminWrite, r.Limits.Moderate))
	r.Mux.Handle("GET /v1/tokens",
		r.secured(http.HandlerFunc(h.HandleList), jwtx.ScopeAdminRead, r.Limits.Moderate))
}

func (r *Router) registerSubscriptions() {
	h := &SubscriptionsHandler{
		RenewalService:      r.RenewalService,
		SubscriptionService: r.SubscriptionService,
	}

	r.Mux.Handle("GET /v1/subscriptions",
		r.secured(http.HandlerFunc(h.HandleList), jwtx.ScopeAdminRead, r.Limits.Moderate))
	r.Mux.Handle("POST /v1/subscriptions/{ref}/renew",
		r.secured(http.HandlerFunc(h.HandleRenew), jwtx.ScopeAdminWrite, r.Limits.Moderate))

	// Purge is destructive and may be TOTP gated: strict limit against guessing.
	r.Mux.Handle("POST /v1/subscriptions/purge",
		r.secured(http.HandlerFunc(h.HandlePurge), jwtx.ScopeAdminWrite, r.Limits.Strict))
}

func (r *Router) registerOperations() {
	h := &OperationsHandler{
		Sweeper:            r.Sweeper,
		ReminderService:    r.ReminderService,
		DiagnosticsService: r.DiagnosticsService,
	}

	r.Mux.Handle("POST /v1/sweeps",
		r.secured(http.HandlerFunc(h.HandleSweep), jwtx.ScopeAdminWrite, r.Limits.Moderate))
	r.Mux.Handle("POST /v1/reminders",
		r.secured(http.HandlerFunc(h.HandleRemind), jwtx.ScopeAdminWrite, r.Limits.Moderate))
	r.Mux.Handle("GET /v1/diagnostics",
		r.secured(http.HandlerFunc(h.HandleDiagnostics), jwtx.ScopeAdminRead, r.Limits.Moderate))
}
