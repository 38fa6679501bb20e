package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	_ "time/tzdata" // TZ must resolve on distroless images

	"github.com/aussiebroadwan/leasekeeper/internal/lease/bot"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway/telegram"
	httpapi "github.com/aussiebroadwan/leasekeeper/internal/lease/http"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/metrics"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/report"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/service"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store/drivers/postgres"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/store/drivers/sqlite"
	"github.com/aussiebroadwan/leasekeeper/pkg/clockx"
	"github.com/aussiebroadwan/leasekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/leasekeeper/pkg/otelx"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the lease keeper with all its dependencies
type Application struct {
	cfg      Config
	logger   *slog.Logger
	location *time.Location
	clock    clockx.Clock

	// Core dependencies
	db            store.Store
	botAPI        *tgbotapi.BotAPI
	gateway       gateway.Gateway
	metrics       *metrics.Metrics
	verifier      jwtx.Verifier
	traceShutdown func(context.Context) error

	// Services
	tokenService        *service.TokenService
	admissionService    *service.AdmissionService
	renewalService      *service.RenewalService
	sweeper             *service.Sweeper
	reminderService     *service.ReminderService
	subscriptionService *service.SubscriptionService
	diagnosticsService  *service.DiagnosticsService
	housekeeper         *service.Housekeeper
	scheduler           *service.Scheduler

	bot *bot.Bot

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "leasekeeper",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(),
	}

	loc, err := clockx.Zone(cfg.TZ)
	if err != nil {
		return nil, err
	}
	app.location = loc
	app.clock = clockx.System(loc)

	app.traceShutdown, err = otelx.Setup(ctx, otelx.Config{
		Endpoint: cfg.OTLPEndpoint,
		Service:  "leasekeeper",
		Version:  BuildVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initGateway(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.verifier, err = InitAdminVerifier(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize admin key: %w", err)
	}

	if err := app.initServices(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initBot()
	app.initHTTP()

	return app, nil
}

// Run starts every worker and blocks until ctx is cancelled or one of them
// fails, then shuts the rest down.
func (app *Application) Run(ctx context.Context) error {
	app.logger.Info("leasekeeper starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"group_id", app.cfg.GroupID,
		"sweep_at", app.scheduler.At.String(),
		"tz", app.location.String(),
	)

	ctx = slogx.WithContext(ctx, app.logger)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.bot.Run(gctx)
	})
	g.Go(func() error {
		return app.scheduler.Run(gctx)
	})
	g.Go(func() error {
		return app.housekeeper.Run(gctx)
	})
	g.Go(func() error {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutdown requested")
		app.shutdownServer()
		return nil
	})

	runErr := g.Wait()

	if err := app.Shutdown(); err != nil {
		return errors.Join(runErr, fmt.Errorf("graceful shutdown failed: %w", err))
	}
	return runErr
}

// shutdownServer gives outstanding admin requests a deadline for completion.
func (app *Application) shutdownServer() {
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}
}

// Shutdown flushes traces and closes the database. Every worker started by
// Run must already have returned.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down leasekeeper...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()
	if err := app.traceShutdown(ctx); err != nil {
		app.logger.Error("error flushing traces", "error", err)
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("leasekeeper stopped")
	return nil
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DBDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DBPath)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DBDriver)
	return nil
}

// initGateway connects to the Bot API and checks the bot's standing in the
// managed group. Missing permissions are logged, not fatal.
func (app *Application) initGateway(ctx context.Context) error {
	if err := tgbotapi.SetLogger(slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug)); err != nil {
		return fmt.Errorf("failed to set bot logger: %w", err)
	}

	botAPI, err := tgbotapi.NewBotAPI(app.cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	app.botAPI = botAPI
	app.gateway = telegram.NewFromBot(botAPI, app.cfg.GatewayRatePerSec)

	app.logger.Info("connected to Telegram", "bot", botAPI.Self.UserName, "bot_id", botAPI.Self.ID)

	perms, err := app.gateway.CheckPermissions(ctx, app.cfg.GroupID)
	switch {
	case err != nil:
		app.logger.Warn("could not check group permissions", "group_id", app.cfg.GroupID, "error", err)
	case !perms.Sufficient():
		app.logger.Warn("bot lacks group permissions",
			"group_id", app.cfg.GroupID,
			"status", perms.Status,
			"can_invite_users", perms.CanInviteUsers,
			"can_restrict_members", perms.CanRestrictMembers,
		)
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices(ctx context.Context) error {
	app.tokenService = &service.TokenService{
		Store:    app.db,
		Gateway:  app.gateway,
		Clock:    app.clock,
		Metrics:  app.metrics,
		GroupID:  app.cfg.GroupID,
		Validity: app.cfg.InviteValidity,
	}
	app.admissionService = &service.AdmissionService{
		Store:   app.db,
		Gateway: app.gateway,
		Clock:   app.clock,
		Metrics: app.metrics,
		GroupID: app.cfg.GroupID,
	}
	app.renewalService = &service.RenewalService{
		Store:   app.db,
		Gateway: app.gateway,
		Clock:   app.clock,
		Metrics: app.metrics,
	}
	app.sweeper = &service.Sweeper{
		Store:   app.db,
		Gateway: app.gateway,
		Clock:   app.clock,
		Metrics: app.metrics,
		GroupID: app.cfg.GroupID,
	}
	app.reminderService = &service.ReminderService{
		Store:   app.db,
		Gateway: app.gateway,
		Clock:   app.clock,
		Metrics: app.metrics,
		Window:  app.cfg.ReminderWindow,
	}
	app.subscriptionService = &service.SubscriptionService{
		Store:       app.db,
		Clock:       app.clock,
		PurgeSecret: app.cfg.PurgeTOTPSecret,
	}
	app.diagnosticsService = &service.DiagnosticsService{
		Gateway: app.gateway,
		GroupID: app.cfg.GroupID,
	}

	reporter, err := report.New(ctx, app.cfg.Report(), app.location, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize sweep reports: %w", err)
	}
	if reporter != nil {
		app.sweeper.Reporter = reporter
	}

	app.housekeeper = &service.Housekeeper{
		Store:    app.db,
		Gateway:  app.gateway,
		Clock:    app.clock,
		Metrics:  app.metrics,
		GroupID:  app.cfg.GroupID,
		Interval: app.cfg.HousekeepingInterval,
	}

	at, err := service.ParseTimeOfDay(app.cfg.SweepAt)
	if err != nil {
		return fmt.Errorf("invalid SWEEP_AT: %w", err)
	}
	app.scheduler = &service.Scheduler{
		At:     at,
		Clock:  app.clock,
		Logger: app.logger,
		Jobs: []service.Job{
			{Name: "sweep", Run: func(ctx context.Context) error {
				_, err := app.sweeper.Sweep(ctx)
				return err
			}},
			{Name: "remind", Run: func(ctx context.Context) error {
				_, err := app.reminderService.Remind(ctx)
				return err
			}},
		},
	}

	return nil
}

// initBot wires the update loop to the services
func (app *Application) initBot() {
	app.bot = &bot.Bot{
		Updates:  app.botAPI,
		Sender:   app.botAPI,
		Logger:   app.logger,
		AdminIDs: app.cfg.AdminIDs,
		Location: app.location,

		Tokens:        app.tokenService,
		Admission:     app.admissionService,
		Renewal:       app.renewalService,
		Sweeper:       app.sweeper,
		Reminders:     app.reminderService,
		Subscriptions: app.subscriptionService,
		Diagnostics:   app.diagnosticsService,
	}

	if len(app.cfg.AdminIDs) == 0 {
		app.logger.Warn("ADMIN_IDS is empty, chat commands are disabled")
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.metrics,
		app.logger,
	)

	// Wire services to router
	router.TokenService = app.tokenService
	router.RenewalService = app.renewalService
	router.SubscriptionService = app.subscriptionService
	router.Sweeper = app.sweeper
	router.ReminderService = app.reminderService
	router.DiagnosticsService = app.diagnosticsService
	router.Limits = app.cfg.RateLimits
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
