package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/report"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/service"
	"github.com/aussiebroadwan/leasekeeper/pkg/clockx"
	"github.com/aussiebroadwan/leasekeeper/pkg/httpx"
	"github.com/caarlos0/env/v11"
)

// Database drivers understood by DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	BotToken string  `env:"BOT_TOKEN"`
	GroupID  int64   `env:"GROUP_ID"` // managed group, a negative chat id
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`
	TZ       string  `env:"TZ" envDefault:"America/Santiago"`

	InviteValidity time.Duration `env:"INVITE_VALIDITY" envDefault:"48h"`
	SweepAt        string        `env:"SWEEP_AT" envDefault:"03:00"`
	// ReminderWindow of 0 disables reminders.
	ReminderWindow time.Duration `env:"REMINDER_WINDOW" envDefault:"72h"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH" envDefault:"leasekeeper.db"`
	DatabaseURL string `env:"DATABASE_URL"`

	Port int `env:"PORT" envDefault:"8080"`
	// AdminKeyFile holds an Ed25519 PKCS8 PEM key. Empty disables the admin API.
	AdminKeyFile     string `env:"ADMIN_KEY_FILE"`
	AdminTokenIssuer string `env:"ADMIN_TOKEN_ISSUER" envDefault:"leasekeeper"`
	// PurgeTOTPSecret is base32. Empty means purge needs no code.
	PurgeTOTPSecret string `env:"PURGE_TOTP_SECRET"`
	// RateLimits is read from RATELIMIT_{STRICT,MODERATE,PUBLIC}_{REQUESTS,WINDOW,BURST}.
	RateLimits httpx.RateLimitProfiles `envPrefix:"RATELIMIT_"`

	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	GatewayRatePerSec    float64       `env:"GATEWAY_RATE_PER_SEC" envDefault:"20"`

	ReportEmailFrom string   `env:"REPORT_EMAIL_FROM"`
	ReportEmailTo   []string `env:"REPORT_EMAIL_TO" envSeparator:","`
	AWSRegion       string   `env:"AWS_REGION"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (Config, error) {
	return loadConfig(env.Options{})
}

func loadConfig(opts env.Options) (Config, error) {
	cfg := Config{RateLimits: httpx.DefaultRateLimits()}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem with cfg at once.
func (c Config) Validate() error {
	var errs []error

	if c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}
	if c.GroupID == 0 {
		errs = append(errs, errors.New("GROUP_ID is required"))
	}
	if c.InviteValidity <= 0 {
		errs = append(errs, fmt.Errorf("INVITE_VALIDITY must be positive, got %s", c.InviteValidity))
	}
	if c.ReminderWindow < 0 {
		errs = append(errs, fmt.Errorf("REMINDER_WINDOW must not be negative, got %s", c.ReminderWindow))
	}
	if _, err := service.ParseTimeOfDay(c.SweepAt); err != nil {
		errs = append(errs, fmt.Errorf("SWEEP_AT: %w", err))
	}
	if _, err := clockx.Zone(c.TZ); err != nil {
		errs = append(errs, fmt.Errorf("TZ: %w", err))
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	for name, rl := range map[string]httpx.RateLimitConfig{
		"STRICT":   c.RateLimits.Strict,
		"MODERATE": c.RateLimits.Moderate,
		"PUBLIC":   c.RateLimits.Public,
	} {
		if rl.RequestsPerWindow < 0 || rl.Window < 0 || rl.Burst < 0 {
			errs = append(errs, fmt.Errorf("RATELIMIT_%s_* must not be negative", name))
		}
	}
	if c.ReportEmailFrom != "" && len(c.ReportEmailTo) == 0 {
		errs = append(errs, errors.New("REPORT_EMAIL_TO is required when REPORT_EMAIL_FROM is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Report returns the sweep report settings.
func (c Config) Report() report.Config {
	return report.Config{
		Region: c.AWSRegion,
		From:   c.ReportEmailFrom,
		To:     c.ReportEmailTo,
	}
}
