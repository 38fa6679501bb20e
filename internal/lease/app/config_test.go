package app

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/leasekeeper/pkg/httpx"
	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/require"
)

func environ(kv map[string]string) env.Options {
	base := map[string]string{
		"BOT_TOKEN": "123:abc",
		"GROUP_ID":  "-100500",
	}
	for k, v := range kv {
		base[k] = v
	}
	return env.Options{Environment: base}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(environ(nil))
	require.NoError(t, err)

	require.Equal(t, "123:abc", cfg.BotToken)
	require.Equal(t, int64(-100500), cfg.GroupID)
	require.Empty(t, cfg.AdminIDs)
	require.Equal(t, "America/Santiago", cfg.TZ)
	require.Equal(t, 48*time.Hour, cfg.InviteValidity)
	require.Equal(t, "03:00", cfg.SweepAt)
	require.Equal(t, 72*time.Hour, cfg.ReminderWindow)
	require.Equal(t, DriverSQLite, cfg.DBDriver)
	require.Equal(t, "leasekeeper.db", cfg.DBPath)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "leasekeeper", cfg.AdminTokenIssuer)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, "json", cfg.LogFormat)
	require.False(t, cfg.Report().Enabled())
	require.Equal(t, httpx.DefaultRateLimits(), cfg.RateLimits)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(environ(map[string]string{
		"ADMIN_IDS":         "1,22,333",
		"TZ":                "UTC",
		"INVITE_VALIDITY":   "2h",
		"SWEEP_AT":          "23:45",
		"REMINDER_WINDOW":   "0s",
		"DB_DRIVER":         "postgres",
		"DATABASE_URL":      "postgres://lease@localhost/lease",
		"REPORT_EMAIL_FROM": "bot@example.com",
		"REPORT_EMAIL_TO":   "ops@example.com,owner@example.com",
		"AWS_REGION":        "us-east-1",

		"RATELIMIT_STRICT_REQUESTS": "2",
		"RATELIMIT_STRICT_WINDOW":   "30s",
	}))
	require.NoError(t, err)

	require.Equal(t, []int64{1, 22, 333}, cfg.AdminIDs)
	require.Equal(t, 2*time.Hour, cfg.InviteValidity)
	require.Equal(t, time.Duration(0), cfg.ReminderWindow)
	require.Equal(t, DriverPostgres, cfg.DBDriver)
	require.Equal(t, 2, cfg.RateLimits.Strict.RequestsPerWindow)
	require.Equal(t, 30*time.Second, cfg.RateLimits.Strict.Window)
	require.Equal(t, httpx.DefaultRateLimits().Strict.Burst, cfg.RateLimits.Strict.Burst)
	require.Equal(t, httpx.DefaultRateLimits().Public, cfg.RateLimits.Public)

	rep := cfg.Report()
	require.True(t, rep.Enabled())
	require.Equal(t, []string{"ops@example.com", "owner@example.com"}, rep.To)
	require.Equal(t, "us-east-1", rep.Region)
}

func TestLoadConfigParseError(t *testing.T) {
	_, err := loadConfig(environ(map[string]string{"GROUP_ID": "not-a-number"}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			BotToken:       "123:abc",
			GroupID:        -100500,
			TZ:             "UTC",
			InviteValidity: 48 * time.Hour,
			SweepAt:        "03:00",
			DBDriver:       DriverSQLite,
			DBPath:         "lease.db",
			Port:           8080,
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing bot token", func(c *Config) { c.BotToken = "" }, "BOT_TOKEN"},
		{"missing group", func(c *Config) { c.GroupID = 0 }, "GROUP_ID"},
		{"zero validity", func(c *Config) { c.InviteValidity = 0 }, "INVITE_VALIDITY"},
		{"negative reminder window", func(c *Config) { c.ReminderWindow = -time.Hour }, "REMINDER_WINDOW"},
		{"bad sweep time", func(c *Config) { c.SweepAt = "25:00" }, "SWEEP_AT"},
		{"unknown zone", func(c *Config) { c.TZ = "Mars/Olympus_Mons" }, "TZ"},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"postgres without url", func(c *Config) { c.DBDriver = DriverPostgres }, "DATABASE_URL"},
		{"port out of range", func(c *Config) { c.Port = 70000 }, "PORT"},
		{"negative rate limit", func(c *Config) { c.RateLimits.Strict.Burst = -1 }, "RATELIMIT_STRICT"},
		{"sender without recipients", func(c *Config) { c.ReportEmailFrom = "bot@example.com" }, "REPORT_EMAIL_TO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	err := Config{DBDriver: DriverSQLite, DBPath: "x.db", SweepAt: "03:00", Port: 1, InviteValidity: time.Hour}.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "BOT_TOKEN")
	require.Contains(t, err.Error(), "GROUP_ID")
}
