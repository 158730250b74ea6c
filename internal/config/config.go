package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"practiceplanner/internal/scheduler"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	Port        string
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string

	// Scheduling defaults for generated proposals.
	Location        *time.Location
	SessionDuration time.Duration
	LookaheadDays   int
	DayStartHour    int
	DayEndHour      int
	Mode            scheduler.Mode
	Granularity     time.Duration

	ClassifyThreshold float64
	ClassifyBatchSize int

	// Cron specs; an empty spec disables the job.
	CronProposals string
	CronPurge     string
	CronClassify  string
	CronDigest    string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFromNumber  string
	DigestEmail       string
	DigestName        string
	DigestPhone       string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("PLANNER_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		TokenTTL:    time.Duration(getEnvInt("JWT_TTL_MINUTES", 60)) * time.Minute,
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		ClassifyThreshold: getEnvFloat("CLASSIFY_THRESHOLD", 70),
		ClassifyBatchSize: getEnvInt("CLASSIFY_BATCH_SIZE", 10),

		CronProposals: getEnv("CRON_PROPOSALS", "0 6 * * *"),
		CronPurge:     getEnv("CRON_PURGE", "@hourly"),
		CronClassify:  getEnv("CRON_CLASSIFY", "*/30 * * * *"),
		CronDigest:    getEnv("CRON_DIGEST", "30 7 * * *"),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Practice Planner"),
		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:  getEnv("TWILIO_FROM_NUMBER", ""),
		DigestEmail:       getEnv("DIGEST_EMAIL", ""),
		DigestName:        getEnv("DIGEST_NAME", ""),
		DigestPhone:       getEnv("DIGEST_PHONE", ""),
	}

	// Scheduling parameters must parse when set; a typo never falls back to
	// the default.
	var sessionMinutes, granularityMinutes int
	for _, v := range []struct {
		key string
		def int
		dst *int
	}{
		{"SESSION_MINUTES", 60, &sessionMinutes},
		{"LOOKAHEAD_DAYS", 14, &cfg.LookaheadDays},
		{"DAY_START_HOUR", 9, &cfg.DayStartHour},
		{"DAY_END_HOUR", 22, &cfg.DayEndHour},
		{"SLOT_GRANULARITY_MINUTES", 15, &granularityMinutes},
	} {
		n, err := parseEnvInt(v.key, v.def)
		if err != nil {
			return nil, err
		}
		*v.dst = n
	}
	cfg.SessionDuration = time.Duration(sessionMinutes) * time.Minute
	cfg.Granularity = time.Duration(granularityMinutes) * time.Minute

	tz := getEnv("PLANNER_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("PLANNER_TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	mode, ok := scheduler.ParseMode(getEnv("SCHEDULE_MODE", string(scheduler.ModeExhaustive)))
	if !ok {
		return nil, fmt.Errorf("SCHEDULE_MODE must be %q or %q", scheduler.ModeExhaustive, scheduler.ModeSinglePerDay)
	}
	cfg.Mode = mode

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be provided")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be provided")
	}
	if cfg.ClassifyThreshold < 0 || cfg.ClassifyThreshold > 100 {
		return nil, fmt.Errorf("CLASSIFY_THRESHOLD must be within 0-100")
	}

	// Surface bad scheduling defaults at startup rather than on the first cron run.
	if err := scheduler.Validate(cfg.ScheduleRequest(time.Now(), nil)); err != nil {
		return nil, fmt.Errorf("scheduling defaults: %w", err)
	}
	return cfg, nil
}

// ScheduleRequest builds a scheduler request from the configured defaults.
func (c *Config) ScheduleRequest(now time.Time, busy []scheduler.BusyInterval) scheduler.ScheduleRequest {
	return scheduler.ScheduleRequest{
		Busy:            busy,
		SessionDuration: c.SessionDuration,
		LookaheadDays:   c.LookaheadDays,
		Window:          scheduler.Window{DayStartHour: c.DayStartHour, DayEndHour: c.DayEndHour},
		Now:             now,
		Location:        c.Location,
		Mode:            c.Mode,
		Granularity:     c.Granularity,
	}
}

func (c *Config) EmailEnabled() bool {
	return c.SendGridAPIKey != "" && c.SendGridFromEmail != "" && c.DigestEmail != ""
}

func (c *Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != "" && c.DigestPhone != ""
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func parseEnvInt(key string, def int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, val)
	}
	return n, nil
}

func getEnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
