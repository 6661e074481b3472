package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	APIEnv          string `envconfig:"API_ENV" default:"local"`
	Port            string `envconfig:"PORT" default:"9090"`
	BaseURL         string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:3000"`
	MaintenanceMode bool   `envconfig:"MAINTENANCE_MODE" default:"false"`
	DebugSecret     string `envconfig:"DEBUG_SECRET"`
	Timezone        string `envconfig:"APP_TIMEZONE" default:"UTC"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	Currency            string `envconfig:"CHECKOUT_CURRENCY" default:"usd"`

	GoogleServiceAccountEmail string `envconfig:"GOOGLE_SERVICE_ACCOUNT_EMAIL"`
	GooglePrivateKey          string `envconfig:"GOOGLE_PRIVATE_KEY"`
	GoogleCalendarID          string `envconfig:"GOOGLE_CALENDAR_ID"`

	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     string `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseUser     string `envconfig:"DATABASE_USER"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD"`
	DatabaseName     string `envconfig:"DATABASE_NAME"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSLMODE" default:"disable"`
	DatabaseTimezone string `envconfig:"DATABASE_TIMEZONE" default:"UTC"`

	RedisURL  string `envconfig:"REDIS_URL"`
	RateLimit string `envconfig:"RATE_LIMIT" default:"30-M"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"noreply@localhost"`

	ExternalCallTimeout time.Duration `envconfig:"EXTERNAL_CALL_TIMEOUT" default:"5s"`
	PendingBookingTTL   time.Duration `envconfig:"PENDING_BOOKING_TTL" default:"1h"`
	SweeperInterval     time.Duration `envconfig:"SWEEPER_INTERVAL" default:"15m"`

	location *time.Location
}

// Load reads the process environment once. Nothing below main should call os.Getenv.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc
	if c.PendingBookingTTL < MIN_PENDING_BOOKING_TTL || c.PendingBookingTTL > MAX_PENDING_BOOKING_TTL {
		return nil, fmt.Errorf("PENDING_BOOKING_TTL %s must be between %s and %s", c.PendingBookingTTL, MIN_PENDING_BOOKING_TTL, MAX_PENDING_BOOKING_TTL)
	}
	return &c, nil
}

// Location falls back to UTC for configs built by hand (tests).
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) SetLocation(loc *time.Location) {
	c.location = loc
}

func (c *Config) IsProd() bool {
	return c.APIEnv == "production"
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DatabaseHost, c.DatabaseUser, c.DatabasePassword, c.DatabaseName, c.DatabasePort, c.DatabaseSSLMode, c.DatabaseTimezone,
	)
}

func (c *Config) CalendarConfigured() bool {
	return c.GoogleServiceAccountEmail != "" && c.GooglePrivateKey != "" && c.GoogleCalendarID != ""
}

func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != ""
}

// WebhookURL is the endpoint registered with Stripe.
func (c *Config) WebhookURL() string {
	return c.BaseURL + "/api/webhook/stripe"
}

// StatusVars lists the variables reported by the webhook status endpoint,
// in display order. Values are never exposed, only presence.
var StatusVars = []string{
	"STRIPE_SECRET_KEY",
	"STRIPE_WEBHOOK_SECRET",
	"GOOGLE_SERVICE_ACCOUNT_EMAIL",
	"GOOGLE_PRIVATE_KEY",
	"GOOGLE_CALENDAR_ID",
	"PUBLIC_BASE_URL",
	"DATABASE_HOST",
	"DATABASE_USER",
	"DATABASE_PASSWORD",
	"DATABASE_NAME",
}

func (c *Config) Presence() map[string]bool {
	values := map[string]string{
		"STRIPE_SECRET_KEY":            c.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET":        c.StripeWebhookSecret,
		"GOOGLE_SERVICE_ACCOUNT_EMAIL": c.GoogleServiceAccountEmail,
		"GOOGLE_PRIVATE_KEY":           c.GooglePrivateKey,
		"GOOGLE_CALENDAR_ID":           c.GoogleCalendarID,
		"PUBLIC_BASE_URL":              c.BaseURL,
		"DATABASE_HOST":                c.DatabaseHost,
		"DATABASE_USER":                c.DatabaseUser,
		"DATABASE_PASSWORD":            c.DatabasePassword,
		"DATABASE_NAME":                c.DatabaseName,
	}
	presence := make(map[string]bool, len(values))
	for _, name := range StatusVars {
		presence[name] = values[name] != ""
	}
	return presence
}

// LocalEnv reports whether .env should be loaded. This is the only environment
// read outside Load because it decides whether Load sees the .env values.
func LocalEnv() bool {
	return os.Getenv("API_ENV") == "" || os.Getenv("API_ENV") == "local"
}

const (
	DATE_FORMAT  = "2006-01-02"
	CLOCK_FORMAT = "15:04"
)

// Stripe only accepts Checkout expirations in this range.
const (
	MIN_PENDING_BOOKING_TTL = 30 * time.Minute
	MAX_PENDING_BOOKING_TTL = 24 * time.Hour
)
