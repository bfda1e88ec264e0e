package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName     string
	AppEnv      string
	AppURL      string
	AppVersion  string
	Port        string
	FrontendURL string
	TrustProxy  bool // honor X-Forwarded-For / X-Real-IP for client IPs

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret       string
	JWTExpiry       time.Duration
	OTPExpiry       time.Duration
	OTPResendWindow time.Duration

	// OTP store (optional, in-memory when empty)
	RedisURL string

	// Email
	EmailProvider  string // "log", "resend", "sendgrid" or "smtp"
	EmailFrom      string
	ResendAPIKey   string
	SendGridAPIKey string
	SMTPServer     string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string

	// Payment
	PaymentProvider    string // "stripe" or "polar"
	CheckoutSuccessURL string
	CheckoutCancelURL  string
	BillingTimeout     time.Duration
	// Payment - Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceIDPro    string
	// Payment - Polar
	PolarAPIKey        string
	PolarWebhookSecret string
	PolarSandboxMode   bool
	PolarProductIDPro  string

	// Market data
	CoinGeckoURL   string
	MarketCacheTTL time.Duration
	MarketTimeout  time.Duration

	// Observability (optional)
	SentryDSN string

	// Webhook archive (optional, S3-compatible)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string

	// Maintenance
	EventRetention  time.Duration
	CleanupSchedule string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:     envString("APP_NAME", "AI Crypto Backend"),
		AppEnv:      envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:      envString("APP_URL", "http://localhost:8000"),
		AppVersion:  envString("APP_VERSION", "1.2.0"),
		Port:        envString("PORT", "8000"),
		FrontendURL: envString("FRONTEND_URL", "http://localhost:8501"),
		TrustProxy:  envBool("TRUST_PROXY", false),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/predictor.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret:       envRequired("JWT_SECRET"),
		JWTExpiry:       envDuration("JWT_EXPIRY", 168*time.Hour),       // 7 days
		OTPExpiry:       envDuration("OTP_EXPIRY", 10*time.Minute),      // 10 minutes
		OTPResendWindow: envDuration("OTP_RESEND_WINDOW", 60*time.Second), // 60 seconds

		RedisURL: envString("REDIS_URL", ""),

		// Email (provider "log" only writes to the log)
		EmailProvider:  envString("EMAIL_PROVIDER", "log"),
		EmailFrom:      envString("EMAIL_FROM", envString("SMTP_USER", "noreply@example.com")),
		ResendAPIKey:   envString("RESEND_API_KEY", ""),
		SendGridAPIKey: envString("SENDGRID_API_KEY", ""),
		SMTPServer:     envString("SMTP_SERVER", ""),
		SMTPPort:       envInt("SMTP_PORT", 587),
		SMTPUser:       envString("SMTP_USER", ""),
		SMTPPass:       envString("SMTP_PASS", ""),

		// Payment
		PaymentProvider:     envString("PAYMENT_PROVIDER", "stripe"),
		CheckoutSuccessURL:  envString("CHECKOUT_SUCCESS_URL", envString("FRONTEND_URL", "http://localhost:8501")+"?checkout=success"),
		CheckoutCancelURL:   envString("CHECKOUT_CANCEL_URL", envString("FRONTEND_URL", "http://localhost:8501")+"?checkout=cancel"),
		BillingTimeout:      envDuration("BILLING_TIMEOUT", 10*time.Second),
		StripeSecretKey:     envString("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: envString("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceIDPro:    envString("STRIPE_PRICE_ID_PRO", ""),
		PolarAPIKey:         envString("POLAR_API_KEY", ""),
		PolarWebhookSecret:  envString("POLAR_WEBHOOK_SECRET", ""),
		PolarSandboxMode:    envBool("POLAR_SANDBOX_MODE", envString("APP_ENV", "development") == "development"),
		PolarProductIDPro:   envString("POLAR_PRODUCT_ID_PRO", ""),

		// Market data
		CoinGeckoURL:   envString("COINGECKO_URL", "https://api.coingecko.com/api/v3/simple/price"),
		MarketCacheTTL: envDuration("MARKET_CACHE_TTL", 10*time.Second),
		MarketTimeout:  envDuration("MARKET_TIMEOUT", 15*time.Second),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Webhook archive
		S3Region:    envString("S3_REGION", ""),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),

		// Maintenance
		EventRetention:  envDuration("EVENT_RETENTION", 30*24*time.Hour),
		CleanupSchedule: envString("CLEANUP_SCHEDULE", "@daily"),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures the mail transport is real in production.
// Billing secrets are checked by payment.NewProvider in every environment.
func validateProduction(cfg *Config) {
	if cfg.EmailProvider == "log" {
		slog.Error("production deployment requires a real EMAIL_PROVIDER",
			"hint", "set EMAIL_PROVIDER to resend, sendgrid or smtp")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ArchiveEnabled reports whether verified webhook payloads are copied to S3.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:         c.AppName,
		AppEnv:          c.AppEnv,
		AppURL:          c.AppURL,
		AppVersion:      c.AppVersion,
		Port:            c.Port,
		FrontendURL:     c.FrontendURL,
		EmailProvider:   c.EmailProvider,
		EmailFrom:       c.EmailFrom,
		PaymentProvider: c.PaymentProvider,
	}
}
