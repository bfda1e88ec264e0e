package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpersFallBackToDefaults(t *testing.T) {
	t.Setenv("TEST_INT", "not-a-number")
	t.Setenv("TEST_BOOL", "maybe")
	t.Setenv("TEST_DURATION", "soon")

	assert.Equal(t, 587, envInt("TEST_INT", 587))
	assert.True(t, envBool("TEST_BOOL", true))
	assert.Equal(t, 10*time.Second, envDuration("TEST_DURATION", 10*time.Second))
	assert.Equal(t, "fallback", envString("TEST_UNSET_STRING", "fallback"))
}

func TestEnvHelpersParseValues(t *testing.T) {
	t.Setenv("TEST_INT", "2525")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_DURATION", "90s")

	assert.Equal(t, 2525, envInt("TEST_INT", 587))
	assert.False(t, envBool("TEST_BOOL", true))
	assert.Equal(t, 90*time.Second, envDuration("TEST_DURATION", time.Second))
}

func TestLoad(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("FRONTEND_URL", "https://dash.example.com")
	t.Setenv("STRIPE_PRICE_ID_PRO", "price_123")

	cfg := Load()

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "price_123", cfg.StripePriceIDPro)
	assert.Equal(t, "https://dash.example.com?checkout=success", cfg.CheckoutSuccessURL)
	assert.Equal(t, "https://dash.example.com?checkout=cancel", cfg.CheckoutCancelURL)
	assert.Equal(t, 10*time.Minute, cfg.OTPExpiry)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestSanitizedDropsSecrets(t *testing.T) {
	cfg := &Config{
		AppName:         "Acme",
		JWTSecret:       "jwt",
		StripeSecretKey: "sk_test",
		SMTPPass:        "hunter2",
		PaymentProvider: "stripe",
	}

	s := cfg.Sanitized()

	assert.Equal(t, "Acme", s.AppName)
	assert.Equal(t, "stripe", s.PaymentProvider)
	assert.Empty(t, s.JWTSecret)
	assert.Empty(t, s.StripeSecretKey)
	assert.Empty(t, s.SMTPPass)
}
