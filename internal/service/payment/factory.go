package payment

import (
	"fmt"
	"log/slog"

	"github.com/aicrypto/predictor/internal/config"
	"github.com/aicrypto/predictor/internal/model"
)

// NewProvider creates a payment provider based on configuration.
// A webhook secret is mandatory for every provider: verification is never skipped.
func NewProvider(cfg *config.Config) (Provider, error) {
	provider := cfg.PaymentProvider

	slog.Info("initializing payment provider", "provider", provider)

	switch provider {
	case model.ProviderStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY is required when using Stripe provider")
		}
		if cfg.StripeWebhookSecret == "" {
			return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when using Stripe provider")
		}
		if cfg.StripePriceIDPro == "" {
			return nil, fmt.Errorf("STRIPE_PRICE_ID_PRO is required when using Stripe provider")
		}
		return NewStripeProvider(StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			PriceID:       cfg.StripePriceIDPro,
			SuccessURL:    cfg.CheckoutSuccessURL,
			CancelURL:     cfg.CheckoutCancelURL,
		}), nil

	case model.ProviderPolar:
		if cfg.PolarAPIKey == "" {
			return nil, fmt.Errorf("POLAR_API_KEY is required when using Polar provider")
		}
		if cfg.PolarWebhookSecret == "" {
			return nil, fmt.Errorf("POLAR_WEBHOOK_SECRET is required when using Polar provider")
		}
		if cfg.PolarProductIDPro == "" {
			return nil, fmt.Errorf("POLAR_PRODUCT_ID_PRO is required when using Polar provider")
		}
		return NewPolarProvider(PolarConfig{
			APIKey:        cfg.PolarAPIKey,
			WebhookSecret: cfg.PolarWebhookSecret,
			ProductID:     cfg.PolarProductIDPro,
			SandboxMode:   cfg.PolarSandboxMode,
			SuccessURL:    cfg.CheckoutSuccessURL,
			ReturnURL:     cfg.CheckoutCancelURL,
		}), nil

	default:
		return nil, fmt.Errorf("unknown payment provider: %s (supported: stripe, polar)", provider)
	}
}
