package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aicrypto/predictor/internal/model"
	polargo "github.com/polarsource/polar-go"
	"github.com/polarsource/polar-go/models/components"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"
)

type PolarConfig struct {
	APIKey        string
	WebhookSecret string
	ProductID     string
	SandboxMode   bool
	SuccessURL    string
	ReturnURL     string
}

type PolarProvider struct {
	cfg    PolarConfig
	client *polargo.Polar
}

func NewPolarProvider(cfg PolarConfig) *PolarProvider {
	var serverOption polargo.SDKOption
	if cfg.SandboxMode {
		serverOption = polargo.WithServer(polargo.ServerSandbox)
		slog.Info("polar using sandbox mode")
	} else {
		serverOption = polargo.WithServer(polargo.ServerProduction)
		slog.Info("polar using production mode")
	}

	client := polargo.New(
		polargo.WithSecurity(cfg.APIKey),
		serverOption,
	)

	return &PolarProvider{
		cfg:    cfg,
		client: client,
	}
}

func (p *PolarProvider) Name() string {
	return model.ProviderPolar
}

func (p *PolarProvider) CreateCheckoutURL(ctx context.Context, customerEmail string) (string, error) {
	checkout := components.CheckoutCreate{
		Products:   []string{p.cfg.ProductID},
		SuccessURL: polargo.String(p.cfg.SuccessURL),
		ReturnURL:  polargo.String(p.cfg.ReturnURL),
	}
	if customerEmail != "" {
		checkout.CustomerEmail = polargo.String(customerEmail)
	}

	res, err := p.client.Checkouts.Create(ctx, checkout)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout: %w", err)
	}

	if res == nil || res.Checkout == nil {
		return "", fmt.Errorf("checkout response is nil")
	}

	slog.Info("polar checkout created", "email", customerEmail, "checkout_id", res.Checkout.ID)
	return res.Checkout.URL, nil
}

// ParseWebhook verifies a Standard Webhooks signature. A succeeded checkout
// is reported as EventCheckoutCompleted so dispatch stays provider-neutral.
func (p *PolarProvider) ParseWebhook(payload []byte, headers http.Header) (*Event, error) {
	wh, err := standardwebhooks.NewWebhookRaw([]byte(p.cfg.WebhookSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook verifier: %w", err)
	}

	err = wh.Verify(payload, headers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			Status        string `json:"status"`
			CustomerEmail string `json:"customer_email"`
		} `json:"data"`
	}

	err = json.Unmarshal(payload, &event)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse webhook: %v", ErrInvalidWebhook, err)
	}

	result := &Event{
		ID:       headers.Get("webhook-id"),
		Type:     event.Type,
		Provider: model.ProviderPolar,
	}

	if event.Type == "checkout.updated" && event.Data.Status == "succeeded" {
		result.Type = EventCheckoutCompleted
		result.CustomerEmail = event.Data.CustomerEmail
	}

	return result, nil
}
