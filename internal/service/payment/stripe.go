package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aicrypto/predictor/internal/model"
	"github.com/stripe/stripe-go/v81"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

type StripeProvider struct {
	cfg StripeConfig
}

func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	// Set Stripe API key
	stripe.Key = cfg.SecretKey

	slog.Info("stripe provider initialized", "price_id", cfg.PriceID)

	return &StripeProvider{cfg: cfg}
}

func (s *StripeProvider) Name() string {
	return model.ProviderStripe
}

func (s *StripeProvider) CreateCheckoutURL(ctx context.Context, customerEmail string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.cfg.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	if customerEmail != "" {
		params.CustomerEmail = stripe.String(customerEmail)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	slog.Info("stripe checkout created", "email", customerEmail, "session_id", sess.ID)
	return sess.URL, nil
}

func (s *StripeProvider) ParseWebhook(payload []byte, headers http.Header) (*Event, error) {
	signature := headers.Get("Stripe-Signature")

	// Stripe's API versions are backwards compatible for the fields read here
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}

	result := &Event{
		ID:       event.ID,
		Type:     string(event.Type),
		Provider: model.ProviderStripe,
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted || event.Data == nil {
		return result, nil
	}

	email, err := checkoutSessionEmail(event.Data.Raw)
	if err != nil {
		return nil, err
	}
	result.CustomerEmail = email

	return result, nil
}

// checkoutSessionEmail prefers customer_email (set when the session was created)
// and falls back to the email the customer typed on the hosted page.
func checkoutSessionEmail(data json.RawMessage) (string, error) {
	var checkoutSession struct {
		CustomerEmail   string `json:"customer_email"`
		CustomerDetails *struct {
			Email string `json:"email"`
		} `json:"customer_details"`
	}

	err := json.Unmarshal(data, &checkoutSession)
	if err != nil {
		return "", fmt.Errorf("failed to parse checkout session: %w", err)
	}

	if checkoutSession.CustomerEmail != "" {
		return checkoutSession.CustomerEmail, nil
	}
	if checkoutSession.CustomerDetails != nil {
		return checkoutSession.CustomerDetails.Email, nil
	}
	return "", nil
}
