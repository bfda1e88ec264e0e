package payment

import (
	"context"
	"errors"
	"net/http"
)

// EventCheckoutCompleted is the only event type that upgrades an account.
// Providers translate their own "payment finished" notifications to it.
const EventCheckoutCompleted = "checkout.session.completed"

// ErrInvalidWebhook is returned when a webhook payload cannot be authenticated
// (bad signature, wrong secret, stale timestamp or malformed body).
var ErrInvalidWebhook = errors.New("webhook verification failed")

// Event is the provider-neutral view of a verified webhook notification
type Event struct {
	ID            string
	Type          string
	CustomerEmail string
	Provider      string
}

// Provider defines the interface that all payment providers must implement
type Provider interface {
	// CreateCheckoutURL creates a pro-plan subscription checkout and returns its hosted URL
	CreateCheckoutURL(ctx context.Context, customerEmail string) (string, error)

	// ParseWebhook verifies the raw payload against the provider signature headers
	// and returns the decoded event. Verification failures wrap ErrInvalidWebhook.
	ParseWebhook(payload []byte, headers http.Header) (*Event, error)

	// Name returns the provider name (e.g., "polar", "stripe")
	Name() string
}
