package model

import "time"

// WebhookEvent marks a provider event id as processed so redeliveries are no-ops.
type WebhookEvent struct {
	ID          string    `db:"id"`
	Provider    string    `db:"provider"`
	Type        string    `db:"type"`
	ProcessedAt time.Time `db:"processed_at"`
}

const (
	ProviderPolar  = "polar"
	ProviderStripe = "stripe"
	// ProviderManual marks upgrades applied from the command line
	ProviderManual = "manual"
)
