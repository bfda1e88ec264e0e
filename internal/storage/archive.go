package storage

import (
	"context"
	"fmt"
	"path"
	"time"
)

// Archive keeps a copy of verified webhook payloads for audit and replay.
type Archive interface {
	Put(ctx context.Context, key string, body []byte) error
}

// NopArchive discards everything. Used when no bucket is configured.
type NopArchive struct{}

func (NopArchive) Put(ctx context.Context, key string, body []byte) error {
	return nil
}

// WebhookKey builds the object key for a webhook payload:
// webhooks/<provider>/<yyyy>/<mm>/<dd>/<event id>.json
func WebhookKey(provider, eventID string, receivedAt time.Time) string {
	if eventID == "" {
		eventID = fmt.Sprintf("unknown-%d", receivedAt.UnixNano())
	}
	return path.Join("webhooks", provider, receivedAt.UTC().Format("2006/01/02"), eventID+".json")
}
