package repository

import (
	"context"
	"time"

	"github.com/aicrypto/predictor/internal/model"
	"github.com/jmoiron/sqlx"
)

type WebhookEventRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Record(ctx context.Context, event *model.WebhookEvent) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type webhookEventRepository struct {
	db *sqlx.DB
}

func NewWebhookEventRepository(db *sqlx.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

func (r *webhookEventRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM webhook_events WHERE id = $1`

	err := r.db.GetContext(ctx, &count, query, id)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *webhookEventRepository) Record(ctx context.Context, event *model.WebhookEvent) error {
	if event.ProcessedAt.IsZero() {
		event.ProcessedAt = time.Now()
	}

	query := `
		INSERT INTO webhook_events (id, provider, type, processed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, event.ID, event.Provider, event.Type, event.ProcessedAt)
	return err
}

// DeleteOlderThan removes processed-event markers past the retention window.
func (r *webhookEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM webhook_events WHERE processed_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
