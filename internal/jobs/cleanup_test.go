package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/aicrypto/predictor/internal/db"
	"github.com/aicrypto/predictor/internal/model"
	"github.com/aicrypto/predictor/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEvents(t *testing.T) repository.WebhookEventRepository {
	t.Helper()

	database, err := db.Init("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	return repository.NewWebhookEventRepository(database)
}

func TestCleanupWebhookEvents(t *testing.T) {
	ctx := context.Background()
	events := setupEvents(t)
	now := time.Now().UTC()

	require.NoError(t, events.Record(ctx, &model.WebhookEvent{
		ID: "evt_old", Provider: model.ProviderStripe, Type: "checkout.session.completed",
		ProcessedAt: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, events.Record(ctx, &model.WebhookEvent{
		ID: "evt_new", Provider: model.ProviderStripe, Type: "checkout.session.completed",
		ProcessedAt: now,
	}))

	deleted, err := CleanupWebhookEvents(ctx, events, 24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	seen, err := events.Exists(ctx, "evt_old")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = events.Exists(ctx, "evt_new")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestNewScheduler(t *testing.T) {
	events := setupEvents(t)

	s, err := NewScheduler("@daily", events, time.Hour)
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	_, err = NewScheduler("not a schedule", events, time.Hour)
	assert.Error(t, err)
}
