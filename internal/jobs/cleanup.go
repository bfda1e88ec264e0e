package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aicrypto/predictor/internal/repository"
	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic maintenance
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the webhook event cleanup on schedule
// (standard cron syntax or descriptors like "@daily").
func NewScheduler(schedule string, events repository.WebhookEventRepository, retention time.Duration) (*Scheduler, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		_, err := CleanupWebhookEvents(ctx, events, retention, time.Now())
		if err != nil {
			slog.Error("webhook event cleanup failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule webhook event cleanup: %w", err)
	}

	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("scheduler stop timed out")
	}
}

// CleanupWebhookEvents forgets processed webhook event ids older than retention.
// Redeliveries of events that old are not expected from any provider.
func CleanupWebhookEvents(ctx context.Context, events repository.WebhookEventRepository, retention time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-retention)

	deleted, err := events.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete webhook events: %w", err)
	}

	slog.Info("webhook events cleaned up", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}
