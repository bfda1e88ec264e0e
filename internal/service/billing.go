package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aicrypto/predictor/internal/metrics"
	"github.com/aicrypto/predictor/internal/model"
	"github.com/aicrypto/predictor/internal/repository"
	"github.com/aicrypto/predictor/internal/service/payment"
	"github.com/aicrypto/predictor/internal/storage"
)

var (
	ErrPlanNotEligible     = errors.New("plan is not eligible for checkout")
	ErrProviderUnavailable = errors.New("billing provider unavailable")
)

type BillingService struct {
	provider payment.Provider
	accounts *AccountService
	emails   *EmailService
	events   repository.WebhookEventRepository
	archive  storage.Archive
	metrics  *metrics.Metrics
	timeout  time.Duration
}

func NewBillingService(
	provider payment.Provider,
	accounts *AccountService,
	emails *EmailService,
	events repository.WebhookEventRepository,
	archive storage.Archive,
	m *metrics.Metrics,
	timeout time.Duration,
) *BillingService {
	if archive == nil {
		archive = storage.NopArchive{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &BillingService{
		provider: provider,
		accounts: accounts,
		emails:   emails,
		events:   events,
		archive:  archive,
		metrics:  m,
		timeout:  timeout,
	}
}

func (s *BillingService) ProviderName() string {
	return s.provider.Name()
}

// CheckoutURL returns the hosted checkout URL for plan. Only the pro plan is
// sold; anything else returns ErrPlanNotEligible without calling the provider.
func (s *BillingService) CheckoutURL(ctx context.Context, plan, customerEmail string) (string, error) {
	if plan != model.PlanPro {
		s.metrics.RecordCheckout("not_eligible")
		return "", ErrPlanNotEligible
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	url, err := s.provider.CreateCheckoutURL(ctx, normalizeEmail(customerEmail))
	if err != nil {
		slog.Error("failed to create checkout", "error", err, "provider", s.provider.Name(), "email", customerEmail)
		s.metrics.RecordCheckout("provider_error")
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	s.metrics.RecordCheckout("created")
	return url, nil
}

// HandleWebhook verifies a raw webhook delivery and applies it.
// Verification errors wrap payment.ErrInvalidWebhook; store errors are
// returned so the provider sees a failure and retries.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	event, err := s.provider.ParseWebhook(payload, headers)
	if err != nil {
		s.metrics.RecordWebhook(s.provider.Name(), "unknown", "rejected")
		return err
	}

	slog.Info("webhook received", "provider", event.Provider, "event_id", event.ID, "event_type", event.Type)

	if event.ID != "" && s.events != nil {
		seen, err := s.events.Exists(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("failed to check webhook event: %w", err)
		}
		if seen {
			slog.Info("webhook event already processed, skipping", "event_id", event.ID)
			s.metrics.RecordWebhook(event.Provider, event.Type, "duplicate")
			return nil
		}
	}

	err = s.archive.Put(ctx, storage.WebhookKey(event.Provider, event.ID, time.Now()), payload)
	if err != nil {
		slog.Warn("failed to archive webhook payload", "error", err, "event_id", event.ID)
	}

	err = s.dispatch(ctx, event)
	if err != nil {
		s.metrics.RecordWebhook(event.Provider, event.Type, "failed")
		return err
	}

	if event.ID != "" && s.events != nil {
		err = s.events.Record(ctx, &model.WebhookEvent{
			ID:       event.ID,
			Provider: event.Provider,
			Type:     event.Type,
		})
		if err != nil {
			// The upgrade itself is idempotent, a redelivery is harmless
			slog.Warn("failed to record webhook event", "error", err, "event_id", event.ID)
		}
	}

	s.metrics.RecordWebhook(event.Provider, event.Type, "processed")
	return nil
}

func (s *BillingService) dispatch(ctx context.Context, event *payment.Event) error {
	switch event.Type {
	case payment.EventCheckoutCompleted:
		email := normalizeEmail(event.CustomerEmail)
		if email == "" {
			slog.Warn("checkout completed without customer email, skipping", "event_id", event.ID)
			return nil
		}

		err := s.accounts.UpgradeToPro(ctx, email, event.Provider)
		if err != nil {
			s.metrics.RecordUpgrade("failed")
			return err
		}

		s.metrics.RecordUpgrade("upgraded")

		if s.emails != nil {
			err = s.emails.SendUpgradeEmail(ctx, email)
			if err != nil {
				// The plan change is committed; a missing receipt must not trigger a redelivery
				slog.Warn("failed to send upgrade email", "error", err, "email", email)
			}
		}
		return nil
	default:
		slog.Debug("webhook event type ignored", "event_type", event.Type)
		return nil
	}
}
