package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/aicrypto/predictor/internal/metrics"
	"github.com/aicrypto/predictor/internal/model"
	"github.com/aicrypto/predictor/internal/service/payment"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
)

const testWebhookSecret = "whsec_billing_test"

type billingFixture struct {
	billing  *BillingService
	mailer   *recordingMailer
	accounts *spyAccounts
	pending  *memoryPending
	events   *memoryEvents
	metrics  *metrics.Metrics
}

func newBillingFixture(t *testing.T, provider payment.Provider, existing ...*model.Account) *billingFixture {
	t.Helper()

	accounts := newSpyAccounts(existing...)
	pending := newMemoryPending(accounts)
	events := newMemoryEvents()
	m := metrics.New(prometheus.NewRegistry())
	mailer := &recordingMailer{}

	return &billingFixture{
		mailer:   mailer,
		billing:  NewBillingService(provider, NewAccountService(accounts, pending), NewEmailService(mailer, "AI Crypto Predictor"), events, nil, m, time.Second),
		accounts: accounts,
		pending:  pending,
		events:   events,
		metrics:  m,
	}
}

func newStripeForTest() *payment.StripeProvider {
	return payment.NewStripeProvider(payment.StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
		PriceID:       "price_pro",
		SuccessURL:    "https://app.example.com/?checkout=success",
		CancelURL:     "https://app.example.com/?checkout=cancel",
	})
}

func signStripe(payload []byte, secret string) http.Header {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})

	headers := http.Header{}
	headers.Set("Stripe-Signature", signed.Header)
	return headers
}

func checkoutCompletedPayload(eventID, email string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test", "object": "checkout.session", "customer_email": %q}}
	}`, eventID, email))
}

func alice() *model.Account {
	return &model.Account{ID: "acc_alice", Email: "alice@example.com", Plan: model.PlanFree}
}

func TestCheckoutURL(t *testing.T) {
	t.Run("pro plan returns provider url", func(t *testing.T) {
		provider := &fakeProvider{url: "https://checkout.example.com/session/1"}
		f := newBillingFixture(t, provider)

		url, err := f.billing.CheckoutURL(context.Background(), model.PlanPro, " Alice@Example.com ")
		require.NoError(t, err)

		assert.Equal(t, "https://checkout.example.com/session/1", url)
		assert.Equal(t, 1, provider.checkoutCalls)
		assert.Equal(t, "alice@example.com", provider.lastEmail)
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CheckoutsTotal.WithLabelValues("created")))
	})

	t.Run("non pro plans never reach the provider", func(t *testing.T) {
		provider := &fakeProvider{url: "https://checkout.example.com/session/1"}
		f := newBillingFixture(t, provider)

		for _, plan := range []string{model.PlanFree, "enterprise", ""} {
			url, err := f.billing.CheckoutURL(context.Background(), plan, "alice@example.com")
			assert.ErrorIs(t, err, ErrPlanNotEligible)
			assert.Empty(t, url)
		}
		assert.Equal(t, 0, provider.checkoutCalls)
	})

	t.Run("provider failure is reported as unavailable", func(t *testing.T) {
		provider := &fakeProvider{err: errors.New("connection refused")}
		f := newBillingFixture(t, provider)

		url, err := f.billing.CheckoutURL(context.Background(), model.PlanPro, "alice@example.com")
		assert.ErrorIs(t, err, ErrProviderUnavailable)
		assert.Contains(t, err.Error(), "connection refused")
		assert.Empty(t, url)
	})
}

func TestHandleWebhook_UpgradesCustomer(t *testing.T) {
	f := newBillingFixture(t, newStripeForTest(), alice())
	payload := checkoutCompletedPayload("evt_alice", "alice@example.com")

	err := f.billing.HandleWebhook(context.Background(), payload, signStripe(payload, testWebhookSecret))
	require.NoError(t, err)

	assert.Equal(t, []setPlanCall{{Email: "alice@example.com", Plan: model.PlanPro}}, f.accounts.setPlanCalls())

	account, err := f.accounts.ByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, account.IsPro())

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "alice@example.com", f.mailer.last().To)
}

func TestHandleWebhook_UpgradeEmailFailureIsNotFatal(t *testing.T) {
	f := newBillingFixture(t, newStripeForTest(), alice())
	f.mailer.err = errors.New("mail relay down")
	payload := checkoutCompletedPayload("evt_nomail", "alice@example.com")

	err := f.billing.HandleWebhook(context.Background(), payload, signStripe(payload, testWebhookSecret))
	require.NoError(t, err)

	account, err := f.accounts.ByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, account.IsPro())
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	f := newBillingFixture(t, newStripeForTest(), alice())
	payload := checkoutCompletedPayload("evt_forged", "alice@example.com")

	err := f.billing.HandleWebhook(context.Background(), payload, signStripe(payload, "whsec_wrong"))
	assert.ErrorIs(t, err, payment.ErrInvalidWebhook)
	assert.Empty(t, f.accounts.setPlanCalls())

	err = f.billing.HandleWebhook(context.Background(), payload, http.Header{})
	assert.ErrorIs(t, err, payment.ErrInvalidWebhook)
	assert.Empty(t, f.accounts.setPlanCalls())
}

func TestHandleWebhook_IgnoredEvents(t *testing.T) {
	t.Run("other event types", func(t *testing.T) {
		f := newBillingFixture(t, newStripeForTest(), alice())
		payload := []byte(`{
			"id": "evt_pi",
			"object": "event",
			"type": "payment_intent.created",
			"data": {"object": {"id": "pi_1", "object": "payment_intent"}}
		}`)

		err := f.billing.HandleWebhook(context.Background(), payload, signStripe(payload, testWebhookSecret))
		assert.NoError(t, err)
		assert.Empty(t, f.accounts.setPlanCalls())
	})

	t.Run("checkout without customer email", func(t *testing.T) {
		f := newBillingFixture(t, newStripeForTest(), alice())
		payload := []byte(`{
			"id": "evt_noemail",
			"object": "event",
			"type": "checkout.session.completed",
			"data": {"object": {"id": "cs_1", "object": "checkout.session"}}
		}`)

		err := f.billing.HandleWebhook(context.Background(), payload, signStripe(payload, testWebhookSecret))
		assert.NoError(t, err)
		assert.Empty(t, f.accounts.setPlanCalls())
	})
}

func TestHandleWebhook_DuplicateDelivery(t *testing.T) {
	f := newBillingFixture(t, newStripeForTest(), alice())
	payload := checkoutCompletedPayload("evt_dup", "alice@example.com")

	for i := 0; i < 3; i++ {
		err := f.billing.HandleWebhook(context.Background(), payload, signStripe(payload, testWebhookSecret))
		require.NoError(t, err)
	}

	assert.Len(t, f.accounts.setPlanCalls(), 1)
	assert.Equal(t, float64(2), testutil.ToFloat64(
		f.metrics.WebhookEventsTotal.WithLabelValues("stripe", "checkout.session.completed", "duplicate")))
}

func TestHandleWebhook_UnknownCustomerIsPending(t *testing.T) {
	f := newBillingFixture(t, newStripeForTest())
	payload := checkoutCompletedPayload("evt_bob", "bob@example.com")

	err := f.billing.HandleWebhook(context.Background(), payload, signStripe(payload, testWebhookSecret))
	require.NoError(t, err)

	upgrade, err := f.pending.ByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.PlanPro, upgrade.Plan)
	assert.Equal(t, model.ProviderStripe, upgrade.Provider)
}

func TestHandleWebhook_StoreFailurePropagates(t *testing.T) {
	f := newBillingFixture(t, newStripeForTest(), alice())
	f.accounts.err = errors.New("database is locked")
	payload := checkoutCompletedPayload("evt_fail", "alice@example.com")

	err := f.billing.HandleWebhook(context.Background(), payload, signStripe(payload, testWebhookSecret))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")

	// Not recorded, so a redelivery is processed again
	seen, err := f.events.Exists(context.Background(), "evt_fail")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestHandleWebhook_NormalizesEmail(t *testing.T) {
	f := newBillingFixture(t, &fakeProvider{event: &payment.Event{
		ID:            "evt_case",
		Type:          payment.EventCheckoutCompleted,
		CustomerEmail: "  ALICE@example.com ",
		Provider:      "fake",
	}}, alice())

	err := f.billing.HandleWebhook(context.Background(), nil, http.Header{})
	require.NoError(t, err)
	assert.Equal(t, []setPlanCall{{Email: "alice@example.com", Plan: model.PlanPro}}, f.accounts.setPlanCalls())
}
