package payment

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPolarSecret = "polar_webhook_secret"

func signedPolarHeaders(t *testing.T, msgID string, payload []byte, secret string) http.Header {
	t.Helper()

	wh, err := standardwebhooks.NewWebhookRaw([]byte(secret))
	require.NoError(t, err)

	now := time.Now()
	signature, err := wh.Sign(msgID, now, payload)
	require.NoError(t, err)

	headers := http.Header{}
	headers.Set("webhook-id", msgID)
	headers.Set("webhook-timestamp", strconv.FormatInt(now.Unix(), 10))
	headers.Set("webhook-signature", signature)
	return headers
}

func newTestPolarProvider() *PolarProvider {
	return NewPolarProvider(PolarConfig{
		APIKey:        "polar_test",
		WebhookSecret: testPolarSecret,
		ProductID:     "prod_pro",
		SandboxMode:   true,
	})
}

func TestPolarParseWebhook_SucceededCheckout(t *testing.T) {
	provider := newTestPolarProvider()
	payload := []byte(`{"type": "checkout.updated", "data": {"status": "succeeded", "customer_email": "alice@example.com"}}`)

	event, err := provider.ParseWebhook(payload, signedPolarHeaders(t, "msg_1", payload, testPolarSecret))
	require.NoError(t, err)

	assert.Equal(t, "msg_1", event.ID)
	assert.Equal(t, EventCheckoutCompleted, event.Type)
	assert.Equal(t, "alice@example.com", event.CustomerEmail)
	assert.Equal(t, "polar", event.Provider)
}

func TestPolarParseWebhook_OpenCheckoutIsNotCompleted(t *testing.T) {
	provider := newTestPolarProvider()
	payload := []byte(`{"type": "checkout.updated", "data": {"status": "open", "customer_email": "alice@example.com"}}`)

	event, err := provider.ParseWebhook(payload, signedPolarHeaders(t, "msg_2", payload, testPolarSecret))
	require.NoError(t, err)
	assert.Equal(t, "checkout.updated", event.Type)
	assert.Empty(t, event.CustomerEmail)
}

func TestPolarParseWebhook_WrongSecret(t *testing.T) {
	provider := newTestPolarProvider()
	payload := []byte(`{"type": "checkout.updated", "data": {"status": "succeeded", "customer_email": "alice@example.com"}}`)

	_, err := provider.ParseWebhook(payload, signedPolarHeaders(t, "msg_3", payload, "another_secret"))
	assert.ErrorIs(t, err, ErrInvalidWebhook)
}
