package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aicrypto/predictor/internal/service"
	"github.com/aicrypto/predictor/internal/service/payment"
)

// maxWebhookBody bounds provider payloads; Stripe events are well under this
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	billingService *service.BillingService
}

func NewWebhookHandler(billingService *service.BillingService) *WebhookHandler {
	return &WebhookHandler{
		billingService: billingService,
	}
}

// Webhook verifies and applies a billing provider event. The raw body is passed
// through untouched because the signature covers the exact bytes.
func (h *WebhookHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		slog.Error("failed to read webhook payload", "error", err)
		writeError(w, http.StatusBadRequest, "failed to read payload")
		return
	}
	defer func() {
		closeErr := r.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close request body", "error", closeErr)
		}
	}()

	err = h.billingService.HandleWebhook(r.Context(), payload, r.Header)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidWebhook) {
			slog.Warn("webhook rejected", "error", err, "provider", h.billingService.ProviderName())
		} else {
			slog.Error("failed to handle webhook", "error", err, "provider", h.billingService.ProviderName())
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
