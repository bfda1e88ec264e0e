package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aicrypto/predictor/internal/ctxkeys"
	"github.com/aicrypto/predictor/internal/service"
	"github.com/aicrypto/predictor/internal/validation"
)

type BillingHandler struct {
	billingService *service.BillingService
}

func NewBillingHandler(billingService *service.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

// CreateCheckout returns a hosted checkout URL for the signed-in account
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	email := ctxkeys.AccountEmail(r.Context())

	var req validation.CheckoutRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = validation.Struct(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	checkoutURL, err := h.billingService.CheckoutURL(r.Context(), req.Plan, email)
	switch {
	case errors.Is(err, service.ErrPlanNotEligible):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, service.ErrProviderUnavailable):
		writeError(w, http.StatusBadGateway, "failed to create checkout session")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to create checkout session")
		return
	}

	slog.Info("checkout link issued", "email", email, "provider", h.billingService.ProviderName())
	writeJSON(w, http.StatusOK, map[string]string{"url": checkoutURL})
}
