package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aicrypto/predictor/internal/model"
	"github.com/aicrypto/predictor/internal/repository"
	"github.com/aicrypto/predictor/internal/service"
)

type signalSource interface {
	Signals(ctx context.Context) ([]model.CoinSignal, error)
}

type PredictHandler struct {
	market         signalSource
	accountService *service.AccountService
}

func NewPredictHandler(market signalSource, accountService *service.AccountService) *PredictHandler {
	return &PredictHandler{
		market:         market,
		accountService: accountService,
	}
}

type predictResponse struct {
	Email     string             `json:"email"`
	Pro       bool               `json:"pro"`
	Timestamp string             `json:"timestamp"`
	Coins     []model.CoinSignal `json:"coins"`
}

func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("email")))
	now := time.Now().UTC().Format(time.RFC3339)

	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	coins, err := h.market.Signals(r.Context())
	if err != nil {
		slog.Error("failed to fetch market data", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error(), "timestamp": now})
		return
	}

	pro := false
	account, err := h.accountService.Account(r.Context(), email)
	switch {
	case err == nil:
		pro = account.IsPro()
	case !errors.Is(err, repository.ErrAccountNotFound):
		slog.Warn("failed to look up plan for prediction", "error", err, "email", email)
	}

	writeJSON(w, http.StatusOK, predictResponse{
		Email:     email,
		Pro:       pro,
		Timestamp: now,
		Coins:     coins,
	})
}
