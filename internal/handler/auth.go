package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aicrypto/predictor/internal/service"
	"github.com/aicrypto/predictor/internal/validation"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type sendOTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type verifyOTPResponse struct {
	Authenticated bool   `json:"authenticated"`
	Pro           bool   `json:"pro"`
	Token         string `json:"token,omitempty"`
	Message       string `json:"message,omitempty"`
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req validation.SendOTPRequest
	err := decodeJSON(w, r, &req)
	if err == nil {
		err = validation.Struct(&req)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, sendOTPResponse{Success: false, Message: err.Error()})
		return
	}

	err = h.authService.SendOTP(r.Context(), req.Email)
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		writeJSON(w, http.StatusBadRequest, sendOTPResponse{Success: false, Message: err.Error()})
	case errors.Is(err, service.ErrOTPRateLimited):
		writeJSON(w, http.StatusTooManyRequests, sendOTPResponse{Success: false, Message: "Please wait 60s before requesting another OTP."})
	case err != nil:
		slog.Error("failed to send otp", "error", err, "email", req.Email)
		writeJSON(w, http.StatusBadGateway, sendOTPResponse{Success: false, Message: "Send failed"})
	default:
		writeJSON(w, http.StatusOK, sendOTPResponse{Success: true, Message: "OTP sent"})
	}
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req validation.VerifyOTPRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, verifyOTPResponse{Message: err.Error()})
		return
	}
	req.OTP = strings.TrimSpace(req.OTP)

	err = validation.Struct(&req)
	if err != nil {
		message := err.Error()
		if !validation.ValidOTP(req.OTP) {
			message = "Invalid OTP format"
		}
		writeJSON(w, http.StatusBadRequest, verifyOTPResponse{Message: message})
		return
	}

	session, err := h.authService.VerifyOTP(r.Context(), req.Email, req.OTP)
	switch {
	case errors.Is(err, service.ErrInvalidOTPFormat):
		writeJSON(w, http.StatusBadRequest, verifyOTPResponse{Message: "Invalid OTP format"})
	case errors.Is(err, service.ErrOTPAttemptsExceeded):
		writeJSON(w, http.StatusTooManyRequests, verifyOTPResponse{Message: "Too many incorrect attempts, request a new OTP"})
	case errors.Is(err, service.ErrOTPIncorrect):
		writeJSON(w, http.StatusUnauthorized, verifyOTPResponse{Message: "Incorrect or expired OTP"})
	case err != nil:
		slog.Error("failed to verify otp", "error", err, "email", req.Email)
		writeJSON(w, http.StatusInternalServerError, verifyOTPResponse{Message: "Verification failed"})
	default:
		writeJSON(w, http.StatusOK, verifyOTPResponse{
			Authenticated: true,
			Pro:           session.Account.IsPro(),
			Token:         session.Token,
		})
	}
}
