package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type HealthHandler struct {
	appName   string
	version   string
	startedAt time.Time
	ping      func(ctx context.Context) error
}

func NewHealthHandler(appName, version string, ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{
		appName:   appName,
		version:   version,
		startedAt: time.Now().UTC(),
		ping:      ping,
	}
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"app":     h.appName,
		"version": h.version,
	})
}

// Healthz reports liveness and database reachability
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)

	if h.ping != nil {
		err := h.ping(r.Context())
		if err != nil {
			slog.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "time": now, "error": "database unreachable"})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "time": now})
}

func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":    h.version,
		"build_time": h.startedAt.Format(time.RFC3339),
		"status":     "Backend is running!",
	})
}

func (h *HealthHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}
