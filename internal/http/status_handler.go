package http

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the order store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type StatusHandler struct {
	status  StatusLabel
	db      Pinger
	timeout time.Duration
}

func NewStatusHandler(status StatusLabel, db Pinger, timeout time.Duration) *StatusHandler {
	return &StatusHandler{status: status, db: db, timeout: timeout}
}

type StatusResponseDTO struct {
	Label string `json:"label"`
}

// GET /api/status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, StatusResponseDTO{Label: h.status.Label()})
}

// GET /health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
