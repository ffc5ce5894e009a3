package handler

import (
	"net/http"
	"time"
)

// StatusHandler reports the process mode and the wallets it keeps in sync.
type StatusHandler struct {
	Mode      string
	Wallets   []string
	StartedAt time.Time
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode string, wallets []string, startedAt time.Time) *StatusHandler {
	return &StatusHandler{Mode: mode, Wallets: wallets, StartedAt: startedAt}
}

// GetStatus responds with the current mode, tracked wallets and uptime.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	wallets := h.Wallets
	if wallets == nil {
		wallets = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":           h.Mode,
		"wallets":        wallets,
		"uptime_seconds": int64(time.Since(h.StartedAt).Seconds()),
	})
}
