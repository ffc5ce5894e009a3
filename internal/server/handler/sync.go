package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// SyncHandler serves the manual sync trigger.
type SyncHandler struct {
	logger    *slog.Logger
	triggerCh chan<- struct{}
}

// NewSyncHandler creates a SyncHandler. A nil channel makes the endpoint
// report that sync is not running in this process.
func NewSyncHandler(triggerCh chan<- struct{}, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{triggerCh: triggerCh, logger: logger}
}

// Trigger enqueues one sync of every configured wallet.
// POST /api/sync/trigger
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.triggerCh == nil {
		writeError(w, http.StatusServiceUnavailable, "wallet sync is not running")
		return
	}
	h.logger.InfoContext(r.Context(), "handler: sync trigger requested")
	select {
	case h.triggerCh <- struct{}{}:
	default:
		// already triggered and not yet consumed
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"message":      "sync trigger enqueued",
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}
