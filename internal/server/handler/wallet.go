package handler

import (
	"context"
	"net/http"

	"github.com/alanyoungcy/perpfeed/internal/service"
)

// WalletChecker reports which exchanges hold trades for an address.
type WalletChecker interface {
	Check(ctx context.Context, address string) service.WalletCheck
}

// WalletHandler serves the wallet availability probe.
type WalletHandler struct {
	checker WalletChecker
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(checker WalletChecker) *WalletHandler {
	return &WalletHandler{checker: checker}
}

// Check reports whether the wallet has any Flash or Jupiter history.
// GET /api/wallet-check?address=
func (h *WalletHandler) Check(w http.ResponseWriter, r *http.Request) {
	address, ok := requireAddress(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.checker.Check(r.Context(), address))
}
