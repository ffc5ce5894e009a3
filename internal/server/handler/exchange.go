package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/schema"
	"github.com/alanyoungcy/perpfeed/internal/service"
)

// RawService defines the direct exchange passthrough the handler requires.
type RawService interface {
	FlashTrades(ctx context.Context, address string, page, take int) ([]schema.FlashTrade, error)
	JupiterTrades(ctx context.Context, address string, start, end int) (schema.JupiterPage, error)
	FlashNormalized(ctx context.Context, address string, page, take int) ([]domain.NormalizedTrade, error)
	JupiterNormalized(ctx context.Context, address string, start, end int) (service.JupiterTradesPage, error)
}

// ExchangeHandler serves single-exchange pages in each exchange's own
// envelope, either raw and validated or normalized.
type ExchangeHandler struct {
	raw    RawService
	logger *slog.Logger
}

// NewExchangeHandler creates an ExchangeHandler.
func NewExchangeHandler(raw RawService, logger *slog.Logger) *ExchangeHandler {
	return &ExchangeHandler{raw: raw, logger: logHandler(logger, "exchange")}
}

// FlashRaw returns the validated Flash payload.
// GET /api/exchanges/flash?address=&page=&take=
func (h *ExchangeHandler) FlashRaw(w http.ResponseWriter, r *http.Request) {
	address, ok := requireAddress(w, r)
	if !ok || !checkAddress(w, address) {
		return
	}

	trades, err := h.raw.FlashTrades(r.Context(), address, queryInt(r, "page", 0), queryInt(r, "take", 0))
	if err != nil {
		h.fail(w, r, domain.ExchangeFlash, err, "Failed to fetch Flash trades")
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// JupiterRaw returns the validated Jupiter payload for [start, end).
// GET /api/exchanges/jupiter?address=&start=0&end=100
func (h *ExchangeHandler) JupiterRaw(w http.ResponseWriter, r *http.Request) {
	address, ok := requireAddress(w, r)
	if !ok || !checkAddress(w, address) {
		return
	}

	page, err := h.raw.JupiterTrades(r.Context(), address, queryInt(r, "start", 0), queryInt(r, "end", 100))
	if err != nil {
		h.fail(w, r, domain.ExchangeJupiter, err, "Failed to fetch Jupiter trades")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// FlashTrades returns the Flash page as a bare array of normalized trades.
// GET /api/flash/trades?address=&page=&take=
func (h *ExchangeHandler) FlashTrades(w http.ResponseWriter, r *http.Request) {
	address, ok := requireAddress(w, r)
	if !ok {
		return
	}

	trades, err := h.raw.FlashNormalized(r.Context(), address, queryInt(r, "page", 0), queryInt(r, "take", 0))
	if err != nil {
		h.fail(w, r, domain.ExchangeFlash, err, "Failed to fetch Flash trades")
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// JupiterTrades returns normalized Jupiter records with the upstream count.
// GET /api/jupiter/trades?address=&start=0&end=100
func (h *ExchangeHandler) JupiterTrades(w http.ResponseWriter, r *http.Request) {
	address, ok := requireAddress(w, r)
	if !ok {
		return
	}

	page, err := h.raw.JupiterNormalized(r.Context(), address, queryInt(r, "start", 0), queryInt(r, "end", 100))
	if err != nil {
		h.fail(w, r, domain.ExchangeJupiter, err, "Failed to fetch Jupiter trades")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ExchangeHandler) fail(w http.ResponseWriter, r *http.Request, exchange domain.Exchange, err error, msg string) {
	if domain.IsCancelled(err) {
		return
	}
	h.logger.ErrorContext(r.Context(), "handler: exchange request failed",
		slog.String("exchange", string(exchange)),
		slog.String("error", err.Error()),
	)
	writeUpstreamError(w, exchange, err, msg)
}
