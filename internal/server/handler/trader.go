package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/perpfeed/internal/adapter"
	"github.com/alanyoungcy/perpfeed/internal/aggregator"
	"github.com/alanyoungcy/perpfeed/internal/analytics"
	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// TradeService defines the methods the trader handler requires from the
// service layer.
type TradeService interface {
	Trades(ctx context.Context, address string, ex aggregator.Exchanges, limit, offset int) (domain.NormalizedTradesResponse, error)
	Stats(ctx context.Context, address string, ex aggregator.Exchanges, limit, offset int) (analytics.Summary, error)
	ExchangeTrades(ctx context.Context, exchange, address string, opts adapter.FetchOptions) (domain.NormalizedTradesResponse, error)
	StoredTrades(ctx context.Context, address string, limit, offset int) (domain.NormalizedTradesResponse, error)
}

// TraderHandler serves the per-wallet trade endpoints.
type TraderHandler struct {
	trades TradeService
	logger *slog.Logger
}

// NewTraderHandler creates a TraderHandler.
func NewTraderHandler(trades TradeService, logger *slog.Logger) *TraderHandler {
	return &TraderHandler{trades: trades, logger: logHandler(logger, "trader")}
}

// aggregateQuery reads limit, offset and the exchange toggles. An exchange is
// enabled unless its parameter is exactly "false". limit is capped like
// every other list endpoint.
func aggregateQuery(r *http.Request) (aggregator.Exchanges, int, int) {
	q := r.URL.Query()
	ex := aggregator.Exchanges{
		Flash:   q.Get("flash") != "false",
		Jupiter: q.Get("jupiter") != "false",
	}
	opts := parseListOpts(r)
	return ex, opts.Limit, opts.Offset
}

// Trades returns the merged, newest-first page across the enabled exchanges.
// GET /api/trader/{address}/trades?limit=100&offset=0&flash=true&jupiter=true
func (h *TraderHandler) Trades(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")
	if !checkAddress(w, address) {
		return
	}
	ex, limit, offset := aggregateQuery(r)

	resp, err := h.trades.Trades(r.Context(), address, ex, limit, offset)
	if err != nil {
		h.aggregateFailed(w, r, err, "Failed to fetch trader trades")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats summarises the same page Trades would return.
// GET /api/trader/{address}/stats
func (h *TraderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")
	if !checkAddress(w, address) {
		return
	}
	ex, limit, offset := aggregateQuery(r)

	summary, err := h.trades.Stats(r.Context(), address, ex, limit, offset)
	if err != nil {
		h.aggregateFailed(w, r, err, "Failed to compute trader stats")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// History returns trades persisted by the wallet sync.
// GET /api/trader/{address}/history?limit=100&offset=0
func (h *TraderHandler) History(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")
	if !checkAddress(w, address) {
		return
	}
	opts := parseListOpts(r)

	resp, err := h.trades.StoredTrades(r.Context(), address, opts.Limit, opts.Offset)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "trade history is not enabled")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: stored trades failed",
			slog.String("address", address),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Failed to load trade history")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExchangeTrades returns one normalized page from a single exchange.
// GET /api/exchanges/{exchange}/trades?address=&limit=100&offset=0
func (h *TraderHandler) ExchangeTrades(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "exchange")
	address, ok := requireAddress(w, r)
	if !ok || !checkAddress(w, address) {
		return
	}
	list := parseListOpts(r)
	opts := adapter.FetchOptions{Limit: list.Limit, Offset: list.Offset}

	resp, err := h.trades.ExchangeTrades(r.Context(), name, address, opts)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, domain.ErrUnknownExchange):
		writeError(w, http.StatusNotFound, "Unknown exchange: "+name)
	case domain.IsCancelled(err):
	default:
		h.logger.ErrorContext(r.Context(), "handler: exchange trades failed",
			slog.String("exchange", name),
			slog.String("address", address),
			slog.String("error", err.Error()),
		)
		writeUpstreamError(w, exchangeName(err, name), err, "Failed to fetch exchange trades")
	}
}

func (h *TraderHandler) aggregateFailed(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if domain.IsCancelled(err) {
		return
	}
	h.logger.ErrorContext(r.Context(), "handler: aggregate trades failed",
		slog.String("address", pathParam(r, "address")),
		slog.String("error", err.Error()),
	)
	if errors.Is(err, domain.ErrAllExchangesFailed) {
		writeError(w, http.StatusBadGateway, msg)
		return
	}
	writeError(w, http.StatusInternalServerError, msg)
}

// exchangeName prefers the exchange recorded on a typed upstream error over
// the name in the request path, which may differ in case.
func exchangeName(err error, fallback string) domain.Exchange {
	var te *domain.TransportError
	if errors.As(err, &te) {
		return te.Exchange
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Exchange
	}
	return domain.Exchange(fallback)
}
