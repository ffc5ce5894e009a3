package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/perpfeed/internal/adapter"
	"github.com/alanyoungcy/perpfeed/internal/aggregator"
	"github.com/alanyoungcy/perpfeed/internal/analytics"
	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/metrics"
)

// TradeService serves normalized trade pages, caching aggregated pages when
// a cache is configured.
type TradeService struct {
	agg      *aggregator.Aggregator
	registry *adapter.Registry
	cache    domain.TradeCache
	cacheTTL time.Duration
	store    domain.TradeStore
	logger   *slog.Logger
}

// NewTradeService creates a TradeService. cache and store may be nil.
func NewTradeService(
	agg *aggregator.Aggregator,
	registry *adapter.Registry,
	cache domain.TradeCache,
	cacheTTL time.Duration,
	store domain.TradeStore,
	logger *slog.Logger,
) *TradeService {
	return &TradeService{
		agg:      agg,
		registry: registry,
		cache:    cache,
		cacheTTL: cacheTTL,
		store:    store,
		logger:   logger.With(slog.String("component", "trade_service")),
	}
}

// PageKey identifies a cached aggregate page.
func PageKey(address string, ex aggregator.Exchanges, limit, offset int) string {
	return fmt.Sprintf("%s:%d:%d:%t:%t", address, limit, offset, ex.Flash, ex.Jupiter)
}

// Trades returns one aggregated page for the wallet.
func (s *TradeService) Trades(ctx context.Context, address string, ex aggregator.Exchanges, limit, offset int) (domain.NormalizedTradesResponse, error) {
	if limit <= 0 {
		limit = adapter.DefaultPageSize
	}
	key := PageKey(address, ex, limit, offset)

	if s.cache != nil {
		resp, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return resp, nil
		case errors.Is(err, domain.ErrNotFound):
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		default:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			s.logger.WarnContext(ctx, "trade cache read failed", slog.String("error", err.Error()))
		}
	}

	page, err := s.agg.FetchPage(ctx, address, ex, limit, offset)
	if err != nil {
		return domain.NormalizedTradesResponse{}, fmt.Errorf("trade_service: trades %s: %w", address, err)
	}
	resp := page.NormalizedTradesResponse

	// A page missing an exchange is served but never cached.
	if page.Degraded() {
		s.logger.DebugContext(ctx, "not caching degraded page",
			slog.String("address", address),
			slog.Any("failed", page.Failed),
		)
		return resp, nil
	}
	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "trade cache write failed", slog.String("error", err.Error()))
		}
	}
	return resp, nil
}

// Stats summarizes one aggregated page.
func (s *TradeService) Stats(ctx context.Context, address string, ex aggregator.Exchanges, limit, offset int) (analytics.Summary, error) {
	resp, err := s.Trades(ctx, address, ex, limit, offset)
	if err != nil {
		return analytics.Summary{}, err
	}
	return analytics.Summarize(resp.Trades), nil
}

// ExchangeTrades returns one normalized page from a single exchange.
// Unknown exchange names yield domain.ErrUnknownExchange.
func (s *TradeService) ExchangeTrades(ctx context.Context, exchange, address string, opts adapter.FetchOptions) (domain.NormalizedTradesResponse, error) {
	a, ok := s.registry.Get(exchange)
	if !ok {
		return domain.NormalizedTradesResponse{}, fmt.Errorf("trade_service: %q: %w", exchange, domain.ErrUnknownExchange)
	}
	resp, err := a.FetchTrades(ctx, address, opts)
	if err != nil {
		return domain.NormalizedTradesResponse{}, fmt.Errorf("trade_service: %s trades %s: %w", a.Name(), address, err)
	}
	return resp, nil
}

// StoredTrades returns trades persisted by the wallet sync, newest first.
// It yields domain.ErrNotFound when no store is configured.
func (s *TradeService) StoredTrades(ctx context.Context, address string, limit, offset int) (domain.NormalizedTradesResponse, error) {
	if s.store == nil {
		return domain.NormalizedTradesResponse{}, fmt.Errorf("trade_service: trade store: %w", domain.ErrNotFound)
	}
	if limit <= 0 {
		limit = adapter.DefaultPageSize
	}
	offset = max(offset, 0)

	trades, err := s.store.ListByWallet(ctx, address, domain.ListOpts{Limit: limit, Offset: offset})
	if err != nil {
		return domain.NormalizedTradesResponse{}, fmt.Errorf("trade_service: stored trades %s: %w", address, err)
	}
	total, err := s.store.CountByWallet(ctx, address)
	if err != nil {
		return domain.NormalizedTradesResponse{}, fmt.Errorf("trade_service: count stored trades %s: %w", address, err)
	}
	return domain.NormalizedTradesResponse{
		Trades:     trades,
		TotalCount: int(total),
		Page:       offset/limit + 1,
		PageSize:   limit,
		HasMore:    int64(offset+limit) < total,
	}, nil
}
