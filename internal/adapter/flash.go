package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/perpfeed/internal/action"
	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/metrics"
	"github.com/alanyoungcy/perpfeed/internal/pricing"
	"github.com/alanyoungcy/perpfeed/internal/schema"
)

// FlashSource returns raw Flash trade pages.
type FlashSource interface {
	Trades(ctx context.Context, address string, page, take int) ([]byte, error)
}

// Flash adapts the Flash trade history API.
type Flash struct {
	src     FlashSource
	markets domain.MarketLookup
	prices  *pricing.Flash
	logger  *slog.Logger
}

var _ Adapter = (*Flash)(nil)

// NewFlash creates the Flash adapter.
func NewFlash(src FlashSource, markets domain.MarketLookup, logger *slog.Logger) *Flash {
	logger = logger.With(slog.String("component", "adapter.flash"))
	return &Flash{
		src:     src,
		markets: markets,
		prices:  pricing.NewFlash(markets, logger),
		logger:  logger,
	}
}

func (f *Flash) Name() domain.Exchange { return domain.ExchangeFlash }

func (f *Flash) SupportsPagination() bool { return true }

// MarketName returns the market symbol, or the raw id when unknown.
func (f *Flash) MarketName(id string) string {
	if info, ok := f.markets.Lookup(id); ok {
		return info.Name
	}
	return id
}

// FetchTrades fetches one page. Flash reports no total, so TotalCount is the
// page length and HasMore is always false.
func (f *Flash) FetchTrades(ctx context.Context, address string, opts FetchOptions) (domain.NormalizedTradesResponse, error) {
	per := opts.Limit
	if per == 0 {
		per = DefaultPageSize
	}
	page := 0
	if opts.Offset > 0 {
		page = opts.Offset/per + 1
	}

	body, err := f.src.Trades(ctx, address, page, opts.Limit)
	if err != nil {
		logFailure(f.logger, "fetch trades failed", address, err)
		return domain.NormalizedTradesResponse{}, err
	}

	raw, err := schema.ValidateFlashPage(body)
	if err != nil {
		metrics.ValidationFailures.WithLabelValues(string(domain.ExchangeFlash)).Inc()
		logFailure(f.logger, "invalid trades page", address, err)
		return domain.NormalizedTradesResponse{}, fmt.Errorf("flash: fetch trades: %w", err)
	}

	trades := make([]domain.NormalizedTrade, 0, len(raw))
	for _, t := range raw {
		trades = append(trades, f.Normalize(t))
	}
	metrics.TradesNormalized.WithLabelValues(string(domain.ExchangeFlash)).Add(float64(len(trades)))

	resp := domain.NormalizedTradesResponse{
		Trades:     trades,
		TotalCount: len(trades),
		Page:       1,
		PageSize:   opts.Limit,
	}
	if opts.Offset > 0 {
		resp.Page = page
	}
	if resp.PageSize == 0 {
		resp.PageSize = len(trades)
	}
	return resp, nil
}

// Normalize converts one validated raw trade. It is a pure function of t.
func (f *Flash) Normalize(t schema.FlashTrade) domain.NormalizedTrade {
	nt := domain.NormalizedTrade{
		ID:            fmt.Sprintf("flash-%s-%d", t.TxID, t.EventIndex),
		Exchange:      domain.ExchangeFlash,
		Timestamp:     epochMillis(parseLeadingInt(t.Timestamp)),
		Market:        f.MarketName(t.Market),
		Side:          t.Side,
		Action:        action.FromFlash(t),
		Price:         f.prices.Price(t),
		SizeUSD:       parseFloat(t.SizeUSD),
		CollateralUSD: parseFloat(t.CollateralUSD),
		Fee:           f.prices.Fee(t),
		TxID:          t.TxID,
	}
	if t.EntryPrice != nil && *t.EntryPrice != "" {
		nt.EntryPrice = strPtr(f.prices.EntryPrice(t))
	}
	if t.ExitPrice != nil && *t.ExitPrice != "" {
		nt.ExitPrice = strPtr(f.prices.ExitPrice(t))
	}
	if t.PnLUSD != nil && *t.PnLUSD != "" {
		pnl := parseFloat(t.PnLUSD)
		nt.PnL = &pnl
	}
	return nt
}

// CheckAvailability probes for a single trade.
func (f *Flash) CheckAvailability(ctx context.Context, address string) bool {
	body, err := f.src.Trades(ctx, address, 1, 1)
	if err != nil {
		logFailure(f.logger, "availability check failed", address, err)
		return false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		f.logger.Warn("availability check: unexpected payload", slog.String("address", address))
		return false
	}
	return len(items) > 0
}
