package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/perpfeed/internal/action"
	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/metrics"
	"github.com/alanyoungcy/perpfeed/internal/pricing"
	"github.com/alanyoungcy/perpfeed/internal/schema"
)

// JupiterSource returns raw Jupiter trade envelopes for [start, end).
type JupiterSource interface {
	Trades(ctx context.Context, address string, start, end int) ([]byte, error)
}

// Jupiter adapts the Jupiter perps trade API.
type Jupiter struct {
	src     JupiterSource
	markets domain.MarketLookup
	logger  *slog.Logger
}

var _ Adapter = (*Jupiter)(nil)

// NewJupiter creates the Jupiter adapter. markets is only used for
// MarketName; Jupiter trades carry their own position names.
func NewJupiter(src JupiterSource, markets domain.MarketLookup, logger *slog.Logger) *Jupiter {
	return &Jupiter{
		src:     src,
		markets: markets,
		logger:  logger.With(slog.String("component", "adapter.jupiter")),
	}
}

func (j *Jupiter) Name() domain.Exchange { return domain.ExchangeJupiter }

func (j *Jupiter) SupportsPagination() bool { return true }

// MarketName returns a known market's symbol, or an abbreviated id.
func (j *Jupiter) MarketName(id string) string {
	if info, ok := j.markets.Lookup(id); ok {
		return info.Name
	}
	head := id[:min(6, len(id))]
	tail := id[max(0, len(id)-4):]
	return head + "..." + tail
}

// FetchTrades fetches the window [offset, offset+limit). Jupiter reports the
// wallet's total, so HasMore is exact.
func (j *Jupiter) FetchTrades(ctx context.Context, address string, opts FetchOptions) (domain.NormalizedTradesResponse, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	offset := max(opts.Offset, 0)

	page, err := j.fetchPage(ctx, address, offset, offset+limit)
	if err != nil {
		return domain.NormalizedTradesResponse{}, err
	}

	return domain.NormalizedTradesResponse{
		Trades:     j.normalizeAll(page.DataList),
		TotalCount: page.Count,
		Page:       offset/limit + 1,
		PageSize:   limit,
		HasMore:    offset+limit < page.Count,
	}, nil
}

// FetchAll walks the wallet's full history page by page. Each request
// depends on the total reported by the first page, so pages are fetched
// sequentially.
func (j *Jupiter) FetchAll(ctx context.Context, address string) (domain.NormalizedTradesResponse, error) {
	first, err := j.fetchPage(ctx, address, 0, DefaultPageSize)
	if err != nil {
		return domain.NormalizedTradesResponse{}, err
	}
	raw := first.DataList
	for start := DefaultPageSize; start < first.Count; start += DefaultPageSize {
		next, err := j.fetchPage(ctx, address, start, start+DefaultPageSize)
		if err != nil {
			return domain.NormalizedTradesResponse{}, err
		}
		raw = append(raw, next.DataList...)
	}

	trades := j.normalizeAll(raw)
	return domain.NormalizedTradesResponse{
		Trades:     trades,
		TotalCount: first.Count,
		Page:       1,
		PageSize:   len(trades),
	}, nil
}

func (j *Jupiter) fetchPage(ctx context.Context, address string, start, end int) (schema.JupiterPage, error) {
	body, err := j.src.Trades(ctx, address, start, end)
	if err != nil {
		logFailure(j.logger, "fetch trades failed", address, err)
		return schema.JupiterPage{}, err
	}
	page, err := schema.ValidateJupiterPage(body)
	if err != nil {
		metrics.ValidationFailures.WithLabelValues(string(domain.ExchangeJupiter)).Inc()
		logFailure(j.logger, "invalid trades page", address, err)
		return schema.JupiterPage{}, fmt.Errorf("jupiter: fetch trades: %w", err)
	}
	return page, nil
}

func (j *Jupiter) normalizeAll(raw []schema.JupiterTrade) []domain.NormalizedTrade {
	trades := make([]domain.NormalizedTrade, 0, len(raw))
	for _, t := range raw {
		trades = append(trades, j.Normalize(t))
	}
	metrics.TradesNormalized.WithLabelValues(string(domain.ExchangeJupiter)).Add(float64(len(trades)))
	return trades
}

// Normalize converts one validated raw trade. It is a pure function of t.
func (j *Jupiter) Normalize(t schema.JupiterTrade) domain.NormalizedTrade {
	nt := domain.NormalizedTrade{
		ID:            fmt.Sprintf("jupiter-%s-%d", t.TxHash, t.CreatedTime),
		Exchange:      domain.ExchangeJupiter,
		Timestamp:     epochMillis(t.CreatedTime),
		Market:        PositionMarket(t.PositionName, t.Side),
		Side:          t.Side,
		Action:        action.FromJupiter(t),
		Price:         pricing.JupiterPrice(t),
		EntryPrice:    strPtr(pricing.JupiterEntryPrice(t)),
		ExitPrice:     strPtr(pricing.JupiterExitPrice(t)),
		SizeUSD:       parseFloat(&t.Size),
		CollateralUSD: parseFloat(&t.CollateralUSDDelta),
		Fee:           t.Fee,
		TxID:          t.TxHash,
	}
	if t.PnL != nil && *t.PnL != "" {
		pnl := parseFloat(t.PnL)
		nt.PnL = &pnl
	}
	return nt
}

// PositionMarket strips the "-PERP" suffix from a Jupiter position name and
// marks short positions with "-SHORT".
func PositionMarket(positionName string, side domain.Side) string {
	base := strings.TrimSuffix(positionName, "-PERP")
	if side == domain.SideShort {
		return base + "-SHORT"
	}
	return base
}

// CheckAvailability probes for a single trade.
func (j *Jupiter) CheckAvailability(ctx context.Context, address string) bool {
	body, err := j.src.Trades(ctx, address, 0, 1)
	if err != nil {
		logFailure(j.logger, "availability check failed", address, err)
		return false
	}
	var env struct {
		DataList []json.RawMessage `json:"dataList"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		j.logger.Warn("availability check: unexpected payload", slog.String("address", address))
		return false
	}
	return len(env.DataList) > 0
}
