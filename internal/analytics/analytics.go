// Package analytics derives summary figures from normalized trades.
package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// Summary is the aggregate view served by the stats endpoint.
type Summary struct {
	TradeCount       int                     `json:"tradeCount"`
	TotalPnL         float64                 `json:"totalPnl"`
	WinRate          float64                 `json:"winRate"`
	VolumeByMarket   map[string]float64      `json:"volumeByMarket"`
	TradesByExchange map[domain.Exchange]int `json:"tradesByExchange"`
}

// Summarize computes every figure of Summary in one call.
func Summarize(trades []domain.NormalizedTrade) Summary {
	byExchange := make(map[domain.Exchange]int)
	for ex, ts := range GroupByExchange(trades) {
		byExchange[ex] = len(ts)
	}
	return Summary{
		TradeCount:       len(trades),
		TotalPnL:         TotalPnL(trades),
		WinRate:          WinRate(trades),
		VolumeByMarket:   VolumeByMarket(trades),
		TradesByExchange: byExchange,
	}
}

// TotalPnL sums realized PnL over closes and liquidations. Trades without a
// reported PnL count as zero. Sums are exact in decimal and rounded to
// float64 once.
func TotalPnL(trades []domain.NormalizedTrade) float64 {
	sum := decimal.Zero
	for _, t := range trades {
		switch t.Action.(type) {
		case domain.CloseAction, domain.LiquidateAction:
			if t.PnL != nil {
				sum = sum.Add(decimal.NewFromFloat(*t.PnL))
			}
		}
	}
	return sum.InexactFloat64()
}

// WinRate is the share of closing trades (close, take profit, stop loss)
// with a positive PnL. It is 0 when there are no closing trades.
func WinRate(trades []domain.NormalizedTrade) float64 {
	var closed, won int
	for _, t := range trades {
		switch t.Action.(type) {
		case domain.CloseAction, domain.TakeProfitAction, domain.StopLossAction:
			closed++
			if pnl(t) > 0 {
				won++
			}
		}
	}
	if closed == 0 {
		return 0
	}
	return float64(won) / float64(closed)
}

// VolumeByMarket sums position size in USD per market label.
func VolumeByMarket(trades []domain.NormalizedTrade) map[string]float64 {
	sums := make(map[string]decimal.Decimal)
	for _, t := range trades {
		sums[t.Market] = sums[t.Market].Add(decimal.NewFromFloat(t.SizeUSD))
	}
	out := make(map[string]float64, len(sums))
	for market, v := range sums {
		out[market] = v.InexactFloat64()
	}
	return out
}

// GroupByExchange partitions trades by venue, keeping their relative order.
func GroupByExchange(trades []domain.NormalizedTrade) map[domain.Exchange][]domain.NormalizedTrade {
	out := make(map[domain.Exchange][]domain.NormalizedTrade)
	for _, t := range trades {
		out[t.Exchange] = append(out[t.Exchange], t)
	}
	return out
}

func pnl(t domain.NormalizedTrade) float64 {
	if t.PnL == nil {
		return 0
	}
	return *t.PnL
}
