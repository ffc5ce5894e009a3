package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

func f(v float64) *float64 { return &v }

func sample() []domain.NormalizedTrade {
	return []domain.NormalizedTrade{
		{ID: "1", Exchange: domain.ExchangeFlash, Market: "SOL", SizeUSD: 100, Action: domain.OpenAction{}},
		{ID: "2", Exchange: domain.ExchangeFlash, Market: "SOL", SizeUSD: 100, Action: domain.CloseAction{PnL: f(25)}, PnL: f(25)},
		{ID: "3", Exchange: domain.ExchangeJupiter, Market: "BTC-Long", SizeUSD: 50, Action: domain.LiquidateAction{}, PnL: f(-40)},
		{ID: "4", Exchange: domain.ExchangeJupiter, Market: "BTC-Long", SizeUSD: 10, Action: domain.StopLossAction{}, PnL: f(-5)},
		{ID: "5", Exchange: domain.ExchangeJupiter, Market: "ETH-Short", SizeUSD: 20, Action: domain.TakeProfitAction{}, PnL: f(7)},
		{ID: "6", Exchange: domain.ExchangeFlash, Market: "ETH", SizeUSD: 5, Action: domain.CloseAction{}},
	}
}

func TestTotalPnL(t *testing.T) {
	// Only close and liquidate count; take profit and stop loss do not.
	assert.InDelta(t, -15.0, TotalPnL(sample()), 1e-9)
	assert.Zero(t, TotalPnL(nil))
}

func TestWinRate(t *testing.T) {
	// Closing trades: 2 (win), 4 (loss), 5 (win), 6 (no pnl).
	assert.InDelta(t, 0.5, WinRate(sample()), 1e-9)
	assert.Zero(t, WinRate([]domain.NormalizedTrade{{Action: domain.OpenAction{}}}))
}

func TestVolumeByMarket(t *testing.T) {
	assert.Equal(t, map[string]float64{
		"SOL":       200,
		"BTC-Long":  60,
		"ETH-Short": 20,
		"ETH":       5,
	}, VolumeByMarket(sample()))
}

func TestSumsAreExact(t *testing.T) {
	trades := []domain.NormalizedTrade{
		{Market: "SOL", SizeUSD: 0.1, Action: domain.CloseAction{}, PnL: f(0.1)},
		{Market: "SOL", SizeUSD: 0.2, Action: domain.LiquidateAction{}, PnL: f(0.2)},
	}
	assert.Equal(t, 0.3, TotalPnL(trades))
	assert.Equal(t, map[string]float64{"SOL": 0.3}, VolumeByMarket(trades))
}

func TestGroupByExchange(t *testing.T) {
	groups := GroupByExchange(sample())
	assert.Len(t, groups, 2)
	var ids []string
	for _, tr := range groups[domain.ExchangeJupiter] {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"3", "4", "5"}, ids)
}

func TestSummarize(t *testing.T) {
	s := Summarize(sample())
	assert.Equal(t, 6, s.TradeCount)
	assert.Equal(t, map[domain.Exchange]int{domain.ExchangeFlash: 3, domain.ExchangeJupiter: 3}, s.TradesByExchange)

	empty := Summarize(nil)
	assert.NotNil(t, empty.VolumeByMarket)
	assert.Zero(t, empty.WinRate)
}
