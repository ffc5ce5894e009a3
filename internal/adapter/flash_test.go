package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/market"
	"github.com/alanyoungcy/perpfeed/internal/schema"
)

func TestFlashFetchTradesPagination(t *testing.T) {
	tests := []struct {
		name         string
		opts         FetchOptions
		wantCall     flashCall
		wantPage     int
		wantPageSize int
	}{
		{"no window", FetchOptions{}, flashCall{0, 0}, 1, 2},
		{"limit only", FetchOptions{Limit: 50}, flashCall{0, 50}, 1, 50},
		{"limit and offset", FetchOptions{Limit: 50, Offset: 100}, flashCall{3, 50}, 3, 50},
		{"offset only", FetchOptions{Offset: 250}, flashCall{3, 0}, 3, 2},
	}
	body := mustJSON(t, []any{flashRecord(nil), flashRecord(map[string]any{"eventIndex": 1})})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeFlash{body: body}
			a := NewFlash(src, market.Default(), discard())

			resp, err := a.FetchTrades(context.Background(), "wallet", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, []flashCall{tt.wantCall}, src.calls)
			assert.Len(t, resp.Trades, 2)
			assert.Equal(t, 2, resp.TotalCount)
			assert.Equal(t, tt.wantPage, resp.Page)
			assert.Equal(t, tt.wantPageSize, resp.PageSize)
			assert.False(t, resp.HasMore)
		})
	}
}

func TestFlashNormalize(t *testing.T) {
	body := mustJSON(t, []any{flashRecord(map[string]any{
		"txId":          "5abc",
		"eventIndex":    2,
		"timestamp":     "1717000123",
		"tradeType":     "CLOSE_POSITION",
		"exitPrice":     "15000000000",
		"entryPrice":    "14000000000",
		"sizeUsd":       "1500.5",
		"collateralUsd": "300",
		"feeAmount":     "10000000",
		"pnlUsd":        "-12.75",
	})})
	a := NewFlash(&fakeFlash{body: body}, market.Default(), discard())

	resp, err := a.FetchTrades(context.Background(), "wallet", FetchOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Trades, 1)
	tr := resp.Trades[0]

	assert.Equal(t, "flash-5abc-2", tr.ID)
	assert.Equal(t, domain.ExchangeFlash, tr.Exchange)
	assert.Equal(t, int64(1717000123000), tr.Timestamp)
	assert.Equal(t, "SOL", tr.Market)
	assert.Equal(t, domain.SideLong, tr.Side)
	assert.Equal(t, "$150.00", tr.Price)
	require.NotNil(t, tr.EntryPrice)
	assert.Equal(t, "$140.00", *tr.EntryPrice)
	require.NotNil(t, tr.ExitPrice)
	assert.Equal(t, "$150.00", *tr.ExitPrice)
	assert.Equal(t, 1500.5, tr.SizeUSD)
	assert.Equal(t, 300.0, tr.CollateralUSD)
	assert.Equal(t, "$1.50", tr.Fee)
	require.NotNil(t, tr.PnL)
	assert.Equal(t, -12.75, *tr.PnL)
	assert.Equal(t, "5abc", tr.TxID)

	closeAction, ok := tr.Action.(domain.CloseAction)
	require.True(t, ok)
	require.NotNil(t, closeAction.PnL)
	assert.Equal(t, -12.75, *closeAction.PnL)
}

func TestFlashNormalizeOptionalFields(t *testing.T) {
	a := NewFlash(&fakeFlash{}, market.Default(), discard())
	tr := a.Normalize(schema.FlashTrade{
		TxID:      "tx",
		Timestamp: "17170abc",
		Market:    "UnknownMarket111",
		Side:      domain.SideShort,
		TradeType: schema.OpenPosition,
	})
	assert.Equal(t, int64(17170000), tr.Timestamp)
	assert.Equal(t, "UnknownMarket111", tr.Market)
	assert.Equal(t, "0", tr.Price)
	assert.Equal(t, "0", tr.Fee)
	assert.Nil(t, tr.EntryPrice)
	assert.Nil(t, tr.ExitPrice)
	assert.Nil(t, tr.PnL)
	assert.Zero(t, tr.SizeUSD)
	assert.Equal(t, domain.OpenAction{}, tr.Action)
}

func TestFlashNormalizeIsIdempotent(t *testing.T) {
	exit := "15012345678"
	fee := "12345"
	raw := schema.FlashTrade{
		TxID: "tx", EventIndex: 3, Timestamp: "1", Market: market.ETH,
		Side: domain.SideLong, TradeType: schema.TakeProfit, ExitPrice: &exit, FeeAmount: &fee,
	}
	a := NewFlash(&fakeFlash{}, market.Default(), discard())
	first, err := json.Marshal(a.Normalize(raw))
	require.NoError(t, err)
	second, err := json.Marshal(a.Normalize(raw))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFlashIDsAreUnique(t *testing.T) {
	a := NewFlash(&fakeFlash{}, market.Default(), discard())
	seen := make(map[string]struct{}, 10_000)
	for tx := 0; tx < 1000; tx++ {
		for idx := int64(0); idx < 10; idx++ {
			tr := a.Normalize(schema.FlashTrade{TxID: fmt.Sprintf("tx%d", tx), EventIndex: idx, Market: market.SOL, Side: domain.SideLong})
			seen[tr.ID] = struct{}{}
		}
	}
	assert.Len(t, seen, 10_000)
}

func TestFlashFetchTradesErrors(t *testing.T) {
	transport := &domain.TransportError{Exchange: domain.ExchangeFlash, StatusCode: 502}
	a := NewFlash(&fakeFlash{err: transport}, market.Default(), discard())
	_, err := a.FetchTrades(context.Background(), "wallet", FetchOptions{})
	assert.ErrorIs(t, err, transport)

	bad := mustJSON(t, []any{flashRecord(nil), flashRecord(map[string]any{"side": "flat"})})
	a = NewFlash(&fakeFlash{body: bad}, market.Default(), discard())
	resp, err := a.FetchTrades(context.Background(), "wallet", FetchOptions{})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Nil(t, resp.Trades)
}

func TestFlashCheckAvailability(t *testing.T) {
	src := &fakeFlash{body: mustJSON(t, []any{flashRecord(nil)})}
	a := NewFlash(src, market.Default(), discard())
	assert.True(t, a.CheckAvailability(context.Background(), "wallet"))
	assert.Equal(t, []flashCall{{1, 1}}, src.calls)

	assert.False(t, NewFlash(&fakeFlash{body: []byte(`[]`)}, market.Default(), discard()).CheckAvailability(context.Background(), "wallet"))
	assert.False(t, NewFlash(&fakeFlash{err: errors.New("down")}, market.Default(), discard()).CheckAvailability(context.Background(), "wallet"))
	assert.False(t, NewFlash(&fakeFlash{body: []byte(`{}`)}, market.Default(), discard()).CheckAvailability(context.Background(), "wallet"))
}

func TestFlashMarketName(t *testing.T) {
	a := NewFlash(&fakeFlash{}, market.Default(), discard())
	assert.Equal(t, "BTC-SHORT", a.MarketName(market.BTCShort))
	assert.Equal(t, "raw", a.MarketName("raw"))
	assert.True(t, a.SupportsPagination())
}
