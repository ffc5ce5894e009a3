package domain

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestActionJSONShape(t *testing.T) {
	tests := []struct {
		name   string
		action TradeAction
		want   string
	}{
		{"open", OpenAction{}, `{"type":"open"}`},
		{"close with pnl", CloseAction{PnL: ptr(12.5)}, `{"type":"close","pnl":12.5}`},
		{"close without pnl", CloseAction{}, `{"type":"close","pnl":null}`},
		{"add collateral", AddCollateralAction{Amount: 3}, `{"type":"add_collateral","amount":3}`},
		{"take profit bare", TakeProfitAction{}, `{"type":"take_profit"}`},
		{"stop loss", StopLossAction{TriggerPrice: ptr(99.0)}, `{"type":"stop_loss","triggerPrice":99}`},
		{"limit order", OpenLimitOrderAction{LimitPrice: ptr(1.25)}, `{"type":"open_limit_order","limitPrice":1.25}`},
		{"unknown", UnknownAction{}, `{"type":"unknown"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.action)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))

			back, err := DecodeAction(got)
			require.NoError(t, err)
			assert.Equal(t, tt.action, back)
		})
	}
}

func TestDecodeActionRejectsUnknownTag(t *testing.T) {
	_, err := DecodeAction([]byte(`{"type":"teleport"}`))
	assert.Error(t, err)
}

func TestNormalizedTradeRoundTripKeepsVariant(t *testing.T) {
	entry := "$100.00"
	in := NormalizedTrade{
		ID:         "flash-abc-0",
		Exchange:   ExchangeFlash,
		Timestamp:  1700000000,
		Market:     "SOL",
		Side:       SideLong,
		Action:     RemoveCollateralAction{Amount: 4.2},
		Price:      "$100.00",
		EntryPrice: &entry,
		Fee:        "0",
		TxID:       "abc",
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"exitPrice":null`)
	assert.Contains(t, string(raw), `"pnl":null`)

	var out NormalizedTrade
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestNormalizedTradeMissingAction(t *testing.T) {
	var out NormalizedTrade
	err := json.Unmarshal([]byte(`{"id":"x","action":null}`), &out)
	assert.Error(t, err)
}

func TestTransportErrorUnwrap(t *testing.T) {
	err := error(&TransportError{Exchange: ExchangeJupiter, StatusCode: http.StatusTooManyRequests})
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "jupiter: upstream returned HTTP 429", err.Error())
}
