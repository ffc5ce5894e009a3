package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/perpfeed/internal/adapter"
	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/market"
)

var flashNullable = []string{
	"price", "sizeUsd", "sizeAmount", "collateralUsd", "collateralPrice",
	"collateralPriceExponent", "collateralAmount", "pnlUsd", "liquidationPrice",
	"feeAmount", "oraclePrice", "oraclePriceExponent", "orderPrice",
	"orderPriceExponent", "entryPrice", "entryPriceExponent", "feeRebateAmount",
	"finalCollateralAmount", "finalCollateralUsd", "finalSizeUsd",
	"finalSizeAmount", "duration", "exitPrice", "exitPriceExponent",
	"exitFeeAmount", "entryFeeAmount", "oracleAccountTimestamp",
	"oracleAccountType", "oracleAccountPrice", "oracleAccountPriceExponent",
}

func flashRecord() map[string]any {
	rec := map[string]any{
		"txId":            "flashTx",
		"eventIndex":      2,
		"timestamp":       "1717000000",
		"positionAddress": "pos",
		"owner":           "owner",
		"market":          market.SOL,
		"side":            "long",
		"tradeType":       "OPEN_POSITION",
		"id":              1,
	}
	for _, k := range flashNullable {
		rec[k] = nil
	}
	return rec
}

type rawFlash struct {
	body []byte
	err  error
}

func (r rawFlash) Trades(context.Context, string, int, int) ([]byte, error) { return r.body, r.err }

type rawJupiter struct {
	body []byte
	err  error
}

func (r rawJupiter) Trades(context.Context, string, int, int) ([]byte, error) { return r.body, r.err }

func newRawService(flashBody, jupBody []byte, err error) *RawService {
	fs := rawFlash{flashBody, err}
	js := rawJupiter{jupBody, err}
	return NewRawService(fs, js,
		adapter.NewFlash(fs, market.Default(), discard()),
		adapter.NewJupiter(js, market.Default(), discard()),
	)
}

func TestFlashTradesValidated(t *testing.T) {
	svc := newRawService(mustJSON(t, []any{flashRecord()}), nil, nil)

	raw, err := svc.FlashTrades(context.Background(), "wallet", 1, 10)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, "flashTx", raw[0].TxID)

	norm, err := svc.FlashNormalized(context.Background(), "wallet", 0, 0)
	require.NoError(t, err)
	require.Len(t, norm, 1)
	assert.Equal(t, "flash-flashTx-2", norm[0].ID)
	assert.Equal(t, "SOL", norm[0].Market)
}

func TestFlashTradesInvalidPayload(t *testing.T) {
	rec := flashRecord()
	rec["side"] = "sideways"
	svc := newRawService(mustJSON(t, []any{rec}), nil, nil)

	_, err := svc.FlashTrades(context.Background(), "wallet", 0, 0)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.ExchangeFlash, ve.Exchange)
	assert.Len(t, ve.Fields, 1)
}

func TestRawTransportErrorPassesThrough(t *testing.T) {
	svc := newRawService(nil, nil, &domain.TransportError{Exchange: domain.ExchangeJupiter, StatusCode: 503})
	_, err := svc.JupiterTrades(context.Background(), "wallet", 0, 100)
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 503, te.StatusCode)
}

func TestJupiterNormalized(t *testing.T) {
	body := mustJSON(t, map[string]any{
		"dataList": []any{map[string]any{
			"mint": "So11111111111111111111111111111111111111112", "positionName": "SOL-PERP",
			"side": "short", "action": "Decrease", "orderType": "Liquidation",
			"collateralUsdDelta": "0", "price": "150.25", "size": "1000", "fee": "0.7",
			"pnl": "-12", "txHash": "jupTx", "createdTime": 1717000000000, "updatedTime": 1717000000000,
		}},
		"count": 57,
	})
	svc := newRawService(nil, body, nil)

	page, err := svc.JupiterNormalized(context.Background(), "wallet", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 57, page.Count)
	require.Len(t, page.DataList, 1)
	assert.Equal(t, domain.ActionLiquidate, page.DataList[0].Action.Type())
	assert.Equal(t, domain.ExchangeJupiter, page.DataList[0].Exchange)
}
