package adapter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

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

func flashRecord(overrides map[string]any) map[string]any {
	rec := map[string]any{
		"txId":            "flashTx",
		"eventIndex":      0,
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
	for k, v := range overrides {
		rec[k] = v
	}
	return rec
}

func jupiterRecord(overrides map[string]any) map[string]any {
	rec := map[string]any{
		"mint":               "So11111111111111111111111111111111111111112",
		"positionName":       "SOL-PERP",
		"side":               "long",
		"action":             "Increase",
		"orderType":          "Market",
		"collateralUsdDelta": "100.5",
		"price":              "150.25",
		"size":               "1000",
		"fee":                "0.7",
		"pnl":                nil,
		"txHash":             "jupTx",
		"createdTime":        1717000000000,
		"updatedTime":        1717000000000,
	}
	for k, v := range overrides {
		rec[k] = v
	}
	return rec
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type flashCall struct{ page, take int }

type fakeFlash struct {
	mu    sync.Mutex
	body  []byte
	err   error
	calls []flashCall
}

func (f *fakeFlash) Trades(_ context.Context, _ string, page, take int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, flashCall{page, take})
	return f.body, f.err
}

type jupiterCall struct{ start, end int }

type fakeJupiter struct {
	mu    sync.Mutex
	pages func(start, end int) ([]byte, error)
	calls []jupiterCall
}

func (f *fakeJupiter) Trades(_ context.Context, _ string, start, end int) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, jupiterCall{start, end})
	f.mu.Unlock()
	return f.pages(start, end)
}
