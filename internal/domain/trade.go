package domain

import (
	"encoding/json"
	"fmt"
)

// Exchange names a supported perpetuals venue.
type Exchange string

const (
	ExchangeFlash   Exchange = "Flash"
	ExchangeJupiter Exchange = "Jupiter"
)

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// PricePlaceholder is reported for entry or exit prices that could not be
// resolved.
const PricePlaceholder = "-"

// NormalizedTrade is the exchange-agnostic representation of one trade event.
// Values are created once by an adapter and never mutated.
type NormalizedTrade struct {
	ID       string   `json:"id"`
	Exchange Exchange `json:"exchange"`
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp     int64       `json:"timestamp"`
	Market        string      `json:"market"`
	Side          Side        `json:"side"`
	Action        TradeAction `json:"action"`
	Price         string      `json:"price"`
	EntryPrice    *string     `json:"entryPrice"`
	ExitPrice     *string     `json:"exitPrice"`
	SizeUSD       float64     `json:"sizeUsd"`
	CollateralUSD float64     `json:"collateralUsd"`
	Fee           string      `json:"fee"`
	PnL           *float64    `json:"pnl"`
	TxID          string      `json:"txId"`
}

// UnmarshalJSON decodes a trade, restoring the concrete TradeAction variant.
func (t *NormalizedTrade) UnmarshalJSON(data []byte) error {
	type plain NormalizedTrade
	var raw struct {
		plain
		Action json.RawMessage `json:"action"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = NormalizedTrade(raw.plain)
	if len(raw.Action) == 0 || string(raw.Action) == "null" {
		return fmt.Errorf("domain: trade %s: missing action", t.ID)
	}
	action, err := DecodeAction(raw.Action)
	if err != nil {
		return err
	}
	t.Action = action
	return nil
}

// NormalizedTradesResponse is one page of normalized trades together with
// pagination metadata.
type NormalizedTradesResponse struct {
	Trades     []NormalizedTrade `json:"trades"`
	TotalCount int               `json:"totalCount"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	HasMore    bool              `json:"hasMore"`
}

// EmptyResponse returns a page with no trades.
func EmptyResponse() NormalizedTradesResponse {
	return NormalizedTradesResponse{Trades: []NormalizedTrade{}, Page: 1}
}
