package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/schema"
)

// JupiterPrice formats the raw USD price. Jupiter prices need no scaling.
// An empty price formats as zero; an unparseable one reports "0".
func JupiterPrice(t schema.JupiterTrade) string {
	if t.Price == "" {
		return FormatCurrency(decimal.Zero)
	}
	d, err := decimal.NewFromString(t.Price)
	if err != nil {
		return Zero
	}
	return FormatCurrency(d)
}

// JupiterEntryPrice is the raw price for market increases, otherwise "-".
func JupiterEntryPrice(t schema.JupiterTrade) string {
	if t.OrderType == schema.OrderMarket && t.Action == schema.ActionIncrease {
		return jupiterPriceOrPlaceholder(t)
	}
	return domain.PricePlaceholder
}

// JupiterExitPrice is the raw price for market or trigger decreases and for
// liquidations, otherwise "-".
func JupiterExitPrice(t schema.JupiterTrade) string {
	switch {
	case t.OrderType == schema.OrderMarket && t.Action == schema.ActionDecrease,
		t.OrderType == schema.OrderTrigger && t.Action == schema.ActionDecrease,
		t.OrderType == schema.OrderLiquidation:
		return jupiterPriceOrPlaceholder(t)
	}
	return domain.PricePlaceholder
}

func jupiterPriceOrPlaceholder(t schema.JupiterTrade) string {
	if t.Price == "" {
		return domain.PricePlaceholder
	}
	d, err := decimal.NewFromString(t.Price)
	if err != nil {
		return domain.PricePlaceholder
	}
	return FormatCurrency(d)
}
