package pricing

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/market"
	"github.com/alanyoungcy/perpfeed/internal/schema"
)

func s(v string) *string { return &v }

func newFlash() *Flash {
	return NewFlash(market.Default(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func longSOL(tt schema.TradeType) schema.FlashTrade {
	return schema.FlashTrade{TxID: "tx", Market: market.SOL, Side: domain.SideLong, TradeType: tt}
}

func shortSOL(tt schema.TradeType) schema.FlashTrade {
	return schema.FlashTrade{TxID: "tx", Market: market.SOLShort, Side: domain.SideShort, TradeType: tt}
}

func TestFlashPriceExitShortCircuits(t *testing.T) {
	f := newFlash()
	for _, tr := range []schema.FlashTrade{longSOL(schema.ClosePosition), shortSOL(schema.OpenPosition)} {
		tr.ExitPrice = s("15012345678")
		tr.EntryPrice = s("14000000000")
		tr.OraclePrice = s("13000000000")
		tr.Price = s("120000000")
		tr.SizeUSD = s("1")
		tr.SizeAmount = s("1")
		assert.Equal(t, "$150.12", f.Price(tr), tr.Side)
	}
}

func TestFlashPriceShortChain(t *testing.T) {
	f := newFlash()

	tr := shortSOL(schema.OpenPosition)
	tr.EntryPrice = s("14000000000")
	tr.OraclePrice = s("13000000000")
	assert.Equal(t, "$140.00", f.Price(tr))

	tr = shortSOL(schema.OpenPosition)
	tr.OraclePrice = s("13000000000")
	tr.Price = s("150250000")
	assert.Equal(t, "$130.00", f.Price(tr))

	tr = shortSOL(schema.OpenPosition)
	tr.Price = s("150250000")
	assert.Equal(t, "$150.25", f.Price(tr))

	tr = shortSOL(schema.IncreaseSize)
	tr.SizeUSD = s("1500000000")
	tr.SizeAmount = s("10000000")
	assert.Equal(t, "$150.00", f.Price(tr))

	assert.Equal(t, Zero, f.Price(shortSOL(schema.OpenPosition)))
}

func TestFlashPriceLongChain(t *testing.T) {
	f := newFlash()

	tr := longSOL(schema.ClosePosition)
	tr.Price = s("149000000")
	tr.EntryPrice = s("14000000000")
	assert.Equal(t, "$149.00", f.Price(tr), "closing events trust the raw price first")

	tr = longSOL(schema.ClosePosition)
	tr.SizeUSD = s("3000000000")
	tr.SizeAmount = s("20000000000")
	tr.EntryPrice = s("14000000000")
	assert.Equal(t, "$150.00", f.Price(tr), "closing size ratio is returned")

	tr = longSOL(schema.OpenPosition)
	tr.Price = s("149000000")
	tr.EntryPrice = s("14000000000")
	assert.Equal(t, "$140.00", f.Price(tr))

	tr = longSOL(schema.OpenPosition)
	tr.Price = s("149000000")
	tr.OraclePrice = s("15100000000")
	assert.Equal(t, "$151.00", f.Price(tr))

	tr = longSOL(schema.IncreaseSize)
	tr.Price = s("149000000")
	assert.Equal(t, "$149.00", f.Price(tr))

	tr = longSOL(schema.IncreaseSize)
	tr.SizeUSD = s("3000000000")
	tr.SizeAmount = s("20000000000")
	assert.Equal(t, "$150.00", f.Price(tr))

	assert.Equal(t, Zero, f.Price(longSOL(schema.OpenPosition)))
}

func TestFlashPriceUsesMarketExponent(t *testing.T) {
	f := newFlash()
	tr := schema.FlashTrade{Market: market.BONK, Side: domain.SideLong, TradeType: schema.OpenPosition}
	tr.EntryPrice = s("245000")
	assert.Equal(t, "$0.000024", f.Price(tr))
}

func TestFlashComputationErrorsDegrade(t *testing.T) {
	f := newFlash()

	tr := longSOL(schema.ClosePosition)
	tr.ExitPrice = s("not-a-number")
	tr.Price = s("149000000")
	assert.Equal(t, Zero, f.Price(tr))
	assert.Equal(t, domain.PricePlaceholder, f.ExitPrice(tr))

	tr = shortSOL(schema.OpenPosition)
	tr.SizeUSD = s("1500000000")
	tr.SizeAmount = s("0")
	assert.Equal(t, Zero, f.Price(tr))
}

func TestFlashUnknownMarket(t *testing.T) {
	f := newFlash()
	tr := schema.FlashTrade{
		Market:     "unknown-market",
		Side:       domain.SideLong,
		TradeType:  schema.ClosePosition,
		ExitPrice:  s("15000000000"),
		EntryPrice: s("15000000000"),
		FeeAmount:  s("1000000"),
	}
	assert.Equal(t, Zero, f.Price(tr))
	assert.Equal(t, domain.PricePlaceholder, f.EntryPrice(tr))
	assert.Equal(t, domain.PricePlaceholder, f.ExitPrice(tr))
	assert.Equal(t, Zero, f.Fee(tr))
}

func TestFlashEntryPrice(t *testing.T) {
	f := newFlash()

	tr := longSOL(schema.ClosePosition)
	tr.EntryPrice = s("14000000000")
	assert.Equal(t, "$140.00", f.EntryPrice(tr))

	tr = longSOL(schema.OpenPosition)
	tr.OraclePrice = s("15100000000")
	tr.Price = s("150000000")
	assert.Equal(t, "$151.00", f.EntryPrice(tr), "opening oracle price is returned")

	tr = longSOL(schema.ClosePosition)
	tr.OraclePrice = s("15100000000")
	tr.Price = s("150000000")
	assert.Equal(t, "$150.00", f.EntryPrice(tr))

	tr = longSOL(schema.ClosePosition)
	tr.SizeUSD = s("3000000000")
	tr.SizeAmount = s("20000000000")
	assert.Equal(t, "$150.00", f.EntryPrice(tr))

	assert.Equal(t, domain.PricePlaceholder, f.EntryPrice(longSOL(schema.OpenPosition)))
}

func TestFlashExitPrice(t *testing.T) {
	f := newFlash()

	tr := longSOL(schema.OpenPosition)
	tr.ExitPrice = s("15500000000")
	assert.Equal(t, "$155.00", f.ExitPrice(tr))

	tr = longSOL(schema.Liquidate)
	tr.OraclePrice = s("15100000000")
	tr.Price = s("150000000")
	assert.Equal(t, "$151.00", f.ExitPrice(tr), "closing oracle price is returned")

	tr = longSOL(schema.TakeProfit)
	tr.Price = s("150000000")
	assert.Equal(t, "$150.00", f.ExitPrice(tr))

	tr = longSOL(schema.OpenPosition)
	tr.OraclePrice = s("15100000000")
	tr.Price = s("150000000")
	assert.Equal(t, domain.PricePlaceholder, f.ExitPrice(tr))
}

func TestFlashFeeFlatRule(t *testing.T) {
	f := newFlash()

	tr := shortSOL(schema.OpenPosition)
	tr.EntryPrice = s("15000000000")
	tr.FeeAmount = s("1500000")
	assert.Equal(t, "$1.50", f.Fee(tr))

	assert.Equal(t, Zero, f.Fee(shortSOL(schema.OpenPosition)))

	fx := schema.FlashTrade{Market: market.AUD, Side: domain.SideLong, TradeType: schema.OpenPosition}
	fx.EntryPrice = s("66000")
	fx.FeeAmount = s("250000")
	assert.Equal(t, "$0.25", f.Fee(fx))
}

func TestFlashFeeLongOpening(t *testing.T) {
	f := newFlash()

	tr := longSOL(schema.OpenPosition)
	tr.EntryPrice = s("15000000000")
	tr.OraclePrice = s("99900000000")
	tr.FeeAmount = s("10000000")
	assert.Equal(t, "$1.50", f.Fee(tr))

	tr = longSOL(schema.AddCollateral)
	tr.OraclePrice = s("15000000000")
	tr.FeeAmount = s("10000000")
	assert.Equal(t, "$1.50", f.Fee(tr))

	tr = longSOL(schema.OpenPosition)
	tr.Price = s("150000000")
	tr.FeeAmount = s("10000000")
	assert.Equal(t, "$1.50", f.Fee(tr))

	tr = longSOL(schema.OpenPosition)
	tr.Price = s("0")
	tr.FeeAmount = s("10000000")
	assert.Equal(t, Zero, f.Fee(tr))

	tr = longSOL(schema.IncreaseSize)
	tr.SizeUSD = s("3000")
	tr.SizeAmount = s("20")
	tr.FeeAmount = s("100000")
	assert.Equal(t, "$1.50", f.Fee(tr))

	tr = longSOL(schema.OpenPosition)
	tr.SizeUSD = s("3000")
	tr.SizeAmount = s("20")
	tr.FeeAmount = s("100000")
	assert.Equal(t, Zero, f.Fee(tr), "size quote only applies to size increases")
}

func TestFlashFeeLongClosing(t *testing.T) {
	f := newFlash()

	tr := longSOL(schema.ClosePosition)
	tr.ExitPrice = s("15000000000")
	tr.EntryPrice = s("99900000000")
	tr.FeeAmount = s("10000000")
	assert.Equal(t, "$1.50", f.Fee(tr))

	tr = longSOL(schema.ClosePosition)
	tr.ExitPrice = s("15000000000")
	assert.Equal(t, "$0.00", f.Fee(tr), "missing fee amount prices as zero")

	tr = longSOL(schema.DecreaseSize)
	tr.SizeUSD = s("3000")
	tr.SizeAmount = s("20")
	tr.FeeAmount = s("100000")
	assert.Equal(t, "$1.50", f.Fee(tr))

	tr = longSOL(schema.StopLoss)
	tr.ExitPrice = s("15000000000")
	tr.FeeAmount = s("ten")
	assert.Equal(t, Zero, f.Fee(tr))
}

func TestFlashResolversAreDeterministic(t *testing.T) {
	f := newFlash()
	tr := longSOL(schema.ClosePosition)
	tr.ExitPrice = s("15012345678")
	tr.FeeAmount = s("12345")
	for i := 0; i < 3; i++ {
		assert.Equal(t, f.Price(tr), f.Price(tr))
		assert.Equal(t, f.Fee(tr), f.Fee(tr))
	}
}
