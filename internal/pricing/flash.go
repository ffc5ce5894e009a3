package pricing

import (
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/market"
	"github.com/alanyoungcy/perpfeed/internal/schema"
)

var errZeroSize = errors.New("size amount is zero")

var (
	micro   = int32(-6)
	hundred = decimal.NewFromInt(100)
)

// flashInput pairs a raw trade with its resolved market.
type flashInput struct {
	trade  schema.FlashTrade
	market domain.MarketInfo
}

func populated(s *string) bool { return s != nil && *s != "" }

func parse(field string, s *string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.Zero, &domain.ComputationError{Field: field, Err: err}
	}
	return d, nil
}

// scaled applies the market's price exponent to a raw price field.
func scaled(field string, get func(schema.FlashTrade) *string) Rule[flashInput] {
	return Rule[flashInput]{
		Name: field,
		When: func(in flashInput) bool { return populated(get(in.trade)) },
		Value: func(in flashInput) (decimal.Decimal, error) {
			d, err := parse(field, get(in.trade))
			if err != nil {
				return decimal.Zero, err
			}
			return d.Shift(in.market.Exponent), nil
		},
	}
}

var (
	exitRule   = scaled("exitPrice", func(t schema.FlashTrade) *string { return t.ExitPrice })
	entryRule  = scaled("entryPrice", func(t schema.FlashTrade) *string { return t.EntryPrice })
	oracleRule = scaled("oraclePrice", func(t schema.FlashTrade) *string { return t.OraclePrice })

	// rawPriceRule reads the six-decimal USD price field.
	rawPriceRule = Rule[flashInput]{
		Name: "price",
		When: func(in flashInput) bool { return populated(in.trade.Price) },
		Value: func(in flashInput) (decimal.Decimal, error) {
			d, err := parse("price", in.trade.Price)
			if err != nil {
				return decimal.Zero, err
			}
			return d.Shift(micro), nil
		},
	}

	// sizeRatioRule derives a price from USD size over token size.
	sizeRatioRule = Rule[flashInput]{
		Name: "sizeRatio",
		When: func(in flashInput) bool {
			return populated(in.trade.SizeUSD) && populated(in.trade.SizeAmount)
		},
		Value: func(in flashInput) (decimal.Decimal, error) {
			usd, err := parse("sizeUsd", in.trade.SizeUSD)
			if err != nil {
				return decimal.Zero, err
			}
			amount, err := parse("sizeAmount", in.trade.SizeAmount)
			if err != nil {
				return decimal.Zero, err
			}
			if amount.IsZero() {
				return decimal.Zero, &domain.ComputationError{Field: "sizeAmount", Err: errZeroSize}
			}
			tokens := amount.Div(decimal.NewFromInt(in.market.Denomination))
			return usd.Shift(micro).Div(tokens), nil
		},
	}
)

func restrict(bucket string, pred func(schema.TradeType) bool, r Rule[flashInput]) Rule[flashInput] {
	when := r.When
	r.Name = r.Name + "(" + bucket + ")"
	r.When = func(in flashInput) bool { return pred(in.trade.TradeType) && when(in) }
	return r
}

func closingOnly(r Rule[flashInput]) Rule[flashInput] {
	return restrict("closing", schema.TradeType.IsClosing, r)
}

func openingOnly(r Rule[flashInput]) Rule[flashInput] {
	return restrict("opening", schema.TradeType.IsOpening, r)
}

var (
	shortPriceChain = Chain[flashInput]{exitRule, entryRule, oracleRule, rawPriceRule, sizeRatioRule}

	longPriceChain = Chain[flashInput]{
		exitRule,
		closingOnly(rawPriceRule),
		closingOnly(sizeRatioRule),
		entryRule,
		oracleRule,
		rawPriceRule,
		sizeRatioRule,
	}

	entryPriceChain = Chain[flashInput]{
		entryRule,
		openingOnly(oracleRule),
		rawPriceRule,
		sizeRatioRule,
	}

	exitPriceChain = Chain[flashInput]{
		exitRule,
		closingOnly(oracleRule),
		closingOnly(rawPriceRule),
	}
)

// Fee chains yield the reference price multiplied by the fee in tokens.

func feeTokens(in flashInput) (decimal.Decimal, error) {
	if !populated(in.trade.FeeAmount) {
		return decimal.Zero, nil
	}
	fee, err := parse("feeAmount", in.trade.FeeAmount)
	if err != nil {
		return decimal.Zero, err
	}
	return fee.Div(decimal.NewFromInt(in.market.Denomination)), nil
}

func timesFee(r Rule[flashInput]) Rule[flashInput] {
	value := r.Value
	r.Value = func(in flashInput) (decimal.Decimal, error) {
		p, err := value(in)
		if err != nil {
			return decimal.Zero, err
		}
		tokens, err := feeTokens(in)
		if err != nil {
			return decimal.Zero, err
		}
		return p.Mul(tokens), nil
	}
	return r
}

var (
	nonZeroPriceRule = func() Rule[flashInput] {
		r := rawPriceRule
		r.When = func(in flashInput) bool { return populated(in.trade.Price) && *in.trade.Price != "0" }
		return r
	}()

	// sizeQuoteRule prices the fee from the USD/token size ratio; Flash
	// reports it in hundredths.
	sizeQuoteRule = func(tt schema.TradeType) Rule[flashInput] {
		return Rule[flashInput]{
			Name: "sizeRatio(" + string(tt) + ")",
			When: func(in flashInput) bool {
				return in.trade.TradeType == tt && populated(in.trade.SizeUSD) && populated(in.trade.SizeAmount)
			},
			Value: func(in flashInput) (decimal.Decimal, error) {
				usd, err := parse("sizeUsd", in.trade.SizeUSD)
				if err != nil {
					return decimal.Zero, err
				}
				amount, err := parse("sizeAmount", in.trade.SizeAmount)
				if err != nil {
					return decimal.Zero, err
				}
				if amount.IsZero() {
					return decimal.Zero, &domain.ComputationError{Field: "sizeAmount", Err: errZeroSize}
				}
				return usd.Div(amount).Mul(hundred), nil
			},
		}
	}

	openingFeeChain = Chain[flashInput]{
		timesFee(entryRule),
		timesFee(oracleRule),
		timesFee(nonZeroPriceRule),
		timesFee(sizeQuoteRule(schema.IncreaseSize)),
	}

	closingFeeChain = Chain[flashInput]{
		timesFee(exitRule),
		timesFee(oracleRule),
		timesFee(nonZeroPriceRule),
		timesFee(sizeQuoteRule(schema.DecreaseSize)),
	}
)

// Flash resolves prices and fees for raw Flash trades.
type Flash struct {
	markets domain.MarketLookup
	logger  *slog.Logger
}

// NewFlash creates a Flash resolver backed by the given market table.
func NewFlash(markets domain.MarketLookup, logger *slog.Logger) *Flash {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flash{markets: markets, logger: logger}
}

func (f *Flash) input(t schema.FlashTrade) (flashInput, bool) {
	info, ok := f.markets.Lookup(t.Market)
	if !ok {
		return flashInput{}, false
	}
	return flashInput{trade: t, market: info}, true
}

func (f *Flash) resolve(what string, c Chain[flashInput], in flashInput, fallback string) string {
	v, rule, err := c.Resolve(in)
	if err != nil {
		if !errors.Is(err, ErrNoRule) {
			f.logger.Warn("flash computation failed",
				slog.String("value", what),
				slog.String("rule", rule),
				slog.String("tx", in.trade.TxID),
				slog.String("error", err.Error()),
			)
		}
		return fallback
	}
	return FormatCurrency(v)
}

// Price returns the canonical display price, or "0" when nothing resolves.
func (f *Flash) Price(t schema.FlashTrade) string {
	in, ok := f.input(t)
	if !ok {
		return Zero
	}
	if t.Side == domain.SideShort {
		return f.resolve("price", shortPriceChain, in, Zero)
	}
	return f.resolve("price", longPriceChain, in, Zero)
}

// EntryPrice returns the entry price, or "-" when nothing resolves.
func (f *Flash) EntryPrice(t schema.FlashTrade) string {
	in, ok := f.input(t)
	if !ok {
		return domain.PricePlaceholder
	}
	return f.resolve("entryPrice", entryPriceChain, in, domain.PricePlaceholder)
}

// ExitPrice returns the exit price, or "-" when nothing resolves.
func (f *Flash) ExitPrice(t schema.FlashTrade) string {
	in, ok := f.input(t)
	if !ok {
		return domain.PricePlaceholder
	}
	return f.resolve("exitPrice", exitPriceChain, in, domain.PricePlaceholder)
}

// Fee returns the trade fee in USD. Shorts and the FX markets are charged a
// flat fee in six-decimal USD; long fees are priced from the trade's
// reference price. Failures degrade to "0".
func (f *Flash) Fee(t schema.FlashTrade) string {
	in, ok := f.input(t)
	if !ok {
		return Zero
	}
	if t.Side == domain.SideLong && !market.FeeExcluded(t.Market) {
		switch {
		case t.TradeType.IsOpening():
			return f.resolve("fee", openingFeeChain, in, Zero)
		case t.TradeType.IsClosing():
			return f.resolve("fee", closingFeeChain, in, Zero)
		}
	}
	if !populated(t.FeeAmount) {
		return Zero
	}
	fee, err := parse("feeAmount", t.FeeAmount)
	if err != nil {
		f.logger.Warn("flash computation failed",
			slog.String("value", "fee"),
			slog.String("tx", t.TxID),
			slog.String("error", err.Error()),
		)
		return Zero
	}
	return FormatCurrency(fee.Shift(micro))
}
