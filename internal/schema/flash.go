package schema

import (
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// TradeType is a Flash event code.
type TradeType string

const (
	OpenPosition           TradeType = "OPEN_POSITION"
	ClosePosition          TradeType = "CLOSE_POSITION"
	IncreaseSize           TradeType = "INCREASE_SIZE"
	DecreaseSize           TradeType = "DECREASE_SIZE"
	Liquidate              TradeType = "LIQUIDATE"
	AddCollateral          TradeType = "ADD_COLLATERAL"
	RemoveCollateral       TradeType = "REMOVE_COLLATERAL"
	TakeProfit             TradeType = "TAKE_PROFIT"
	StopLoss               TradeType = "STOP_LOSS"
	OpenLimitOrderPosition TradeType = "OPEN_LIMIT_ORDER_POSITION"
)

// IsOpening reports whether t opens or grows a position.
func (t TradeType) IsOpening() bool {
	switch t {
	case OpenPosition, IncreaseSize, AddCollateral, OpenLimitOrderPosition:
		return true
	}
	return false
}

// IsClosing reports whether t closes or shrinks a position.
func (t TradeType) IsClosing() bool {
	switch t {
	case ClosePosition, DecreaseSize, RemoveCollateral, TakeProfit, StopLoss, Liquidate:
		return true
	}
	return false
}

// FlashTrade is one raw Flash trade event. Numeric payloads stay strings.
type FlashTrade struct {
	TxID                       string      `json:"txId"`
	EventIndex                 int64       `json:"eventIndex"`
	Timestamp                  string      `json:"timestamp"`
	PositionAddress            string      `json:"positionAddress"`
	Owner                      string      `json:"owner"`
	Market                     string      `json:"market"`
	Side                       domain.Side `json:"side"`
	TradeType                  TradeType   `json:"tradeType"`
	Price                      *string     `json:"price"`
	SizeUSD                    *string     `json:"sizeUsd"`
	SizeAmount                 *string     `json:"sizeAmount"`
	CollateralUSD              *string     `json:"collateralUsd"`
	CollateralPrice            *string     `json:"collateralPrice"`
	CollateralPriceExponent    *int64      `json:"collateralPriceExponent"`
	CollateralAmount           *string     `json:"collateralAmount"`
	PnLUSD                     *string     `json:"pnlUsd"`
	LiquidationPrice           *string     `json:"liquidationPrice"`
	FeeAmount                  *string     `json:"feeAmount"`
	OraclePrice                *string     `json:"oraclePrice"`
	OraclePriceExponent        *int64      `json:"oraclePriceExponent"`
	OrderPrice                 *string     `json:"orderPrice"`
	OrderPriceExponent         *int64      `json:"orderPriceExponent"`
	EntryPrice                 *string     `json:"entryPrice"`
	EntryPriceExponent         *int64      `json:"entryPriceExponent"`
	FeeRebateAmount            *string     `json:"feeRebateAmount"`
	FinalCollateralAmount      *string     `json:"finalCollateralAmount"`
	FinalCollateralUSD         *string     `json:"finalCollateralUsd"`
	FinalSizeUSD               *string     `json:"finalSizeUsd"`
	FinalSizeAmount            *string     `json:"finalSizeAmount"`
	Duration                   *string     `json:"duration"`
	ExitPrice                  *string     `json:"exitPrice"`
	ExitPriceExponent          *int64      `json:"exitPriceExponent"`
	ExitFeeAmount              *string     `json:"exitFeeAmount"`
	ID                         int64       `json:"id"`
	EntryFeeAmount             *string     `json:"entryFeeAmount"`
	OracleAccountTimestamp     *string     `json:"oracleAccountTimestamp"`
	OracleAccountType          *string     `json:"oracleAccountType"`
	OracleAccountPrice         *string     `json:"oracleAccountPrice"`
	OracleAccountPriceExponent *int64      `json:"oracleAccountPriceExponent"`
}

var flashTrade = objectSchema{
	str("txId"),
	integer("eventIndex"),
	str("timestamp"),
	str("positionAddress"),
	str("owner"),
	str("market"),
	oneOf("side", string(domain.SideLong), string(domain.SideShort)),
	oneOf("tradeType",
		string(ClosePosition), string(OpenPosition), string(Liquidate),
		string(AddCollateral), string(RemoveCollateral), string(IncreaseSize),
		string(DecreaseSize), string(TakeProfit), string(StopLoss),
		string(OpenLimitOrderPosition),
	),
	nullStr("price"),
	nullStr("sizeUsd"),
	nullStr("sizeAmount"),
	nullStr("collateralUsd"),
	nullStr("collateralPrice"),
	nullInt("collateralPriceExponent"),
	nullStr("collateralAmount"),
	nullStr("pnlUsd"),
	nullStr("liquidationPrice"),
	nullStr("feeAmount"),
	nullStr("oraclePrice"),
	nullInt("oraclePriceExponent"),
	nullStr("orderPrice"),
	nullInt("orderPriceExponent"),
	nullStr("entryPrice"),
	nullInt("entryPriceExponent"),
	nullStr("feeRebateAmount"),
	nullStr("finalCollateralAmount"),
	nullStr("finalCollateralUsd"),
	nullStr("finalSizeUsd"),
	nullStr("finalSizeAmount"),
	nullStr("duration"),
	nullStr("exitPrice"),
	nullInt("exitPriceExponent"),
	nullStr("exitFeeAmount"),
	integer("id"),
	nullStr("entryFeeAmount"),
	nullStr("oracleAccountTimestamp"),
	nullStr("oracleAccountType"),
	nullStr("oracleAccountPrice"),
	nullInt("oracleAccountPriceExponent"),
}

// ValidateFlashPage validates a Flash trades response, which is a bare JSON
// array of trade objects.
func ValidateFlashPage(raw []byte) ([]FlashTrade, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, validationError(domain.ExchangeFlash, []string{"$: expected array"})
	}
	var problems []string
	for i, item := range items {
		problems = flashTrade.check(fmt.Sprintf("[%d]", i), item, problems)
	}
	if len(problems) > 0 {
		return nil, validationError(domain.ExchangeFlash, problems)
	}
	trades := make([]FlashTrade, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &trades[i]); err != nil {
			return nil, validationError(domain.ExchangeFlash, []string{fmt.Sprintf("[%d]: %v", i, err)})
		}
	}
	return trades, nil
}
