package schema

import (
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// Jupiter order types.
const (
	OrderMarket      = "Market"
	OrderTrigger     = "Trigger"
	OrderLiquidation = "Liquidation"
)

// Jupiter position actions.
const (
	ActionIncrease = "Increase"
	ActionDecrease = "Decrease"
)

// JupiterTrade is one raw Jupiter trade record.
type JupiterTrade struct {
	Mint               string      `json:"mint"`
	PositionName       string      `json:"positionName"`
	Side               domain.Side `json:"side"`
	Action             string      `json:"action"`
	OrderType          string      `json:"orderType"`
	CollateralUSDDelta string      `json:"collateralUsdDelta"`
	Price              string      `json:"price"`
	Size               string      `json:"size"`
	Fee                string      `json:"fee"`
	PnL                *string     `json:"pnl"`
	TxHash             string      `json:"txHash"`
	CreatedTime        int64       `json:"createdTime"`
	UpdatedTime        int64       `json:"updatedTime"`
}

// JupiterPage is the Jupiter trades envelope. Count is the wallet's total.
type JupiterPage struct {
	DataList []JupiterTrade `json:"dataList"`
	Count    int            `json:"count"`
}

var jupiterTrade = objectSchema{
	str("mint"),
	str("positionName"),
	oneOf("side", string(domain.SideLong), string(domain.SideShort)),
	oneOf("action", ActionIncrease, ActionDecrease),
	oneOf("orderType", OrderMarket, OrderTrigger, OrderLiquidation),
	str("collateralUsdDelta"),
	str("price"),
	str("size"),
	str("fee"),
	nullStr("pnl"),
	str("txHash"),
	integer("createdTime"),
	integer("updatedTime"),
}

// ValidateJupiterPage validates a Jupiter envelope of the form
// {"dataList": [...], "count": n}.
func ValidateJupiterPage(raw []byte) (JupiterPage, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil || env == nil {
		return JupiterPage{}, validationError(domain.ExchangeJupiter, []string{"$: expected object"})
	}

	var problems []string
	var items []json.RawMessage
	if list, ok := env["dataList"]; !ok {
		problems = append(problems, "dataList: required")
	} else if err := json.Unmarshal(list, &items); err != nil || items == nil {
		problems = append(problems, "dataList: expected array")
	}
	if c, ok := env["count"]; !ok {
		problems = append(problems, "count: required")
	} else if msg := integer("count").check(c); msg != "" {
		problems = append(problems, "count: "+msg)
	}
	for i, item := range items {
		problems = jupiterTrade.check(fmt.Sprintf("dataList[%d]", i), item, problems)
	}
	if len(problems) > 0 {
		return JupiterPage{}, validationError(domain.ExchangeJupiter, problems)
	}

	var page JupiterPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return JupiterPage{}, validationError(domain.ExchangeJupiter, []string{err.Error()})
	}
	if page.DataList == nil {
		page.DataList = []JupiterTrade{}
	}
	return page, nil
}
