package action

import (
	"strconv"

	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/schema"
)

// FromJupiter maps a Jupiter (orderType, action, pnl sign) triple onto its
// action variant. Trigger orders are classified by realized PnL: losses are
// stop losses, gains are take profits, and flat results are plain closes.
func FromJupiter(t schema.JupiterTrade) domain.TradeAction {
	switch t.OrderType {
	case schema.OrderLiquidation:
		return domain.LiquidateAction{}
	case schema.OrderMarket:
		switch t.Action {
		case schema.ActionIncrease:
			return domain.OpenAction{}
		case schema.ActionDecrease:
			return domain.CloseAction{PnL: parseOptional(t.PnL)}
		}
	case schema.OrderTrigger:
		pnl := parseOr(t.PnL, 0)
		switch {
		case pnl < 0:
			return domain.StopLossAction{TriggerPrice: price(t)}
		case pnl > 0:
			return domain.TakeProfitAction{TargetPrice: price(t)}
		default:
			return domain.CloseAction{PnL: &pnl}
		}
	}
	return domain.UnknownAction{}
}

func price(t schema.JupiterTrade) *float64 {
	f, err := strconv.ParseFloat(t.Price, 64)
	if err != nil {
		return nil
	}
	return &f
}
