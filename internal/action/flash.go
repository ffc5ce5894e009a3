package action

import (
	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/schema"
)

// FromFlash maps a Flash event code onto its action variant.
func FromFlash(t schema.FlashTrade) domain.TradeAction {
	switch t.TradeType {
	case schema.OpenPosition:
		return domain.OpenAction{}
	case schema.ClosePosition:
		return domain.CloseAction{PnL: parseOptional(t.PnLUSD)}
	case schema.IncreaseSize:
		return domain.IncreaseAction{}
	case schema.DecreaseSize:
		return domain.DecreaseAction{}
	case schema.Liquidate:
		return domain.LiquidateAction{}
	case schema.AddCollateral:
		return domain.AddCollateralAction{Amount: parseOr(t.CollateralAmount, 0)}
	case schema.RemoveCollateral:
		return domain.RemoveCollateralAction{Amount: parseOr(t.CollateralAmount, 0)}
	case schema.TakeProfit:
		return domain.TakeProfitAction{TargetPrice: parseOptional(t.ExitPrice)}
	case schema.StopLoss:
		return domain.StopLossAction{TriggerPrice: parseOptional(t.ExitPrice)}
	case schema.OpenLimitOrderPosition:
		return domain.OpenLimitOrderAction{LimitPrice: parseOptional(t.OrderPrice)}
	default:
		return domain.UnknownAction{}
	}
}
