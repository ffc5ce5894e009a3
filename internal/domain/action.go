package domain

import (
	"encoding/json"
	"fmt"
)

// ActionType is the discriminator of a TradeAction.
type ActionType string

const (
	ActionOpen             ActionType = "open"
	ActionClose            ActionType = "close"
	ActionIncrease         ActionType = "increase"
	ActionDecrease         ActionType = "decrease"
	ActionLiquidate        ActionType = "liquidate"
	ActionAddCollateral    ActionType = "add_collateral"
	ActionRemoveCollateral ActionType = "remove_collateral"
	ActionTakeProfit       ActionType = "take_profit"
	ActionStopLoss         ActionType = "stop_loss"
	ActionOpenLimitOrder   ActionType = "open_limit_order"
	ActionUnknown          ActionType = "unknown"
)

// ActionTypes lists every variant of TradeAction.
var ActionTypes = []ActionType{
	ActionOpen,
	ActionClose,
	ActionIncrease,
	ActionDecrease,
	ActionLiquidate,
	ActionAddCollateral,
	ActionRemoveCollateral,
	ActionTakeProfit,
	ActionStopLoss,
	ActionOpenLimitOrder,
	ActionUnknown,
}

// TradeAction is the exchange-agnostic meaning of a trade event. The set of
// implementations is closed: only the variant types in this file satisfy it.
// Each variant carries only the fields meaningful to it and serializes as a
// JSON object tagged with "type".
type TradeAction interface {
	Type() ActionType
	tradeAction()
}

type OpenAction struct{}

// CloseAction carries the realized PnL when the exchange reported one.
type CloseAction struct {
	PnL *float64
}

type IncreaseAction struct{}

type DecreaseAction struct{}

type LiquidateAction struct{}

type AddCollateralAction struct {
	Amount float64
}

type RemoveCollateralAction struct {
	Amount float64
}

type TakeProfitAction struct {
	TargetPrice *float64
}

type StopLossAction struct {
	TriggerPrice *float64
}

type OpenLimitOrderAction struct {
	LimitPrice *float64
}

// UnknownAction stands in for any event code the mappers do not recognize.
type UnknownAction struct{}

func (OpenAction) Type() ActionType             { return ActionOpen }
func (CloseAction) Type() ActionType            { return ActionClose }
func (IncreaseAction) Type() ActionType         { return ActionIncrease }
func (DecreaseAction) Type() ActionType         { return ActionDecrease }
func (LiquidateAction) Type() ActionType        { return ActionLiquidate }
func (AddCollateralAction) Type() ActionType    { return ActionAddCollateral }
func (RemoveCollateralAction) Type() ActionType { return ActionRemoveCollateral }
func (TakeProfitAction) Type() ActionType       { return ActionTakeProfit }
func (StopLossAction) Type() ActionType         { return ActionStopLoss }
func (OpenLimitOrderAction) Type() ActionType   { return ActionOpenLimitOrder }
func (UnknownAction) Type() ActionType          { return ActionUnknown }

func (OpenAction) tradeAction()             {}
func (CloseAction) tradeAction()            {}
func (IncreaseAction) tradeAction()         {}
func (DecreaseAction) tradeAction()         {}
func (LiquidateAction) tradeAction()        {}
func (AddCollateralAction) tradeAction()    {}
func (RemoveCollateralAction) tradeAction() {}
func (TakeProfitAction) tradeAction()       {}
func (StopLossAction) tradeAction()         {}
func (OpenLimitOrderAction) tradeAction()   {}
func (UnknownAction) tradeAction()          {}

type tagOnly struct {
	Type ActionType `json:"type"`
}

func (a OpenAction) MarshalJSON() ([]byte, error)      { return json.Marshal(tagOnly{a.Type()}) }
func (a IncreaseAction) MarshalJSON() ([]byte, error)  { return json.Marshal(tagOnly{a.Type()}) }
func (a DecreaseAction) MarshalJSON() ([]byte, error)  { return json.Marshal(tagOnly{a.Type()}) }
func (a LiquidateAction) MarshalJSON() ([]byte, error) { return json.Marshal(tagOnly{a.Type()}) }
func (a UnknownAction) MarshalJSON() ([]byte, error)   { return json.Marshal(tagOnly{a.Type()}) }

func (a CloseAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		PnL  *float64   `json:"pnl"`
	}{a.Type(), a.PnL})
}

func (a AddCollateralAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   ActionType `json:"type"`
		Amount float64    `json:"amount"`
	}{a.Type(), a.Amount})
}

func (a RemoveCollateralAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   ActionType `json:"type"`
		Amount float64    `json:"amount"`
	}{a.Type(), a.Amount})
}

func (a TakeProfitAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        ActionType `json:"type"`
		TargetPrice *float64   `json:"targetPrice,omitempty"`
	}{a.Type(), a.TargetPrice})
}

func (a StopLossAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         ActionType `json:"type"`
		TriggerPrice *float64   `json:"triggerPrice,omitempty"`
	}{a.Type(), a.TriggerPrice})
}

func (a OpenLimitOrderAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       ActionType `json:"type"`
		LimitPrice *float64   `json:"limitPrice,omitempty"`
	}{a.Type(), a.LimitPrice})
}

// actionWire is the union of every variant's fields, used for decoding.
type actionWire struct {
	Type         ActionType `json:"type"`
	PnL          *float64   `json:"pnl"`
	Amount       float64    `json:"amount"`
	TargetPrice  *float64   `json:"targetPrice"`
	TriggerPrice *float64   `json:"triggerPrice"`
	LimitPrice   *float64   `json:"limitPrice"`
}

// DecodeAction restores a TradeAction from its tagged JSON form.
func DecodeAction(data []byte) (TradeAction, error) {
	var w actionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("domain: decode action: %w", err)
	}
	switch w.Type {
	case ActionOpen:
		return OpenAction{}, nil
	case ActionClose:
		return CloseAction{PnL: w.PnL}, nil
	case ActionIncrease:
		return IncreaseAction{}, nil
	case ActionDecrease:
		return DecreaseAction{}, nil
	case ActionLiquidate:
		return LiquidateAction{}, nil
	case ActionAddCollateral:
		return AddCollateralAction{Amount: w.Amount}, nil
	case ActionRemoveCollateral:
		return RemoveCollateralAction{Amount: w.Amount}, nil
	case ActionTakeProfit:
		return TakeProfitAction{TargetPrice: w.TargetPrice}, nil
	case ActionStopLoss:
		return StopLossAction{TriggerPrice: w.TriggerPrice}, nil
	case ActionOpenLimitOrder:
		return OpenLimitOrderAction{LimitPrice: w.LimitPrice}, nil
	case ActionUnknown:
		return UnknownAction{}, nil
	default:
		return nil, fmt.Errorf("domain: decode action: unrecognized type %q", w.Type)
	}
}
