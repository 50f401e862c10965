package core

import (
	"github.com/shopspring/decimal"

	"futures-trading-bot-binance/internal/model"
)

// FormatOrder maps a raw exchange order into an OrderResult. Missing numeric
// fields become zero; a missing or zero stop price becomes an invalid
// StopPrice rather than 0.
func FormatOrder(raw model.RawOrder) model.OrderResult {
	res := model.OrderResult{
		OrderID:       raw.OrderID,
		ClientOrderID: raw.ClientOrderID,
		Symbol:        raw.Symbol,
		Side:          raw.Side,
		Type:          raw.Type,
		Status:        raw.Status,
		Price:         model.ParseDecimal(raw.Price),
		Quantity:      model.ParseDecimal(raw.OrigQty),
		ExecutedQty:   model.ParseDecimal(raw.ExecutedQty),
		AvgPrice:      model.ParseDecimal(raw.AvgPrice),
		TimeInForce:   raw.TimeInForce,
		ReduceOnly:    raw.ReduceOnly,
		ClosePosition: raw.ClosePosition,
		WorkingType:   raw.WorkingType,
		UpdateTime:    raw.UpdateTime,
	}
	if stop := model.ParseDecimal(raw.StopPrice); !stop.IsZero() {
		res.StopPrice = decimal.NewNullDecimal(stop)
	}
	return res
}

// FormatPosition maps a raw position. ok is false for flat positions.
func FormatPosition(raw model.RawPosition) (pos model.Position, ok bool) {
	amount := model.ParseDecimal(raw.PositionAmt)
	if amount.IsZero() {
		return model.Position{}, false
	}

	return model.Position{
		Symbol:           raw.Symbol,
		PositionAmount:   amount,
		EntryPrice:       model.ParseDecimal(raw.EntryPrice),
		MarkPrice:        model.ParseDecimal(raw.MarkPrice),
		UnrealizedPnl:    model.ParseDecimal(raw.UnRealizedProfit),
		LiquidationPrice: model.ParseDecimal(raw.LiquidationPrice),
		Leverage:         int(model.ParseDecimal(raw.Leverage).IntPart()),
		MarginType:       raw.MarginType,
		PositionSide:     raw.PositionSide,
	}, true
}
