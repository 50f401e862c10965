package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderKind values are the exchange's order type names.
type OrderKind string

const (
	KindMarket           OrderKind = "MARKET"
	KindLimit            OrderKind = "LIMIT"
	KindStopLimit        OrderKind = "STOP"
	KindStopMarket       OrderKind = "STOP_MARKET"
	KindTakeProfitMarket OrderKind = "TAKE_PROFIT_MARKET"
	KindTakeProfitLimit  OrderKind = "TAKE_PROFIT"
)

type TimeInForce string

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
	GTX TimeInForce = "GTX"
)

// OrderRequest is a validated, exchange-ready order. The concrete type is one
// of MarketOrder, LimitOrder, StopLimitOrder, StopMarketOrder,
// TakeProfitMarketOrder or TakeProfitLimitOrder.
type OrderRequest interface {
	Kind() OrderKind
	Base() OrderBase
	isOrderRequest()
}

// OrderBase holds the fields every order variant carries.
type OrderBase struct {
	Symbol        string
	Side          Side
	Quantity      decimal.Decimal
	ReduceOnly    bool
	ClientOrderID string
}

func (b OrderBase) Base() OrderBase { return b }
func (OrderBase) isOrderRequest() {}

type MarketOrder struct {
	OrderBase
}

func (MarketOrder) Kind() OrderKind { return KindMarket }

type LimitOrder struct {
	OrderBase
	Price       decimal.Decimal
	TimeInForce TimeInForce
}

func (LimitOrder) Kind() OrderKind { return KindLimit }

// StopLimitOrder rests a limit order at Price once StopPrice trades.
type StopLimitOrder struct {
	OrderBase
	Price       decimal.Decimal
	StopPrice   decimal.Decimal
	TimeInForce TimeInForce
}

func (StopLimitOrder) Kind() OrderKind { return KindStopLimit }

type StopMarketOrder struct {
	OrderBase
	StopPrice decimal.Decimal
}

func (StopMarketOrder) Kind() OrderKind { return KindStopMarket }

type TakeProfitMarketOrder struct {
	OrderBase
	StopPrice decimal.Decimal
}

func (TakeProfitMarketOrder) Kind() OrderKind { return KindTakeProfitMarket }

type TakeProfitLimitOrder struct {
	OrderBase
	Price       decimal.Decimal
	StopPrice   decimal.Decimal
	TimeInForce TimeInForce
}

func (TakeProfitLimitOrder) Kind() OrderKind { return KindTakeProfitLimit }

// RawOrder is an order record as the exchange returns it, numerics unparsed.
type RawOrder struct {
	OrderID       int64
	ClientOrderID string
	Symbol        string
	Side          string
	Type          string
	Status        string
	Price         string
	OrigQty       string
	ExecutedQty   string
	AvgPrice      string
	StopPrice     string
	TimeInForce   string
	ReduceOnly    bool
	ClosePosition bool
	WorkingType   string
	UpdateTime    int64
}

// OrderResult is the caller-facing view of a submitted or queried order.
// StopPrice is invalid when the order has no trigger price.
type OrderResult struct {
	OrderID       int64               `json:"order_id"`
	ClientOrderID string              `json:"client_order_id"`
	Symbol        string              `json:"symbol"`
	Side          string              `json:"side"`
	Type          string              `json:"type"`
	Status        string              `json:"status"`
	Price         decimal.Decimal     `json:"price"`
	Quantity      decimal.Decimal     `json:"quantity"`
	ExecutedQty   decimal.Decimal     `json:"executed_qty"`
	AvgPrice      decimal.Decimal     `json:"avg_price"`
	StopPrice     decimal.NullDecimal `json:"stop_price"`
	TimeInForce   string              `json:"time_in_force"`
	ReduceOnly    bool                `json:"reduce_only"`
	ClosePosition bool                `json:"close_position"`
	WorkingType   string              `json:"working_type"`
	UpdateTime    int64               `json:"update_time"`
}

func (r OrderResult) UpdatedAt() time.Time {
	return time.UnixMilli(r.UpdateTime)
}
