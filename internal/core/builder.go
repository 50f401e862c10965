package core

import (
	"github.com/shopspring/decimal"

	"futures-trading-bot-binance/internal/market"
	"futures-trading-bot-binance/internal/model"
)

type MarketParams struct {
	Symbol     string
	Side       model.Side
	Quantity   decimal.Decimal
	ReduceOnly bool
}

type LimitParams struct {
	Symbol      string
	Side        model.Side
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	TimeInForce model.TimeInForce // empty means GTC
	ReduceOnly  bool
}

type StopLimitParams struct {
	Symbol      string
	Side        model.Side
	Quantity    decimal.Decimal
	Price       decimal.Decimal // execution price once triggered
	StopPrice   decimal.Decimal // trigger price
	TimeInForce model.TimeInForce
	ReduceOnly  bool
}

type StopMarketParams struct {
	Symbol     string
	Side       model.Side
	Quantity   decimal.Decimal
	StopPrice  decimal.Decimal
	ReduceOnly bool
}

// TakeProfitParams describes a take-profit order. A valid Price makes it a
// take-profit-limit order, otherwise it triggers a market order.
// ReduceOnly defaults to true when nil.
type TakeProfitParams struct {
	Symbol     string
	Side       model.Side
	Quantity   decimal.Decimal
	StopPrice  decimal.Decimal
	Price      decimal.NullDecimal
	ReduceOnly *bool
}

// Builder turns caller parameters into exchange-ready order requests. Every
// quantity and price it emits has been bounds-checked and snapped to the
// symbol's step grid.
type Builder struct {
	newClientID func() string
	warn        func(field string, err error)
}

// NewBuilder returns a Builder. newClientID may be nil, in which case the
// exchange assigns client order ids. warn is told about fields whose filter
// data could not be read.
func NewBuilder(newClientID func() string, warn func(field string, err error)) *Builder {
	return &Builder{newClientID: newClientID, warn: warn}
}

func (b *Builder) Market(f model.SymbolFilters, p MarketParams) (model.OrderRequest, error) {
	base, err := b.base(f, p.Symbol, p.Side, p.Quantity, p.ReduceOnly)
	if err != nil {
		return nil, err
	}
	return model.MarketOrder{OrderBase: base}, nil
}

func (b *Builder) Limit(f model.SymbolFilters, p LimitParams) (model.OrderRequest, error) {
	tif, err := timeInForce(p.TimeInForce)
	if err != nil {
		return nil, err
	}
	base, err := b.base(f, p.Symbol, p.Side, p.Quantity, p.ReduceOnly)
	if err != nil {
		return nil, err
	}
	price, err := b.price("price", f, p.Price)
	if err != nil {
		return nil, err
	}
	return model.LimitOrder{OrderBase: base, Price: price, TimeInForce: tif}, nil
}

func (b *Builder) StopLimit(f model.SymbolFilters, p StopLimitParams) (model.OrderRequest, error) {
	tif, err := timeInForce(p.TimeInForce)
	if err != nil {
		return nil, err
	}
	base, err := b.base(f, p.Symbol, p.Side, p.Quantity, p.ReduceOnly)
	if err != nil {
		return nil, err
	}
	price, err := b.price("price", f, p.Price)
	if err != nil {
		return nil, err
	}
	stop, err := b.price("stop price", f, p.StopPrice)
	if err != nil {
		return nil, err
	}
	return model.StopLimitOrder{OrderBase: base, Price: price, StopPrice: stop, TimeInForce: tif}, nil
}

func (b *Builder) StopMarket(f model.SymbolFilters, p StopMarketParams) (model.OrderRequest, error) {
	base, err := b.base(f, p.Symbol, p.Side, p.Quantity, p.ReduceOnly)
	if err != nil {
		return nil, err
	}
	stop, err := b.price("stop price", f, p.StopPrice)
	if err != nil {
		return nil, err
	}
	return model.StopMarketOrder{OrderBase: base, StopPrice: stop}, nil
}

func (b *Builder) TakeProfit(f model.SymbolFilters, p TakeProfitParams) (model.OrderRequest, error) {
	reduceOnly := true
	if p.ReduceOnly != nil {
		reduceOnly = *p.ReduceOnly
	}

	base, err := b.base(f, p.Symbol, p.Side, p.Quantity, reduceOnly)
	if err != nil {
		return nil, err
	}
	stop, err := b.price("take profit price", f, p.StopPrice)
	if err != nil {
		return nil, err
	}
	if !p.Price.Valid {
		return model.TakeProfitMarketOrder{OrderBase: base, StopPrice: stop}, nil
	}

	price, err := b.price("price", f, p.Price.Decimal)
	if err != nil {
		return nil, err
	}
	return model.TakeProfitLimitOrder{OrderBase: base, Price: price, StopPrice: stop, TimeInForce: model.GTC}, nil
}

func (b *Builder) base(f model.SymbolFilters, symbol string, side model.Side, qty decimal.Decimal, reduceOnly bool) (model.OrderBase, error) {
	if symbol == "" {
		return model.OrderBase{}, model.InvalidParameter("symbol is required")
	}
	if side != model.SideBuy && side != model.SideSell {
		return model.OrderBase{}, model.InvalidParameter("side must be BUY or SELL, got %q", side)
	}
	if !qty.IsPositive() {
		return model.OrderBase{}, model.InvalidParameter("quantity must be positive, got %s", qty)
	}

	adjusted, err := b.apply("quantity", qty, market.NormalizeQuantity(f, qty))
	if err != nil {
		return model.OrderBase{}, err
	}

	base := model.OrderBase{
		Symbol:     symbol,
		Side:       side,
		Quantity:   adjusted,
		ReduceOnly: reduceOnly,
	}
	if b.newClientID != nil {
		base.ClientOrderID = b.newClientID()
	}
	return base, nil
}

func (b *Builder) price(field string, f model.SymbolFilters, v decimal.Decimal) (decimal.Decimal, error) {
	if !v.IsPositive() {
		return v, model.InvalidParameter("%s must be positive, got %s", field, v)
	}
	return b.apply(field, v, market.NormalizePrice(f, v))
}

func (b *Builder) apply(field string, v decimal.Decimal, res market.Result) (decimal.Decimal, error) {
	if res.Skipped != nil && b.warn != nil {
		b.warn(field, res.Skipped)
	}
	if !res.OK {
		return res.Value, model.InvalidParameter("%s", res.Message)
	}
	// a value below one step with no minimum snaps to zero
	if !res.Value.IsPositive() {
		return v, model.InvalidParameter("%s %s rounds down to zero at the symbol's step size", field, v)
	}
	return res.Value, nil
}

func timeInForce(tif model.TimeInForce) (model.TimeInForce, error) {
	switch tif {
	case "":
		return model.GTC, nil
	case model.GTC, model.IOC, model.FOK, model.GTX:
		return tif, nil
	default:
		return "", model.InvalidParameter("time in force must be GTC, IOC, FOK or GTX, got %q", tif)
	}
}
