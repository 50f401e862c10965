package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"futures-trading-bot-binance/internal/market"
	"futures-trading-bot-binance/internal/model"
)

const (
	endpointPing          = "/fapi/v1/ping"
	endpointExchangeInfo  = "/fapi/v1/exchangeInfo"
	endpointTicker        = "/fapi/v1/ticker/price"
	endpointAccount       = "/fapi/v2/account"
	endpointBalance       = "/fapi/v2/balance"
	endpointOrder         = "/fapi/v1/order"
	endpointAllOpenOrders = "/fapi/v1/allOpenOrders"
	endpointOpenOrders    = "/fapi/v1/openOrders"
	endpointPositionRisk  = "/fapi/v2/positionRisk"
	endpointLeverage      = "/fapi/v1/leverage"

	DefaultAsset = "USDT"
	MinLeverage  = 1
	MaxLeverage  = 125
)

// Bot is the trading facade. It validates input locally, keeps a symbol
// filter cache, and reports every exchange call to its Observer.
type Bot struct {
	exchange Exchange
	filters  *market.FilterCache
	builder  *Builder
	observer Observer
}

// NewBot checks connectivity with a ping and returns a ready Bot. A nil
// observer discards events.
func NewBot(ctx context.Context, exchange Exchange, observer Observer) (*Bot, error) {
	if observer == nil {
		observer = NopObserver{}
	}

	b := &Bot{
		exchange: exchange,
		observer: observer,
	}
	b.filters = market.NewFilterCache(observedFilters{exchange: exchange, observer: observer})
	b.builder = NewBuilder(uuid.NewString, func(field string, err error) {
		observer.Warn("Could not validate "+field+", sending as given", "error", err)
	})

	observer.Request(http.MethodGet, endpointPing)
	if err := exchange.Ping(ctx); err != nil {
		observer.Failure(endpointPing, err)
		if !errors.Is(err, model.ErrUnreachable) {
			err = fmt.Errorf("%w: %w", model.ErrUnreachable, err)
		}
		return nil, fmt.Errorf("failed to connect to binance futures: %w", err)
	}
	observer.Response(endpointPing, "status", "connected")
	return b, nil
}

// GetAccountInfo returns the account summary.
func (b *Bot) GetAccountInfo(ctx context.Context) (model.AccountInfo, error) {
	b.observer.Request(http.MethodGet, endpointAccount)
	info, err := b.exchange.AccountSnapshot(ctx)
	if err != nil {
		b.observer.Failure(endpointAccount, err)
		return model.AccountInfo{}, err
	}
	b.observer.Response(endpointAccount,
		"totalWalletBalance", info.TotalWalletBalance.String(),
		"availableBalance", info.AvailableBalance.String(),
	)
	return info, nil
}

// GetBalance returns the wallet balance of asset, USDT when empty.
func (b *Bot) GetBalance(ctx context.Context, asset string) (model.Balance, error) {
	if asset == "" {
		asset = DefaultAsset
	}

	b.observer.Request(http.MethodGet, endpointBalance, "asset", asset)
	bal, err := b.exchange.AssetBalance(ctx, asset)
	if err != nil {
		b.observer.Failure(endpointBalance, err)
		return model.Balance{}, err
	}
	b.observer.Response(endpointBalance, "asset", bal.Asset, "balance", bal.Balance.String())
	return bal, nil
}

func (b *Bot) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if symbol == "" {
		return decimal.Zero, model.InvalidParameter("symbol is required")
	}

	b.observer.Request(http.MethodGet, endpointTicker, "symbol", symbol)
	price, err := b.exchange.TickerPrice(ctx, symbol)
	if err != nil {
		b.observer.Failure(endpointTicker, err)
		return decimal.Zero, err
	}
	b.observer.Response(endpointTicker, "symbol", symbol, "price", price.String())
	return price, nil
}

func (b *Bot) PlaceMarketOrder(ctx context.Context, p MarketParams) (model.OrderResult, error) {
	return b.place(ctx, p.Symbol, func(f model.SymbolFilters) (model.OrderRequest, error) {
		return b.builder.Market(f, p)
	})
}

func (b *Bot) PlaceLimitOrder(ctx context.Context, p LimitParams) (model.OrderResult, error) {
	return b.place(ctx, p.Symbol, func(f model.SymbolFilters) (model.OrderRequest, error) {
		return b.builder.Limit(f, p)
	})
}

func (b *Bot) PlaceStopLimitOrder(ctx context.Context, p StopLimitParams) (model.OrderResult, error) {
	return b.place(ctx, p.Symbol, func(f model.SymbolFilters) (model.OrderRequest, error) {
		return b.builder.StopLimit(f, p)
	})
}

func (b *Bot) PlaceStopMarketOrder(ctx context.Context, p StopMarketParams) (model.OrderResult, error) {
	return b.place(ctx, p.Symbol, func(f model.SymbolFilters) (model.OrderRequest, error) {
		return b.builder.StopMarket(f, p)
	})
}

// PlaceTakeProfitOrder places a take-profit-market order, or a
// take-profit-limit order when p.Price is set.
func (b *Bot) PlaceTakeProfitOrder(ctx context.Context, p TakeProfitParams) (model.OrderResult, error) {
	return b.place(ctx, p.Symbol, func(f model.SymbolFilters) (model.OrderRequest, error) {
		return b.builder.TakeProfit(f, p)
	})
}

func (b *Bot) CancelOrder(ctx context.Context, symbol string, orderID int64) (model.OrderResult, error) {
	if err := checkOrderRef(symbol, orderID); err != nil {
		return model.OrderResult{}, err
	}

	b.observer.Request(http.MethodDelete, endpointOrder, "symbol", symbol, "orderId", orderID)
	raw, err := b.exchange.CancelOrder(ctx, symbol, orderID)
	if err != nil {
		b.observer.Failure(endpointOrder, err)
		return model.OrderResult{}, err
	}
	res := FormatOrder(raw)
	b.observer.Response(endpointOrder, "orderId", res.OrderID, "status", res.Status)
	return res, nil
}

func (b *Bot) CancelAllOrders(ctx context.Context, symbol string) error {
	if symbol == "" {
		return model.InvalidParameter("symbol is required")
	}

	b.observer.Request(http.MethodDelete, endpointAllOpenOrders, "symbol", symbol)
	if err := b.exchange.CancelAllOrders(ctx, symbol); err != nil {
		b.observer.Failure(endpointAllOpenOrders, err)
		return err
	}
	b.observer.Response(endpointAllOpenOrders, "symbol", symbol, "status", "cancelled")
	return nil
}

// GetOpenOrders lists open orders for symbol, or for all symbols when empty.
func (b *Bot) GetOpenOrders(ctx context.Context, symbol string) ([]model.OrderResult, error) {
	b.observer.Request(http.MethodGet, endpointOpenOrders, "symbol", symbol)
	raws, err := b.exchange.ListOpenOrders(ctx, symbol)
	if err != nil {
		b.observer.Failure(endpointOpenOrders, err)
		return nil, err
	}

	orders := make([]model.OrderResult, 0, len(raws))
	for _, raw := range raws {
		orders = append(orders, FormatOrder(raw))
	}
	b.observer.Response(endpointOpenOrders, "count", len(orders))
	return orders, nil
}

func (b *Bot) GetOrderStatus(ctx context.Context, symbol string, orderID int64) (model.OrderResult, error) {
	if err := checkOrderRef(symbol, orderID); err != nil {
		return model.OrderResult{}, err
	}

	b.observer.Request(http.MethodGet, endpointOrder, "symbol", symbol, "orderId", orderID)
	raw, err := b.exchange.GetOrder(ctx, symbol, orderID)
	if err != nil {
		b.observer.Failure(endpointOrder, err)
		return model.OrderResult{}, err
	}
	res := FormatOrder(raw)
	b.observer.Response(endpointOrder, "orderId", res.OrderID, "status", res.Status)
	return res, nil
}

// GetPositions returns the open positions, optionally restricted to symbol.
// Flat positions are never returned.
func (b *Bot) GetPositions(ctx context.Context, symbol string) ([]model.Position, error) {
	b.observer.Request(http.MethodGet, endpointPositionRisk, "symbol", symbol)
	raws, err := b.exchange.ListPositions(ctx)
	if err != nil {
		b.observer.Failure(endpointPositionRisk, err)
		return nil, err
	}

	positions := make([]model.Position, 0)
	for _, raw := range raws {
		if symbol != "" && raw.Symbol != symbol {
			continue
		}
		if pos, ok := FormatPosition(raw); ok {
			positions = append(positions, pos)
		}
	}
	b.observer.Response(endpointPositionRisk, "open", len(positions))
	return positions, nil
}

// SetLeverage changes the symbol's leverage. Values outside [1, 125] are
// rejected without contacting the exchange.
func (b *Bot) SetLeverage(ctx context.Context, symbol string, leverage int) (model.LeverageResult, error) {
	if leverage < MinLeverage || leverage > MaxLeverage {
		return model.LeverageResult{}, model.InvalidParameter("leverage must be between %d and %d, got %d", MinLeverage, MaxLeverage, leverage)
	}
	if symbol == "" {
		return model.LeverageResult{}, model.InvalidParameter("symbol is required")
	}

	b.observer.Request(http.MethodPost, endpointLeverage, "symbol", symbol, "leverage", leverage)
	res, err := b.exchange.SetLeverage(ctx, symbol, leverage)
	if err != nil {
		b.observer.Failure(endpointLeverage, err)
		return model.LeverageResult{}, err
	}
	b.observer.Response(endpointLeverage, "symbol", res.Symbol, "leverage", res.Leverage)
	return res, nil
}

func (b *Bot) place(ctx context.Context, symbol string, build func(model.SymbolFilters) (model.OrderRequest, error)) (model.OrderResult, error) {
	if symbol == "" {
		return model.OrderResult{}, model.InvalidParameter("symbol is required")
	}

	f, err := b.symbolFilters(ctx, symbol)
	if err != nil {
		return model.OrderResult{}, err
	}

	req, err := build(f)
	if err != nil {
		b.observer.Failure(endpointOrder, err)
		return model.OrderResult{}, err
	}

	b.observer.Order(req)
	b.observer.Request(http.MethodPost, endpointOrder, orderArgs(req)...)
	raw, err := b.exchange.SubmitOrder(ctx, req)
	if err != nil {
		b.observer.Failure(endpointOrder, err)
		return model.OrderResult{}, err
	}

	res := FormatOrder(raw)
	b.observer.Response(endpointOrder, "orderId", res.OrderID, "status", res.Status)
	b.observer.OrderResult(res)
	return res, nil
}

// symbolFilters resolves filters through the cache. An unknown symbol is an
// error; any other lookup failure falls back to sending the order unvalidated.
func (b *Bot) symbolFilters(ctx context.Context, symbol string) (model.SymbolFilters, error) {
	f, err := b.filters.Get(ctx, symbol)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, model.ErrNotFound) {
		return model.SymbolFilters{}, err
	}
	b.observer.Warn("Could not load symbol filters, validation skipped", "symbol", symbol, "error", err)
	return model.SymbolFilters{Symbol: symbol}, nil
}

func checkOrderRef(symbol string, orderID int64) error {
	if symbol == "" {
		return model.InvalidParameter("symbol is required")
	}
	if orderID <= 0 {
		return model.InvalidParameter("order id must be positive, got %d", orderID)
	}
	return nil
}

func orderArgs(req model.OrderRequest) []any {
	base := req.Base()
	args := []any{
		"symbol", base.Symbol,
		"side", base.Side,
		"type", req.Kind(),
		"quantity", base.Quantity.String(),
	}
	switch o := req.(type) {
	case model.LimitOrder:
		args = append(args, "price", o.Price.String(), "timeInForce", o.TimeInForce)
	case model.StopLimitOrder:
		args = append(args, "price", o.Price.String(), "stopPrice", o.StopPrice.String(), "timeInForce", o.TimeInForce)
	case model.StopMarketOrder:
		args = append(args, "stopPrice", o.StopPrice.String())
	case model.TakeProfitMarketOrder:
		args = append(args, "stopPrice", o.StopPrice.String())
	case model.TakeProfitLimitOrder:
		args = append(args, "price", o.Price.String(), "stopPrice", o.StopPrice.String(), "timeInForce", o.TimeInForce)
	}
	if base.ReduceOnly {
		args = append(args, "reduceOnly", true)
	}
	return args
}

// observedFilters reports exchangeInfo lookups made on cache misses.
type observedFilters struct {
	exchange Exchange
	observer Observer
}

func (o observedFilters) SymbolFilters(ctx context.Context, symbol string) (model.SymbolFilters, error) {
	o.observer.Request(http.MethodGet, endpointExchangeInfo, "symbol", symbol)
	f, err := o.exchange.SymbolFilters(ctx, symbol)
	if err != nil {
		o.observer.Failure(endpointExchangeInfo, err)
		return model.SymbolFilters{}, err
	}
	o.observer.Response(endpointExchangeInfo, "symbol", symbol)
	return f, nil
}
