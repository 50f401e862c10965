package cli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futures-trading-bot-binance/internal/core"
	"futures-trading-bot-binance/internal/model"
	"futures-trading-bot-binance/internal/repository"
	"futures-trading-bot-binance/internal/service"
)

type fakeTrader struct {
	Trader

	balance    model.Balance
	balanceErr error
	price      decimal.Decimal
	priceErr   error
	statusErr  error

	market     []core.MarketParams
	limit      []core.LimitParams
	takeProfit []core.TakeProfitParams
	cancelled  []int64
	leverage   []int
	cancelAll  []string
}

func (f *fakeTrader) GetBalance(context.Context, string) (model.Balance, error) {
	return f.balance, f.balanceErr
}

func (f *fakeTrader) GetCurrentPrice(context.Context, string) (decimal.Decimal, error) {
	return f.price, f.priceErr
}

func (f *fakeTrader) GetOrderStatus(_ context.Context, symbol string, orderID int64) (model.OrderResult, error) {
	if f.statusErr != nil {
		return model.OrderResult{}, f.statusErr
	}
	return model.OrderResult{OrderID: orderID, Symbol: symbol, Status: "NEW"}, nil
}

type fakeMarket struct {
	tickers map[string]service.BookTicker
}

func (m *fakeMarket) Start(context.Context, []string) {}

func (m *fakeMarket) GetPrice(symbol string) (service.BookTicker, bool) {
	t, ok := m.tickers[symbol]
	return t, ok
}

func (m *fakeMarket) GetUpdates() <-chan service.BookTicker { return nil }

func (f *fakeTrader) PlaceMarketOrder(_ context.Context, p core.MarketParams) (model.OrderResult, error) {
	f.market = append(f.market, p)
	return model.OrderResult{OrderID: 11, Symbol: p.Symbol, Side: string(p.Side), Type: "MARKET", Status: "FILLED", Quantity: p.Quantity}, nil
}

func (f *fakeTrader) PlaceLimitOrder(_ context.Context, p core.LimitParams) (model.OrderResult, error) {
	f.limit = append(f.limit, p)
	return model.OrderResult{OrderID: 12, Symbol: p.Symbol, Type: "LIMIT", Status: "NEW", Price: p.Price}, nil
}

func (f *fakeTrader) PlaceTakeProfitOrder(_ context.Context, p core.TakeProfitParams) (model.OrderResult, error) {
	f.takeProfit = append(f.takeProfit, p)
	return model.OrderResult{OrderID: 13, Symbol: p.Symbol, Type: "TAKE_PROFIT", Status: "NEW"}, nil
}

func (f *fakeTrader) CancelOrder(_ context.Context, symbol string, orderID int64) (model.OrderResult, error) {
	f.cancelled = append(f.cancelled, orderID)
	return model.OrderResult{OrderID: orderID, Symbol: symbol, Status: "CANCELED"}, nil
}

func (f *fakeTrader) CancelAllOrders(_ context.Context, symbol string) error {
	f.cancelAll = append(f.cancelAll, symbol)
	return nil
}

func (f *fakeTrader) SetLeverage(_ context.Context, symbol string, leverage int) (model.LeverageResult, error) {
	if leverage < core.MinLeverage || leverage > core.MaxLeverage {
		return model.LeverageResult{}, model.InvalidParameter("leverage must be between 1 and 125, got %d", leverage)
	}
	f.leverage = append(f.leverage, leverage)
	return model.LeverageResult{Symbol: symbol, Leverage: leverage, MaxNotionalValue: decimal.NewFromInt(1000000)}, nil
}

func run(t *testing.T, trader Trader, opts Options, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	c := New(trader, strings.NewReader(strings.Join(lines, "\n")+"\n"), &out, opts)
	require.NoError(t, c.Run(context.Background()))
	return out.String()
}

func TestCLI_MarketOrder(t *testing.T) {
	trader := &fakeTrader{}
	out := run(t, trader, Options{Testnet: true, DefaultQuantity: decimal.RequireFromString("0.001")},
		"3", "btcusdt", "buy", "", "", "y", "0")

	require.Len(t, trader.market, 1)
	p := trader.market[0]
	assert.Equal(t, "BTCUSDT", p.Symbol)
	assert.Equal(t, model.SideBuy, p.Side)
	assert.Equal(t, "0.001", p.Quantity.String())
	assert.False(t, p.ReduceOnly)
	assert.Contains(t, out, "TESTNET MODE")
	assert.Contains(t, out, "ORDER EXECUTED")
	assert.Contains(t, out, "Goodbye")
}

func TestCLI_DeclinedOrderIsNotPlaced(t *testing.T) {
	trader := &fakeTrader{price: decimal.NewFromInt(37000)}
	out := run(t, trader, Options{}, "4", "", "SELL", "0.01", "38000", "", "", "n", "0")

	assert.Empty(t, trader.limit)
	assert.Contains(t, out, "Current BTCUSDT price: 37000")
	assert.Contains(t, out, "Order cancelled")
}

func TestCLI_RepromptsInvalidInput(t *testing.T) {
	trader := &fakeTrader{}
	out := run(t, trader, Options{}, "99", "4", "ETHUSDT", "hold", "BUY", "abc", "0.5", "2000", "ioc", "y", "y", "0")

	assert.Contains(t, out, "Invalid option")
	assert.Contains(t, out, "Please enter BUY or SELL")
	assert.Contains(t, out, "Please enter a valid number")
	require.Len(t, trader.limit, 1)
	assert.Equal(t, model.IOC, trader.limit[0].TimeInForce)
	assert.True(t, trader.limit[0].ReduceOnly)
	assert.Equal(t, "2000", trader.limit[0].Price.String())
}

func TestCLI_TakeProfitWithLimitPrice(t *testing.T) {
	trader := &fakeTrader{}
	run(t, trader, Options{}, "7", "", "SELL", "0.002", "40000", "y", "39990", "y", "0")

	require.Len(t, trader.takeProfit, 1)
	p := trader.takeProfit[0]
	assert.Equal(t, "40000", p.StopPrice.String())
	require.True(t, p.Price.Valid)
	assert.Equal(t, "39990", p.Price.Decimal.String())
	assert.Nil(t, p.ReduceOnly)
}

func TestCLI_LeverageErrorIsReported(t *testing.T) {
	trader := &fakeTrader{}
	out := run(t, trader, Options{}, "12", "", "200", "12", "", "", "0")

	assert.Contains(t, out, "invalid parameter: leverage must be between 1 and 125")
	assert.Equal(t, []int{10}, trader.leverage)
	assert.Contains(t, out, "set to 10x")
}

func TestCLI_CancelFlows(t *testing.T) {
	dir := t.TempDir()
	journal := repository.NewOrderJournal(repository.NewStorage(), filepath.Join(dir, "orders.json"))
	require.NoError(t, journal.Load())

	trader := &fakeTrader{}
	out := run(t, trader, Options{Journal: journal},
		"9", "btcusdt", "42", "n",
		"9", "btcusdt", "42", "y",
		"10", "btcusdt", "y",
		"0")

	assert.Equal(t, []int64{42}, trader.cancelled)
	assert.Equal(t, []string{"BTCUSDT"}, trader.cancelAll)
	assert.Contains(t, out, "Cancellation aborted")
	assert.Contains(t, out, "Order 42 cancelled successfully")

	saved, err := journal.Find(42)
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", saved.Status)
}

func TestCLI_BalanceFallsBackToStreamedBalance(t *testing.T) {
	balances := repository.NewBalanceRepository()
	balances.Update(model.Balance{Asset: "USDT", Balance: decimal.NewFromInt(900)})

	trader := &fakeTrader{balanceErr: model.ErrUnreachable}
	out := run(t, trader, Options{Balances: balances}, "1", "", "0")

	assert.Contains(t, out, "showing last streamed balance")
	assert.Contains(t, out, "900.0000")
}

func TestCLI_WatchOrdersAndJournal(t *testing.T) {
	dir := t.TempDir()
	journal := repository.NewOrderJournal(repository.NewStorage(), filepath.Join(dir, "orders.json"))
	require.NoError(t, journal.Save(model.OrderResult{OrderID: 7, Symbol: "BTCUSDT", Status: "FILLED"}))

	updates := make(chan service.OrderUpdate, 1)
	updates <- service.OrderUpdate{Symbol: "BTCUSDT", Side: "BUY", Type: "LIMIT", Status: "FILLED", ExecutionType: "TRADE", OrderID: 7, Quantity: "0.01", CumExecQty: "0.01"}
	close(updates)

	out := run(t, &fakeTrader{}, Options{Updates: updates, Journal: journal}, "14", "1", "16", "0")

	assert.Contains(t, out, "BTCUSDT BUY LIMIT TRADE")
	assert.Contains(t, out, "filled 0.01/0.01")
	assert.Contains(t, out, "User data stream closed")
	assert.Contains(t, out, "ORDER JOURNAL")
	assert.NotContains(t, out, "No orders recorded")
}

func TestCLI_DisabledFeatures(t *testing.T) {
	out := run(t, &fakeTrader{}, Options{}, "14", "15", "16")

	assert.Contains(t, out, "User data stream is not running")
	assert.Contains(t, out, "Market data stream is not available")
	assert.Contains(t, out, "Order journal is disabled")
	assert.Contains(t, out, "Goodbye")
}

func TestCLI_OrderStatusFallsBackToJournal(t *testing.T) {
	dir := t.TempDir()
	journal := repository.NewOrderJournal(repository.NewStorage(), filepath.Join(dir, "orders.json"))
	require.NoError(t, journal.Save(model.OrderResult{OrderID: 77, Symbol: "BTCUSDT", Status: "PARTIALLY_FILLED"}))

	out := run(t, &fakeTrader{}, Options{Journal: journal}, "13", "btcusdt", "77", "0")
	assert.Contains(t, out, "ORDER STATUS")
	assert.NotContains(t, out, "last journaled state")

	offline := &fakeTrader{statusErr: fmt.Errorf("%w: dial tcp: timeout", model.ErrUnreachable)}
	out = run(t, offline, Options{Journal: journal}, "13", "btcusdt", "77", "0")
	assert.Contains(t, out, "showing last journaled state")
	assert.Contains(t, out, "PARTIALLY_FILLED")

	// other symbols and rejections are reported, not masked
	out = run(t, offline, Options{Journal: journal}, "13", "ethusdt", "77", "0")
	assert.Contains(t, out, "Error: exchange unreachable")

	missing := &fakeTrader{statusErr: &model.ExchangeError{Code: -2013, Message: "Order does not exist.", Kind: model.ErrNotFound}}
	out = run(t, missing, Options{Journal: journal}, "13", "btcusdt", "77", "0")
	assert.Contains(t, out, "Order does not exist.")
	assert.NotContains(t, out, "PARTIALLY_FILLED")
}

func TestCLI_PriceHintFallsBackToStreamedTicker(t *testing.T) {
	market := &fakeMarket{tickers: map[string]service.BookTicker{
		"BTCUSDT": {Symbol: "BTCUSDT", Bid: decimal.NewFromInt(100), Ask: decimal.NewFromInt(102), Time: time.Unix(0, 0)},
	}}
	trader := &fakeTrader{priceErr: model.ErrUnreachable}

	out := run(t, trader, Options{Market: market}, "4", "", "BUY", "1", "101", "", "", "n", "0")
	assert.Contains(t, out, "Last streamed BTCUSDT mid: 101")
	assert.Empty(t, trader.limit)
}
