package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"futures-trading-bot-binance/internal/core"
	"futures-trading-bot-binance/internal/logger"
	"futures-trading-bot-binance/internal/model"
	"futures-trading-bot-binance/internal/repository"
	"futures-trading-bot-binance/internal/service"
)

// Trader is the trading surface the menu drives; *core.Bot implements it.
type Trader interface {
	GetAccountInfo(ctx context.Context) (model.AccountInfo, error)
	GetBalance(ctx context.Context, asset string) (model.Balance, error)
	GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	PlaceMarketOrder(ctx context.Context, p core.MarketParams) (model.OrderResult, error)
	PlaceLimitOrder(ctx context.Context, p core.LimitParams) (model.OrderResult, error)
	PlaceStopLimitOrder(ctx context.Context, p core.StopLimitParams) (model.OrderResult, error)
	PlaceStopMarketOrder(ctx context.Context, p core.StopMarketParams) (model.OrderResult, error)
	PlaceTakeProfitOrder(ctx context.Context, p core.TakeProfitParams) (model.OrderResult, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) (model.OrderResult, error)
	CancelAllOrders(ctx context.Context, symbol string) error
	GetOpenOrders(ctx context.Context, symbol string) ([]model.OrderResult, error)
	GetOrderStatus(ctx context.Context, symbol string, orderID int64) (model.OrderResult, error)
	GetPositions(ctx context.Context, symbol string) ([]model.Position, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) (model.LeverageResult, error)
}

var _ Trader = (*core.Bot)(nil)

// MarketData is the book-ticker feed; *service.MarketDataService implements it.
type MarketData interface {
	Start(ctx context.Context, symbols []string)
	GetPrice(symbol string) (service.BookTicker, bool)
	GetUpdates() <-chan service.BookTicker
}

var _ MarketData = (*service.MarketDataService)(nil)

// Options wires the optional collaborators. Nil streams or repositories
// disable the menu items that need them.
type Options struct {
	Testnet         bool
	DefaultSymbol   string
	DefaultQuantity decimal.Decimal

	Updates  <-chan service.OrderUpdate
	Market   MarketData
	Journal  *repository.OrderJournal
	Balances *repository.BalanceRepository
}

type CLI struct {
	trader   Trader
	p        *prompter
	out      io.Writer
	opts     Options
	handlers map[string]func(context.Context) error
}

func New(trader Trader, in io.Reader, out io.Writer, opts Options) *CLI {
	if opts.DefaultSymbol == "" {
		opts.DefaultSymbol = "BTCUSDT"
	}

	c := &CLI{
		trader: trader,
		p:      &prompter{in: bufio.NewScanner(in), out: out},
		out:    out,
		opts:   opts,
	}
	c.handlers = map[string]func(context.Context) error{
		"1":  c.viewBalance,
		"2":  c.viewPrice,
		"3":  c.marketOrder,
		"4":  c.limitOrder,
		"5":  c.stopLimitOrder,
		"6":  c.stopMarketOrder,
		"7":  c.takeProfitOrder,
		"8":  c.viewOrders,
		"9":  c.cancelOrder,
		"10": c.cancelAllOrders,
		"11": c.viewPositions,
		"12": c.setLeverage,
		"13": c.orderStatus,
		"14": c.watchOrders,
		"15": c.watchTicker,
		"16": c.viewJournal,
		"17": c.viewAccount,
	}
	return c
}

// Run shows the menu until the user exits, input ends or ctx is cancelled.
func (c *CLI) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, header(c.opts.Testnet))

	for ctx.Err() == nil {
		fmt.Fprintln(c.out, menu())
		choice, err := c.p.text("Select option", "0")
		if err != nil {
			return c.exit(err)
		}
		if choice == "0" {
			return c.exit(nil)
		}

		handler, ok := c.handlers[choice]
		if !ok {
			fmt.Fprintln(c.out, errorStyle.Render("❌ Invalid option. Please try again."))
			continue
		}
		if err := handler(ctx); err != nil {
			if errors.Is(err, errInputClosed) {
				return c.exit(err)
			}
			logger.Error("Menu action failed", "option", choice, "error", err)
			fmt.Fprintln(c.out, errorStyle.Render("❌ Error: "+err.Error()))
		}
	}
	return c.exit(nil)
}

func (c *CLI) exit(err error) error {
	fmt.Fprintln(c.out, "\n👋 Goodbye!")
	if err != nil && !errors.Is(err, errInputClosed) {
		return err
	}
	return nil
}

func (c *CLI) viewBalance(ctx context.Context) error {
	asset, err := c.p.text("Asset", core.DefaultAsset)
	if err != nil {
		return err
	}

	bal, err := c.trader.GetBalance(ctx, asset)
	if err != nil {
		if c.opts.Balances == nil {
			return err
		}
		cached, ok := c.opts.Balances.Get(asset)
		if !ok {
			return err
		}
		fmt.Fprintln(c.out, warningStyle.Render("⚠️  "+err.Error()+", showing last streamed balance"))
		bal = cached
	} else if c.opts.Balances != nil {
		c.opts.Balances.Update(bal)
	}

	fmt.Fprintln(c.out, balanceBox(bal))
	return nil
}

func (c *CLI) viewAccount(ctx context.Context) error {
	info, err := c.trader.GetAccountInfo(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, accountBox(info))
	return nil
}

func (c *CLI) viewPrice(ctx context.Context) error {
	symbol, err := c.p.symbol("Symbol", c.opts.DefaultSymbol, true)
	if err != nil {
		return err
	}
	price, err := c.trader.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\n💰 Current %s Price: %s\n", symbol, price)
	return nil
}

// showPrice prints the current price as a hint, or the last streamed book
// ticker when the price call fails. Failures are not fatal.
func (c *CLI) showPrice(ctx context.Context, symbol string) {
	price, err := c.trader.GetCurrentPrice(ctx, symbol)
	if err == nil {
		fmt.Fprintf(c.out, "📊 Current %s price: %s\n", symbol, price)
		return
	}
	if c.opts.Market == nil {
		return
	}
	if t, ok := c.opts.Market.GetPrice(symbol); ok {
		fmt.Fprintf(c.out, "📊 Last streamed %s mid: %s (%s)\n", symbol, t.Mid(), t.Time.Format(time.TimeOnly))
	}
}

func (c *CLI) confirm(summary ...string) (bool, error) {
	fmt.Fprintln(c.out)
	for _, line := range summary {
		fmt.Fprintln(c.out, line)
	}
	ok, err := c.p.yesNo("Confirm order?", false)
	if err == nil && !ok {
		fmt.Fprintln(c.out, warningStyle.Render("❌ Order cancelled."))
	}
	return ok, err
}

func (c *CLI) placed(res model.OrderResult, err error) error {
	if err != nil {
		return fmt.Errorf("order failed: %w", err)
	}
	fmt.Fprintln(c.out, orderBox("ORDER EXECUTED", res))
	return nil
}

func (c *CLI) marketOrder(ctx context.Context) error {
	fmt.Fprintln(c.out, titleStyle.Render("\n--- MARKET ORDER ---"))
	symbol, err := c.p.symbol("Symbol", c.opts.DefaultSymbol, true)
	if err != nil {
		return err
	}
	side, err := c.p.side()
	if err != nil {
		return err
	}
	qty, err := c.p.number("Quantity", c.opts.DefaultQuantity)
	if err != nil {
		return err
	}
	reduceOnly, err := c.p.yesNo("Reduce Only?", false)
	if err != nil {
		return err
	}

	if ok, err := c.confirm(fmt.Sprintf("📋 Order Summary: %s %s %s @ MARKET", side, qty, symbol)); !ok || err != nil {
		return err
	}
	return c.placed(c.trader.PlaceMarketOrder(ctx, core.MarketParams{
		Symbol: symbol, Side: side, Quantity: qty, ReduceOnly: reduceOnly,
	}))
}

func (c *CLI) limitOrder(ctx context.Context) error {
	fmt.Fprintln(c.out, titleStyle.Render("\n--- LIMIT ORDER ---"))
	symbol, err := c.p.symbol("Symbol", c.opts.DefaultSymbol, true)
	if err != nil {
		return err
	}
	c.showPrice(ctx, symbol)

	side, err := c.p.side()
	if err != nil {
		return err
	}
	qty, err := c.p.number("Quantity", c.opts.DefaultQuantity)
	if err != nil {
		return err
	}
	price, err := c.p.number("Limit Price", decimal.Zero)
	if err != nil {
		return err
	}
	tif, err := c.p.symbol("Time in Force (GTC/IOC/FOK/GTX)", string(model.GTC), true)
	if err != nil {
		return err
	}
	reduceOnly, err := c.p.yesNo("Reduce Only?", false)
	if err != nil {
		return err
	}

	if ok, err := c.confirm(fmt.Sprintf("📋 Order Summary: %s %s %s @ %s (%s)", side, qty, symbol, price, tif)); !ok || err != nil {
		return err
	}
	return c.placed(c.trader.PlaceLimitOrder(ctx, core.LimitParams{
		Symbol: symbol, Side: side, Quantity: qty, Price: price,
		TimeInForce: model.TimeInForce(tif), ReduceOnly: reduceOnly,
	}))
}

func (c *CLI) stopLimitOrder(ctx context.Context) error {
	fmt.Fprintln(c.out, titleStyle.Render("\n--- STOP-LIMIT ORDER ---"))
	symbol, err := c.p.symbol("Symbol", c.opts.DefaultSymbol, true)
	if err != nil {
		return err
	}
	c.showPrice(ctx, symbol)

	side, err := c.p.side()
	if err != nil {
		return err
	}
	qty, err := c.p.number("Quantity", c.opts.DefaultQuantity)
	if err != nil {
		return err
	}
	stop, err := c.p.number("Stop Price (trigger)", decimal.Zero)
	if err != nil {
		return err
	}
	price, err := c.p.number("Limit Price (execution)", decimal.Zero)
	if err != nil {
		return err
	}
	reduceOnly, err := c.p.yesNo("Reduce Only?", false)
	if err != nil {
		return err
	}

	if ok, err := c.confirm(
		fmt.Sprintf("📋 Order Summary: %s %s %s", side, qty, symbol),
		fmt.Sprintf("    Stop @ %s → Limit @ %s", stop, price),
	); !ok || err != nil {
		return err
	}
	return c.placed(c.trader.PlaceStopLimitOrder(ctx, core.StopLimitParams{
		Symbol: symbol, Side: side, Quantity: qty, Price: price, StopPrice: stop, ReduceOnly: reduceOnly,
	}))
}

func (c *CLI) stopMarketOrder(ctx context.Context) error {
	fmt.Fprintln(c.out, titleStyle.Render("\n--- STOP-MARKET ORDER ---"))
	symbol, err := c.p.symbol("Symbol", c.opts.DefaultSymbol, true)
	if err != nil {
		return err
	}
	c.showPrice(ctx, symbol)

	side, err := c.p.side()
	if err != nil {
		return err
	}
	qty, err := c.p.number("Quantity", c.opts.DefaultQuantity)
	if err != nil {
		return err
	}
	stop, err := c.p.number("Stop Price (trigger)", decimal.Zero)
	if err != nil {
		return err
	}
	reduceOnly, err := c.p.yesNo("Reduce Only?", false)
	if err != nil {
		return err
	}

	if ok, err := c.confirm(
		fmt.Sprintf("📋 Order Summary: %s %s %s", side, qty, symbol),
		fmt.Sprintf("    Stop @ %s → MARKET", stop),
	); !ok || err != nil {
		return err
	}
	return c.placed(c.trader.PlaceStopMarketOrder(ctx, core.StopMarketParams{
		Symbol: symbol, Side: side, Quantity: qty, StopPrice: stop, ReduceOnly: reduceOnly,
	}))
}

func (c *CLI) takeProfitOrder(ctx context.Context) error {
	fmt.Fprintln(c.out, titleStyle.Render("\n--- TAKE-PROFIT ORDER ---"))
	symbol, err := c.p.symbol("Symbol", c.opts.DefaultSymbol, true)
	if err != nil {
		return err
	}
	c.showPrice(ctx, symbol)

	side, err := c.p.side()
	if err != nil {
		return err
	}
	qty, err := c.p.number("Quantity", c.opts.DefaultQuantity)
	if err != nil {
		return err
	}
	stop, err := c.p.number("Take Profit Price (trigger)", decimal.Zero)
	if err != nil {
		return err
	}
	useLimit, err := c.p.yesNo("Use limit price?", false)
	if err != nil {
		return err
	}

	var price decimal.NullDecimal
	target := "MARKET"
	if useLimit {
		limit, err := c.p.number("Limit Price (execution)", decimal.Zero)
		if err != nil {
			return err
		}
		price = decimal.NewNullDecimal(limit)
		target = "Limit @ " + limit.String()
	}

	if ok, err := c.confirm(
		fmt.Sprintf("📋 Order Summary: %s %s %s", side, qty, symbol),
		fmt.Sprintf("    TP @ %s → %s", stop, target),
	); !ok || err != nil {
		return err
	}
	return c.placed(c.trader.PlaceTakeProfitOrder(ctx, core.TakeProfitParams{
		Symbol: symbol, Side: side, Quantity: qty, StopPrice: stop, Price: price,
	}))
}

func (c *CLI) viewOrders(ctx context.Context) error {
	symbol, err := c.p.symbol("Symbol (leave empty for all)", "", false)
	if err != nil {
		return err
	}
	orders, err := c.trader.GetOpenOrders(ctx, symbol)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, ordersBox("OPEN ORDERS", orders, "No open orders."))
	return nil
}

func (c *CLI) cancelOrder(ctx context.Context) error {
	symbol, err := c.p.symbol("Symbol", "", true)
	if err != nil {
		return err
	}
	orderID, err := c.p.integer("Order ID", 0)
	if err != nil {
		return err
	}
	ok, err := c.p.yesNo(fmt.Sprintf("Cancel order %d?", orderID), false)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.out, warningStyle.Render("❌ Cancellation aborted."))
		return nil
	}

	res, err := c.trader.CancelOrder(ctx, symbol, orderID)
	if err != nil {
		return err
	}
	if c.opts.Journal != nil {
		if err := c.opts.Journal.Save(res); err != nil {
			logger.Warn("Failed to journal cancelled order", "orderId", res.OrderID, "error", err)
		}
	}
	fmt.Fprintln(c.out, successStyle.Render(fmt.Sprintf("✅ Order %d cancelled successfully.", orderID)))
	return nil
}

func (c *CLI) cancelAllOrders(ctx context.Context) error {
	symbol, err := c.p.symbol("Symbol", "", true)
	if err != nil {
		return err
	}
	ok, err := c.p.yesNo(fmt.Sprintf("Cancel ALL orders for %s?", symbol), false)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.out, warningStyle.Render("❌ Cancellation aborted."))
		return nil
	}

	if err := c.trader.CancelAllOrders(ctx, symbol); err != nil {
		return err
	}
	fmt.Fprintln(c.out, successStyle.Render(fmt.Sprintf("✅ All orders for %s cancelled.", symbol)))
	return nil
}

func (c *CLI) viewPositions(ctx context.Context) error {
	symbol, err := c.p.symbol("Symbol (leave empty for all)", "", false)
	if err != nil {
		return err
	}
	positions, err := c.trader.GetPositions(ctx, symbol)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, positionsBox(positions))
	return nil
}

func (c *CLI) setLeverage(ctx context.Context) error {
	symbol, err := c.p.symbol("Symbol", c.opts.DefaultSymbol, true)
	if err != nil {
		return err
	}
	leverage, err := c.p.integer("Leverage (1-125)", 10)
	if err != nil {
		return err
	}

	res, err := c.trader.SetLeverage(ctx, symbol, int(leverage))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, successStyle.Render(fmt.Sprintf("✅ Leverage for %s set to %dx (max notional %s)", res.Symbol, res.Leverage, res.MaxNotionalValue)))
	return nil
}

func (c *CLI) orderStatus(ctx context.Context) error {
	symbol, err := c.p.symbol("Symbol", "", true)
	if err != nil {
		return err
	}
	orderID, err := c.p.integer("Order ID", 0)
	if err != nil {
		return err
	}

	res, err := c.trader.GetOrderStatus(ctx, symbol, orderID)
	if err != nil {
		if !errors.Is(err, model.ErrUnreachable) || c.opts.Journal == nil {
			return err
		}
		saved, findErr := c.opts.Journal.Find(orderID)
		if findErr != nil || saved.Symbol != symbol {
			return err
		}
		fmt.Fprintln(c.out, warningStyle.Render("⚠️  "+err.Error()+", showing last journaled state"))
		res = saved
	}
	fmt.Fprintln(c.out, orderBox("ORDER STATUS", res))
	return nil
}

func (c *CLI) watchDuration() (time.Duration, error) {
	secs, err := c.p.integer("Watch for seconds", 60)
	if err != nil {
		return 0, err
	}
	if secs <= 0 {
		return 0, model.InvalidParameter("duration must be positive, got %d", secs)
	}
	return time.Duration(secs) * time.Second, nil
}

func (c *CLI) watchOrders(ctx context.Context) error {
	if c.opts.Updates == nil {
		fmt.Fprintln(c.out, warningStyle.Render("⚠️  User data stream is not running."))
		return nil
	}
	d, err := c.watchDuration()
	if err != nil {
		return err
	}

	wctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	fmt.Fprintln(c.out, "👀 Watching order updates...")

	for {
		select {
		case <-wctx.Done():
			fmt.Fprintln(c.out, "⏹  Stopped watching.")
			return nil
		case u, ok := <-c.opts.Updates:
			if !ok {
				fmt.Fprintln(c.out, warningStyle.Render("⚠️  User data stream closed."))
				return nil
			}
			res := u.Result()
			fmt.Fprintf(c.out, "[%s] %s %s %s %s → %s filled %s/%s\n",
				res.UpdatedAt().Format(time.TimeOnly), res.Symbol, res.Side, res.Type,
				u.ExecutionType, res.Status, res.ExecutedQty, res.Quantity)
		}
	}
}

func (c *CLI) watchTicker(ctx context.Context) error {
	if c.opts.Market == nil {
		fmt.Fprintln(c.out, warningStyle.Render("⚠️  Market data stream is not available."))
		return nil
	}
	symbol, err := c.p.symbol("Symbol", c.opts.DefaultSymbol, true)
	if err != nil {
		return err
	}
	d, err := c.watchDuration()
	if err != nil {
		return err
	}

	wctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	c.opts.Market.Start(wctx, []string{symbol})
	fmt.Fprintf(c.out, "👀 Watching %s book ticker...\n", symbol)

	updates := c.opts.Market.GetUpdates()
	for {
		select {
		case <-wctx.Done():
			fmt.Fprintln(c.out, "⏹  Stopped watching.")
			return nil
		case t := <-updates:
			if t.Symbol != symbol {
				continue
			}
			fmt.Fprintf(c.out, "[%s] %s bid %s ask %s mid %s\n", t.Time.Format(time.TimeOnly), t.Symbol, t.Bid, t.Ask, t.Mid())
		}
	}
}

func (c *CLI) viewJournal(context.Context) error {
	if c.opts.Journal == nil {
		fmt.Fprintln(c.out, warningStyle.Render("⚠️  Order journal is disabled."))
		return nil
	}
	fmt.Fprintln(c.out, ordersBox("ORDER JOURNAL", c.opts.Journal.All(), "No orders recorded."))
	return nil
}
