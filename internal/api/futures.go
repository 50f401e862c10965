package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"futures-trading-bot-binance/internal/model"
)

const (
	TestnetBaseURL = "https://testnet.binancefuture.com"
	MainnetBaseURL = "https://fapi.binance.com"

	codeInvalidSymbol = -1121
	codeUnknownOrder  = -2011
	codeNoSuchOrder   = -2013
)

// Options configures a FuturesClient. BaseURL overrides the
// testnet/mainnet default when set.
type Options struct {
	APIKey     string
	SecretKey  string
	Testnet    bool
	BaseURL    string
	HTTPClient *http.Client
}

// FuturesClient is the USDT-M futures REST client used by the trading bot.
// It translates between go-binance types and the internal model and maps
// every failure onto the model error taxonomy.
type FuturesClient struct {
	client *futures.Client
}

func NewFuturesClient(opts Options) *FuturesClient {
	client := futures.NewClient(opts.APIKey, opts.SecretKey)
	switch {
	case opts.BaseURL != "":
		client.BaseURL = opts.BaseURL
	case opts.Testnet:
		client.BaseURL = TestnetBaseURL
	default:
		client.BaseURL = MainnetBaseURL
	}
	if opts.HTTPClient != nil {
		client.HTTPClient = opts.HTTPClient
	} else {
		client.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &FuturesClient{client: client}
}

func (c *FuturesClient) BaseURL() string {
	return c.client.BaseURL
}

func (c *FuturesClient) Ping(ctx context.Context) error {
	if err := c.client.NewPingService().Do(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

// SymbolFilters reads LOT_SIZE and PRICE_FILTER for symbol from exchangeInfo.
// Either filter is nil when the exchange does not list it.
func (c *FuturesClient) SymbolFilters(ctx context.Context, symbol string) (model.SymbolFilters, error) {
	info, err := c.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return model.SymbolFilters{}, classify("exchange info", err)
	}

	for i := range info.Symbols {
		s := &info.Symbols[i]
		if s.Symbol != symbol {
			continue
		}

		f := model.SymbolFilters{Symbol: symbol}
		if lot := s.LotSizeFilter(); lot != nil {
			f.LotSize = &model.LotSizeFilter{MinQty: lot.MinQuantity, MaxQty: lot.MaxQuantity, StepSize: lot.StepSize}
		}
		if price := s.PriceFilter(); price != nil {
			f.Price = &model.PriceFilter{MinPrice: price.MinPrice, MaxPrice: price.MaxPrice, TickSize: price.TickSize}
		}
		return f, nil
	}

	return model.SymbolFilters{}, &model.ExchangeError{Code: codeInvalidSymbol, Message: fmt.Sprintf("symbol %s not listed", symbol), Kind: model.ErrNotFound}
}

func (c *FuturesClient) TickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	prices, err := c.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, classify("ticker price", err)
	}
	for _, p := range prices {
		if p.Symbol != symbol {
			continue
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid price %q for %s: %w", p.Price, symbol, err)
		}
		return price, nil
	}
	return decimal.Zero, &model.ExchangeError{Code: codeInvalidSymbol, Message: fmt.Sprintf("no price for %s", symbol), Kind: model.ErrNotFound}
}

func (c *FuturesClient) AccountSnapshot(ctx context.Context) (model.AccountInfo, error) {
	acc, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return model.AccountInfo{}, classify("account", err)
	}
	return model.AccountInfo{
		TotalWalletBalance:    model.ParseDecimal(acc.TotalWalletBalance),
		TotalUnrealizedProfit: model.ParseDecimal(acc.TotalUnrealizedProfit),
		TotalMarginBalance:    model.ParseDecimal(acc.TotalMarginBalance),
		AvailableBalance:      model.ParseDecimal(acc.AvailableBalance),
		MaxWithdrawAmount:     model.ParseDecimal(acc.MaxWithdrawAmount),
		CanTrade:              acc.CanTrade,
		UpdateTime:            acc.UpdateTime,
	}, nil
}

// AssetBalance returns the balance of asset. An asset the account has never
// held reports zero rather than an error.
func (c *FuturesClient) AssetBalance(ctx context.Context, asset string) (model.Balance, error) {
	balances, err := c.client.NewGetBalanceService().Do(ctx)
	if err != nil {
		return model.Balance{}, classify("balance", err)
	}
	for _, b := range balances {
		if b.Asset == asset {
			return model.Balance{
				Asset:       asset,
				Balance:     model.ParseDecimal(b.Balance),
				Available:   model.ParseDecimal(b.AvailableBalance),
				CrossWallet: model.ParseDecimal(b.CrossWalletBalance),
			}, nil
		}
	}
	return model.Balance{Asset: asset}, nil
}

func (c *FuturesClient) SubmitOrder(ctx context.Context, req model.OrderRequest) (model.RawOrder, error) {
	base := req.Base()
	svc := c.client.NewCreateOrderService().
		Symbol(base.Symbol).
		Side(futures.SideType(base.Side)).
		Type(futures.OrderType(req.Kind())).
		Quantity(base.Quantity.String())

	switch o := req.(type) {
	case model.MarketOrder:
	case model.LimitOrder:
		svc.Price(o.Price.String()).TimeInForce(futures.TimeInForceType(o.TimeInForce))
	case model.StopLimitOrder:
		svc.Price(o.Price.String()).StopPrice(o.StopPrice.String()).TimeInForce(futures.TimeInForceType(o.TimeInForce))
	case model.StopMarketOrder:
		svc.StopPrice(o.StopPrice.String())
	case model.TakeProfitMarketOrder:
		svc.StopPrice(o.StopPrice.String())
	case model.TakeProfitLimitOrder:
		svc.Price(o.Price.String()).StopPrice(o.StopPrice.String()).TimeInForce(futures.TimeInForceType(o.TimeInForce))
	default:
		return model.RawOrder{}, model.InvalidParameter("unsupported order type %T", req)
	}

	if base.ReduceOnly {
		svc.ReduceOnly(true)
	}
	if base.ClientOrderID != "" {
		svc.NewClientOrderID(base.ClientOrderID)
	}

	resp, err := svc.Do(ctx)
	if err != nil {
		return model.RawOrder{}, classify("create order", err)
	}
	return model.RawOrder{
		OrderID:       resp.OrderID,
		ClientOrderID: resp.ClientOrderID,
		Symbol:        resp.Symbol,
		Side:          string(resp.Side),
		Type:          string(resp.Type),
		Status:        string(resp.Status),
		Price:         resp.Price,
		OrigQty:       resp.OrigQuantity,
		ExecutedQty:   resp.ExecutedQuantity,
		AvgPrice:      resp.AvgPrice,
		StopPrice:     resp.StopPrice,
		TimeInForce:   string(resp.TimeInForce),
		ReduceOnly:    resp.ReduceOnly,
		ClosePosition: resp.ClosePosition,
		WorkingType:   string(resp.WorkingType),
		UpdateTime:    resp.UpdateTime,
	}, nil
}

func (c *FuturesClient) CancelOrder(ctx context.Context, symbol string, orderID int64) (model.RawOrder, error) {
	resp, err := c.client.NewCancelOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
	if err != nil {
		return model.RawOrder{}, classify("cancel order", err)
	}
	return model.RawOrder{
		OrderID:       resp.OrderID,
		ClientOrderID: resp.ClientOrderID,
		Symbol:        resp.Symbol,
		Side:          string(resp.Side),
		Type:          string(resp.Type),
		Status:        string(resp.Status),
		Price:         resp.Price,
		OrigQty:       resp.OrigQuantity,
		ExecutedQty:   resp.ExecutedQuantity,
		StopPrice:     resp.StopPrice,
		TimeInForce:   string(resp.TimeInForce),
		ReduceOnly:    resp.ReduceOnly,
		WorkingType:   string(resp.WorkingType),
		UpdateTime:    resp.UpdateTime,
	}, nil
}

func (c *FuturesClient) CancelAllOrders(ctx context.Context, symbol string) error {
	if err := c.client.NewCancelAllOpenOrdersService().Symbol(symbol).Do(ctx); err != nil {
		return classify("cancel all orders", err)
	}
	return nil
}

func (c *FuturesClient) ListOpenOrders(ctx context.Context, symbol string) ([]model.RawOrder, error) {
	svc := c.client.NewListOpenOrdersService()
	if symbol != "" {
		svc.Symbol(symbol)
	}
	orders, err := svc.Do(ctx)
	if err != nil {
		return nil, classify("open orders", err)
	}

	raws := make([]model.RawOrder, 0, len(orders))
	for _, o := range orders {
		raws = append(raws, rawOrder(o))
	}
	return raws, nil
}

func (c *FuturesClient) GetOrder(ctx context.Context, symbol string, orderID int64) (model.RawOrder, error) {
	o, err := c.client.NewGetOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
	if err != nil {
		return model.RawOrder{}, classify("get order", err)
	}
	return rawOrder(o), nil
}

func (c *FuturesClient) ListPositions(ctx context.Context) ([]model.RawPosition, error) {
	risks, err := c.client.NewGetPositionRiskService().Do(ctx)
	if err != nil {
		return nil, classify("position risk", err)
	}

	positions := make([]model.RawPosition, 0, len(risks))
	for _, p := range risks {
		positions = append(positions, model.RawPosition{
			Symbol:           p.Symbol,
			PositionAmt:      p.PositionAmt,
			EntryPrice:       p.EntryPrice,
			MarkPrice:        p.MarkPrice,
			UnRealizedProfit: p.UnRealizedProfit,
			LiquidationPrice: p.LiquidationPrice,
			Leverage:         p.Leverage,
			MarginType:       p.MarginType,
			PositionSide:     p.PositionSide,
		})
	}
	return positions, nil
}

func (c *FuturesClient) SetLeverage(ctx context.Context, symbol string, leverage int) (model.LeverageResult, error) {
	res, err := c.client.NewChangeLeverageService().Symbol(symbol).Leverage(leverage).Do(ctx)
	if err != nil {
		return model.LeverageResult{}, classify("change leverage", err)
	}
	return model.LeverageResult{
		Symbol:           res.Symbol,
		Leverage:         res.Leverage,
		MaxNotionalValue: model.ParseDecimal(res.MaxNotionalValue),
	}, nil
}

// StartUserStream opens a user-data stream and returns its listen key.
func (c *FuturesClient) StartUserStream(ctx context.Context) (string, error) {
	key, err := c.client.NewStartUserStreamService().Do(ctx)
	if err != nil {
		return "", classify("start user stream", err)
	}
	return key, nil
}

// KeepAliveUserStream extends the listen key's validity by 60 minutes.
func (c *FuturesClient) KeepAliveUserStream(ctx context.Context, listenKey string) error {
	if err := c.client.NewKeepaliveUserStreamService().ListenKey(listenKey).Do(ctx); err != nil {
		return classify("keepalive user stream", err)
	}
	return nil
}

func (c *FuturesClient) CloseUserStream(ctx context.Context, listenKey string) error {
	if err := c.client.NewCloseUserStreamService().ListenKey(listenKey).Do(ctx); err != nil {
		return classify("close user stream", err)
	}
	return nil
}

func rawOrder(o *futures.Order) model.RawOrder {
	return model.RawOrder{
		OrderID:       o.OrderID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          string(o.Side),
		Type:          string(o.Type),
		Status:        string(o.Status),
		Price:         o.Price,
		OrigQty:       o.OrigQuantity,
		ExecutedQty:   o.ExecutedQuantity,
		AvgPrice:      o.AvgPrice,
		StopPrice:     o.StopPrice,
		TimeInForce:   string(o.TimeInForce),
		ReduceOnly:    o.ReduceOnly,
		ClosePosition: o.ClosePosition,
		WorkingType:   string(o.WorkingType),
		UpdateTime:    o.UpdateTime,
	}
}

// classify maps a go-binance error onto the model taxonomy. API errors keep
// the exchange's code and message; anything else is a transport failure.
func classify(op string, err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		kind := model.ErrRejected
		switch apiErr.Code {
		case codeInvalidSymbol, codeUnknownOrder, codeNoSuchOrder:
			kind = model.ErrNotFound
		}
		return &model.ExchangeError{Code: apiErr.Code, Message: apiErr.Message, Kind: kind}
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrUnreachable, err)
}
