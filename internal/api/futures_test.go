package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futures-trading-bot-binance/internal/model"
)

const exchangeInfoBody = `{
  "timezone": "UTC",
  "serverTime": 1700000000000,
  "symbols": [
    {
      "symbol": "BTCUSDT",
      "status": "TRADING",
      "filters": [
        {"filterType": "PRICE_FILTER", "minPrice": "556.80", "maxPrice": "4529764", "tickSize": "0.10"},
        {"filterType": "LOT_SIZE", "minQty": "0.001", "maxQty": "1000", "stepSize": "0.001"}
      ]
    },
    {
      "symbol": "ODDUSDT",
      "status": "TRADING",
      "filters": [
        {"filterType": "MARKET_LOT_SIZE", "minQty": "1", "maxQty": "100", "stepSize": "1"}
      ]
    }
  ]
}`

// newTestClient serves routes keyed by a path fragment, since endpoint
// versions differ between SDK releases.
func newTestClient(t *testing.T, routes map[string]http.HandlerFunc) *FuturesClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for fragment, h := range routes {
			if strings.Contains(r.URL.Path, fragment) {
				h(w, r)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":-5000,"msg":"no route"}`))
	}))
	t.Cleanup(srv.Close)
	return NewFuturesClient(Options{APIKey: "key", SecretKey: "secret", BaseURL: srv.URL})
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestNewFuturesClient_BaseURL(t *testing.T) {
	assert.Equal(t, TestnetBaseURL, NewFuturesClient(Options{Testnet: true}).BaseURL())
	assert.Equal(t, MainnetBaseURL, NewFuturesClient(Options{}).BaseURL())
	assert.Equal(t, "http://local", NewFuturesClient(Options{Testnet: true, BaseURL: "http://local"}).BaseURL())
}

func TestFuturesClient_SymbolFilters(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{"exchangeInfo": jsonBody(exchangeInfoBody)})
	ctx := context.Background()

	f, err := c.SymbolFilters(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.NotNil(t, f.LotSize)
	require.NotNil(t, f.Price)
	assert.Equal(t, "0.001", f.LotSize.StepSize)
	assert.Equal(t, "0.10", f.Price.TickSize)
	assert.Equal(t, "556.80", f.Price.MinPrice)

	odd, err := c.SymbolFilters(ctx, "ODDUSDT")
	require.NoError(t, err)
	assert.Nil(t, odd.LotSize)
	assert.Nil(t, odd.Price)

	_, err = c.SymbolFilters(ctx, "NOPEUSDT")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestFuturesClient_TickerPrice(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{
		"ticker/price": jsonBody(`[{"symbol":"BTCUSDT","price":"37123.40","time":1700000000000}]`),
	})

	price, err := c.TickerPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("37123.4")))
}

func TestFuturesClient_SubmitTakeProfitMarketSendsNoPrice(t *testing.T) {
	var form map[string]string
	c := newTestClient(t, map[string]http.HandlerFunc{
		"/order": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			form = map[string]string{}
			for k := range r.Form {
				form[k] = r.Form.Get(k)
			}
			jsonBody(`{
				"orderId": 3001, "clientOrderId": "cid-9", "symbol": "BTCUSDT",
				"side": "SELL", "type": "TAKE_PROFIT_MARKET", "status": "NEW",
				"price": "0", "origQty": "0.002", "executedQty": "0", "avgPrice": "0.00",
				"stopPrice": "40000", "timeInForce": "GTC", "reduceOnly": true,
				"workingType": "CONTRACT_PRICE", "updateTime": 1700000000123
			}`)(w, r)
		},
	})

	req := model.TakeProfitMarketOrder{
		OrderBase: model.OrderBase{
			Symbol:        "BTCUSDT",
			Side:          model.SideSell,
			Quantity:      decimal.RequireFromString("0.002"),
			ReduceOnly:    true,
			ClientOrderID: "cid-9",
		},
		StopPrice: decimal.RequireFromString("40000"),
	}
	raw, err := c.SubmitOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "TAKE_PROFIT_MARKET", form["type"])
	assert.Equal(t, "0.002", form["quantity"])
	assert.Equal(t, "40000", form["stopPrice"])
	assert.Equal(t, "true", form["reduceOnly"])
	assert.Equal(t, "cid-9", form["newClientOrderId"])
	_, hasPrice := form["price"]
	assert.False(t, hasPrice)

	assert.Equal(t, int64(3001), raw.OrderID)
	assert.Equal(t, "40000", raw.StopPrice)
	assert.True(t, raw.ReduceOnly)
}

func TestFuturesClient_SubmitLimitOmitsReduceOnlyWhenFalse(t *testing.T) {
	var form map[string]string
	c := newTestClient(t, map[string]http.HandlerFunc{
		"/order": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			form = map[string]string{}
			for k := range r.Form {
				form[k] = r.Form.Get(k)
			}
			jsonBody(`{"orderId": 1, "symbol": "BTCUSDT", "status": "NEW", "type": "LIMIT", "side": "BUY"}`)(w, r)
		},
	})

	req := model.LimitOrder{
		OrderBase:   model.OrderBase{Symbol: "BTCUSDT", Side: model.SideBuy, Quantity: decimal.RequireFromString("0.01")},
		Price:       decimal.RequireFromString("30000.1"),
		TimeInForce: model.GTC,
	}
	_, err := c.SubmitOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "LIMIT", form["type"])
	assert.Equal(t, "30000.1", form["price"])
	assert.Equal(t, "GTC", form["timeInForce"])
	_, hasReduceOnly := form["reduceOnly"]
	assert.False(t, hasReduceOnly)
}

func TestFuturesClient_ErrorClassification(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{
		"/order": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			if r.Method == http.MethodGet {
				_, _ = w.Write([]byte(`{"code":-2013,"msg":"Order does not exist."}`))
				return
			}
			_, _ = w.Write([]byte(`{"code":-2019,"msg":"Margin is insufficient."}`))
		},
	})
	ctx := context.Background()

	_, err := c.GetOrder(ctx, "BTCUSDT", 12345)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = c.SubmitOrder(ctx, model.MarketOrder{OrderBase: model.OrderBase{Symbol: "BTCUSDT", Side: model.SideBuy, Quantity: decimal.NewFromInt(1)}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrRejected))
	var exErr *model.ExchangeError
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, int64(-2019), exErr.Code)
	assert.Equal(t, "Margin is insufficient.", exErr.Message)
}

func TestFuturesClient_TransportFailureIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewFuturesClient(Options{BaseURL: url})
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrUnreachable))
}

func TestFuturesClient_PositionsAndLeverage(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{
		"positionRisk": jsonBody(`[
			{"symbol":"BTCUSDT","positionAmt":"0.000","entryPrice":"0.0","markPrice":"37000","unRealizedProfit":"0","liquidationPrice":"0","leverage":"20","marginType":"cross","positionSide":"BOTH"},
			{"symbol":"ETHUSDT","positionAmt":"-0.5","entryPrice":"2000","markPrice":"1990","unRealizedProfit":"5","liquidationPrice":"2600","leverage":"10","marginType":"isolated","positionSide":"BOTH"}
		]`),
		"leverage": jsonBody(`{"leverage": 25, "maxNotionalValue": "1000000", "symbol": "BTCUSDT"}`),
	})
	ctx := context.Background()

	positions, err := c.ListPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "-0.5", positions[1].PositionAmt)
	assert.Equal(t, "isolated", positions[1].MarginType)

	lev, err := c.SetLeverage(ctx, "BTCUSDT", 25)
	require.NoError(t, err)
	assert.Equal(t, 25, lev.Leverage)
	assert.Equal(t, "1000000", lev.MaxNotionalValue.String())
}

func TestFuturesClient_AssetBalance(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{
		"balance": jsonBody(`[{"accountAlias":"x","asset":"USDT","balance":"15000.5","crossWalletBalance":"15000.5","crossUnPnl":"0","availableBalance":"14000","maxWithdrawAmount":"14000"}]`),
	})
	ctx := context.Background()

	usdt, err := c.AssetBalance(ctx, "USDT")
	require.NoError(t, err)
	assert.Equal(t, "15000.5", usdt.Balance.String())
	assert.Equal(t, "14000", usdt.Available.String())

	bnb, err := c.AssetBalance(ctx, "BNB")
	require.NoError(t, err)
	assert.Equal(t, "BNB", bnb.Asset)
	assert.True(t, bnb.Balance.IsZero())
}
