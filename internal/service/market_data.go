package service

import (
	"context"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"futures-trading-bot-binance/internal/logger"
	"futures-trading-bot-binance/internal/model"
)

// BookTicker is the best bid and ask of a futures symbol.
type BookTicker struct {
	Symbol string
	Bid    decimal.Decimal
	Ask    decimal.Decimal
	Time   time.Time
}

func (t BookTicker) Mid() decimal.Decimal {
	return t.Bid.Add(t.Ask).Div(decimal.NewFromInt(2))
}

type bookTickerServe func(symbol string, handler futures.WsBookTickerHandler, errHandler futures.ErrHandler) (doneC, stopC chan struct{}, err error)

// MarketDataService streams book tickers over the go-binance futures
// websocket and reconnects whenever a connection drops.
type MarketDataService struct {
	serve          bookTickerServe
	reconnectDelay time.Duration

	mu           sync.RWMutex
	prices       map[string]BookTicker
	priceUpdates chan BookTicker
}

// NewMarketDataService returns a service on the go-binance endpoints, which
// follow futures.UseTestnet.
func NewMarketDataService() *MarketDataService {
	return &MarketDataService{
		serve:          futures.WsBookTickerServe,
		reconnectDelay: 5 * time.Second,
		prices:         make(map[string]BookTicker),
		priceUpdates:   make(chan BookTicker, 100),
	}
}

// Start watches each symbol until ctx is cancelled.
func (s *MarketDataService) Start(ctx context.Context, symbols []string) {
	for _, symbol := range symbols {
		go s.monitorSymbol(ctx, symbol)
	}
}

func (s *MarketDataService) monitorSymbol(ctx context.Context, symbol string) {
	for {
		if ctx.Err() != nil {
			return
		}

		wsHandler := func(event *futures.WsBookTickerEvent) {
			ticker := BookTicker{
				Symbol: event.Symbol,
				Bid:    model.ParseDecimal(event.BestBidPrice),
				Ask:    model.ParseDecimal(event.BestAskPrice),
				Time:   time.Now(),
			}
			if event.TransactionTime > 0 {
				ticker.Time = time.UnixMilli(event.TransactionTime)
			}

			s.mu.Lock()
			s.prices[symbol] = ticker
			s.mu.Unlock()

			// a slow reader only misses intermediate ticks
			select {
			case s.priceUpdates <- ticker:
			default:
			}
		}

		errHandler := func(err error) {
			logger.Error("WebSocket error", "symbol", symbol, "error", err)
		}

		logger.Info("Connecting to Binance Futures WS (BookTicker)", "symbol", symbol)
		doneC, stopC, err := s.serve(symbol, wsHandler, errHandler)
		if err != nil {
			logger.Error("Failed to connect to Binance WS, retrying...", "symbol", symbol, "error", err, "delay", s.reconnectDelay)
			if !s.sleep(ctx) {
				return
			}
			continue
		}

		select {
		case <-ctx.Done():
			close(stopC)
			<-doneC
			return
		case <-doneC:
			logger.Warn("WebSocket connection closed, reconnecting...", "symbol", symbol, "delay", s.reconnectDelay)
			if !s.sleep(ctx) {
				return
			}
		}
	}
}

func (s *MarketDataService) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.reconnectDelay):
		return true
	}
}

func (s *MarketDataService) GetPrice(symbol string) (BookTicker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.prices[symbol]
	return t, ok
}

func (s *MarketDataService) GetUpdates() <-chan BookTicker {
	return s.priceUpdates
}
