package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"futures-trading-bot-binance/internal/core"
	"futures-trading-bot-binance/internal/logger"
	"futures-trading-bot-binance/internal/model"
	"futures-trading-bot-binance/internal/repository"
)

const (
	StreamBaseURL        = "wss://fstream.binance.com/ws"
	TestnetStreamBaseURL = "wss://stream.binancefuture.com/ws"

	keepAliveInterval = 30 * time.Minute
)

// ListenKeyClient manages the listen key of a user-data stream.
type ListenKeyClient interface {
	StartUserStream(ctx context.Context) (string, error)
	KeepAliveUserStream(ctx context.Context, listenKey string) error
	CloseUserStream(ctx context.Context, listenKey string) error
}

// OrderUpdate is the "o" payload of an ORDER_TRADE_UPDATE event.
type OrderUpdate struct {
	Symbol        string `json:"s"`
	ClientOrderID string `json:"c"`
	Side          string `json:"S"`
	Type          string `json:"o"`
	TimeInForce   string `json:"f"`
	Quantity      string `json:"q"`
	Price         string `json:"p"`
	AvgPrice      string `json:"ap"`
	StopPrice     string `json:"sp"`
	ExecutionType string `json:"x"` // NEW, CANCELED, CALCULATED, EXPIRED, TRADE, AMENDMENT
	Status        string `json:"X"`
	OrderID       int64  `json:"i"`
	LastExecQty   string `json:"l"`
	CumExecQty    string `json:"z"`
	LastExecPrice string `json:"L"`
	TradeTime     int64  `json:"T"`
	ReduceOnly    bool   `json:"R"`
	WorkingType   string `json:"wt"`
	PositionSide  string `json:"ps"`
	ClosePosition bool   `json:"cp"`
	RealizedPnl   string `json:"rp"`
}

// Result converts the update into the same shape REST queries return.
func (u OrderUpdate) Result() model.OrderResult {
	return core.FormatOrder(model.RawOrder{
		OrderID:       u.OrderID,
		ClientOrderID: u.ClientOrderID,
		Symbol:        u.Symbol,
		Side:          u.Side,
		Type:          u.Type,
		Status:        u.Status,
		Price:         u.Price,
		OrigQty:       u.Quantity,
		ExecutedQty:   u.CumExecQty,
		AvgPrice:      u.AvgPrice,
		StopPrice:     u.StopPrice,
		TimeInForce:   u.TimeInForce,
		ReduceOnly:    u.ReduceOnly,
		ClosePosition: u.ClosePosition,
		WorkingType:   u.WorkingType,
		UpdateTime:    u.TradeTime,
	})
}

type accountUpdate struct {
	Reason   string `json:"m"`
	Balances []struct {
		Asset       string `json:"a"`
		Wallet      string `json:"wb"`
		CrossWallet string `json:"cw"`
	} `json:"B"`
}

type userEvent struct {
	Event     string         `json:"e"`
	EventTime int64          `json:"E"`
	Order     *OrderUpdate   `json:"o"`
	Account   *accountUpdate `json:"a"`
}

// StreamService follows the futures user-data stream. Order updates are
// delivered on Updates; balance changes go to the balance repository.
type StreamService struct {
	client   ListenKeyClient
	baseURL  string
	balances *repository.BalanceRepository
	dialer   *websocket.Dialer

	keepAlive time.Duration
	Updates   chan OrderUpdate
}

func NewStreamService(client ListenKeyClient, baseURL string, balances *repository.BalanceRepository) *StreamService {
	return &StreamService{
		client:    client,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		balances:  balances,
		dialer:    websocket.DefaultDialer,
		keepAlive: keepAliveInterval,
		Updates:   make(chan OrderUpdate, 100),
	}
}

// Run connects and reads events until ctx is cancelled (returning nil) or
// the connection fails.
func (s *StreamService) Run(ctx context.Context) error {
	key, err := s.client.StartUserStream(ctx)
	if err != nil {
		return fmt.Errorf("failed to get listen key: %w", err)
	}
	logger.Info("🔑 ListenKey acquired")
	defer s.closeListenKey(key)

	conn, _, err := s.dialer.DialContext(ctx, fmt.Sprintf("%s/%s", s.baseURL, key), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}
	logger.Info("📡 WebSocket Connected to Binance Futures User Stream")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.keepAliveLoop(runCtx, key)
	go func() {
		<-runCtx.Done()
		conn.Close()
	}()

	err = s.readLoop(runCtx, conn)
	if ctx.Err() != nil {
		logger.Info("🛑 User stream stopped")
		return nil
	}
	logger.Warn("🔌 WebSocket Connection Closed", "error", err)
	return err
}

func (s *StreamService) keepAliveLoop(ctx context.Context, key string) {
	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.client.KeepAliveUserStream(ctx, key); err != nil {
				logger.Error("❌ Failed to keep alive listen key", "error", err)
			} else {
				logger.Debug("💓 ListenKey KeepAlive sent")
			}
		}
	}
}

func (s *StreamService) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("websocket read: %w", err)
		}

		var event userEvent
		if err := json.Unmarshal(message, &event); err != nil {
			logger.Error("❌ Failed to parse WebSocket message", "error", err, "msg", string(message))
			continue
		}

		switch event.Event {
		case "ORDER_TRADE_UPDATE":
			if event.Order == nil {
				continue
			}
			select {
			case s.Updates <- *event.Order:
			case <-ctx.Done():
				return ctx.Err()
			}
		case "ACCOUNT_UPDATE":
			s.applyAccountUpdate(event.Account)
		case "listenKeyExpired":
			return errors.New("listen key expired")
		}
	}
}

func (s *StreamService) applyAccountUpdate(u *accountUpdate) {
	if u == nil || s.balances == nil {
		return
	}
	for _, b := range u.Balances {
		s.balances.Update(model.Balance{
			Asset:       b.Asset,
			Balance:     model.ParseDecimal(b.Wallet),
			CrossWallet: model.ParseDecimal(b.CrossWallet),
		})
	}
	logger.Debug("Balance Update Streamed", "reason", u.Reason, "assets", len(u.Balances))
}

func (s *StreamService) closeListenKey(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.CloseUserStream(ctx, key); err != nil {
		logger.Warn("Failed to close listen key", "error", err)
	}
}
