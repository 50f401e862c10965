package logger

import (
	"errors"
	"log/slog"

	"futures-trading-bot-binance/internal/core"
	"futures-trading-bot-binance/internal/model"
)

// Observer writes trading bot events to a slog logger.
type Observer struct {
	log *slog.Logger
}

// NewObserver returns an Observer on l, or on the package logger when l is nil.
func NewObserver(l *slog.Logger) *Observer {
	if l == nil {
		l = Log
	}
	if l == nil {
		l = slog.Default()
	}
	return &Observer{log: l}
}

var _ core.Observer = (*Observer)(nil)

func (o *Observer) Request(method, endpoint string, args ...any) {
	o.log.Info("API REQUEST", append([]any{"method", method, "endpoint", endpoint}, args...)...)
}

func (o *Observer) Response(endpoint string, args ...any) {
	o.log.Info("API RESPONSE", append([]any{"endpoint", endpoint}, args...)...)
}

func (o *Observer) Failure(endpoint string, err error) {
	var exErr *model.ExchangeError
	if errors.As(err, &exErr) {
		o.log.Error("API ERROR", "endpoint", endpoint, "code", exErr.Code, "message", exErr.Message)
		return
	}
	if errors.Is(err, model.ErrInvalidParameter) {
		o.log.Error("VALIDATION ERROR", "endpoint", endpoint, "error", err)
		return
	}
	o.log.Error("API ERROR", "endpoint", endpoint, "error", err)
}

func (o *Observer) Warn(msg string, args ...any) {
	o.log.Warn(msg, args...)
}

func (o *Observer) Order(req model.OrderRequest) {
	base := req.Base()
	o.log.Info("ORDER",
		"type", req.Kind(),
		"side", base.Side,
		"symbol", base.Symbol,
		"quantity", base.Quantity.String(),
		"clientOrderId", base.ClientOrderID,
	)
}

func (o *Observer) OrderResult(res model.OrderResult) {
	o.log.Info("ORDER RESULT",
		"orderId", res.OrderID,
		"clientOrderId", res.ClientOrderID,
		"symbol", res.Symbol,
		"status", res.Status,
		"executedQty", res.ExecutedQty.String(),
		"avgPrice", res.AvgPrice.String(),
	)
}
