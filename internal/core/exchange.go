package core

import (
	"context"

	"github.com/shopspring/decimal"

	"futures-trading-bot-binance/internal/model"
)

// Exchange is the signed futures REST surface the Bot drives. Errors should
// wrap model.ErrNotFound, model.ErrRejected or model.ErrUnreachable.
type Exchange interface {
	Ping(ctx context.Context) error
	SymbolFilters(ctx context.Context, symbol string) (model.SymbolFilters, error)
	TickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	AccountSnapshot(ctx context.Context) (model.AccountInfo, error)
	AssetBalance(ctx context.Context, asset string) (model.Balance, error)

	SubmitOrder(ctx context.Context, req model.OrderRequest) (model.RawOrder, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) (model.RawOrder, error)
	CancelAllOrders(ctx context.Context, symbol string) error
	// ListOpenOrders lists open orders for symbol, or for every symbol when it is empty.
	ListOpenOrders(ctx context.Context, symbol string) ([]model.RawOrder, error)
	GetOrder(ctx context.Context, symbol string, orderID int64) (model.RawOrder, error)

	ListPositions(ctx context.Context) ([]model.RawPosition, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) (model.LeverageResult, error)
}
