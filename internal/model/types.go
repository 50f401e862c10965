package model

import "github.com/shopspring/decimal"

// AccountInfo is a summary of the futures account snapshot.
type AccountInfo struct {
	TotalWalletBalance    decimal.Decimal `json:"totalWalletBalance"`
	TotalUnrealizedProfit decimal.Decimal `json:"totalUnrealizedProfit"`
	TotalMarginBalance    decimal.Decimal `json:"totalMarginBalance"`
	AvailableBalance      decimal.Decimal `json:"availableBalance"`
	MaxWithdrawAmount     decimal.Decimal `json:"maxWithdrawAmount"`
	CanTrade              bool            `json:"canTrade"`
	UpdateTime            int64           `json:"updateTime"`
}

// Balance represents the futures wallet balance of one asset.
type Balance struct {
	Asset       string          `json:"asset"`
	Balance     decimal.Decimal `json:"balance"`
	Available   decimal.Decimal `json:"available"`
	CrossWallet decimal.Decimal `json:"crossWallet"`
}

// RawPosition is a position record as the exchange reports it.
type RawPosition struct {
	Symbol           string
	PositionAmt      string
	EntryPrice       string
	MarkPrice        string
	UnRealizedProfit string
	LiquidationPrice string
	Leverage         string
	MarginType       string
	PositionSide     string
}

// Position is an open (non-zero) position.
type Position struct {
	Symbol           string          `json:"symbol"`
	PositionAmount   decimal.Decimal `json:"positionAmount"`
	EntryPrice       decimal.Decimal `json:"entryPrice"`
	MarkPrice        decimal.Decimal `json:"markPrice"`
	UnrealizedPnl    decimal.Decimal `json:"unrealizedPnl"`
	LiquidationPrice decimal.Decimal `json:"liquidationPrice"`
	Leverage         int             `json:"leverage"`
	MarginType       string          `json:"marginType"`
	PositionSide     string          `json:"positionSide"`
}

// LeverageResult is the exchange's answer to a leverage change.
type LeverageResult struct {
	Symbol           string          `json:"symbol"`
	Leverage         int             `json:"leverage"`
	MaxNotionalValue decimal.Decimal `json:"maxNotionalValue"`
}
