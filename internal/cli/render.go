package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"futures-trading-bot-binance/internal/model"
)

var (
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type field struct {
	label string
	value string
}

func box(title string, fields []field) string {
	width := 0
	for _, f := range fields {
		if len(f.label) > width {
			width = len(f.label)
		}
	}

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.label == "" {
			lines = append(lines, f.value)
			continue
		}
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-*s", width+1, f.label+":"))+" "+f.value)
	}
	return borderStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), strings.Join(lines, "\n")))
}

func header(testnet bool) string {
	mode := warningStyle.Render("⚠️  LIVE MODE - real funds at risk")
	if testnet {
		mode = successStyle.Render("⚠️  TESTNET MODE - No real funds at risk")
	}
	return borderStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("BINANCE FUTURES TRADING BOT"),
		mode,
	))
}

var menuItems = []string{
	"1.  View Account Balance",
	"2.  View Current Price",
	"3.  Place Market Order",
	"4.  Place Limit Order",
	"5.  Place Stop-Limit Order",
	"6.  Place Stop-Market Order",
	"7.  Place Take-Profit Order",
	"8.  View Open Orders",
	"9.  Cancel Order",
	"10. Cancel All Orders",
	"11. View Positions",
	"12. Set Leverage",
	"13. Get Order Status",
	"14. Watch Order Updates",
	"15. Watch Book Ticker",
	"16. View Order Journal",
	"17. View Account Summary",
	"0.  Exit",
}

func menu() string {
	return borderStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("MAIN MENU"), strings.Join(menuItems, "\n")))
}

func orderBox(title string, o model.OrderResult) string {
	fields := []field{
		{"Order ID", fmt.Sprint(o.OrderID)},
		{"Symbol", o.Symbol},
		{"Side", o.Side},
		{"Type", o.Type},
		{"Status", o.Status},
		{"Quantity", o.Quantity.String()},
		{"Executed Qty", o.ExecutedQty.String()},
	}
	if o.Price.IsPositive() {
		fields = append(fields, field{"Price", o.Price.String()})
	}
	if o.AvgPrice.IsPositive() {
		fields = append(fields, field{"Avg Price", o.AvgPrice.String()})
	}
	if o.StopPrice.Valid {
		fields = append(fields, field{"Stop Price", o.StopPrice.Decimal.String()})
	}
	if o.ClientOrderID != "" {
		fields = append(fields, field{"Client ID", o.ClientOrderID})
	}
	return box(title, fields)
}

func ordersBox(title string, orders []model.OrderResult, empty string) string {
	if len(orders) == 0 {
		return box(title, []field{{"", empty}})
	}

	var fields []field
	for i, o := range orders {
		if i > 0 {
			fields = append(fields, field{"", strings.Repeat("─", 30)})
		}
		fields = append(fields,
			field{"Order ID", fmt.Sprint(o.OrderID)},
			field{"Symbol", o.Symbol},
			field{"Side", o.Side},
			field{"Type", o.Type},
			field{"Status", o.Status},
			field{"Quantity", o.Quantity.String()},
			field{"Price", o.Price.String()},
		)
		if o.StopPrice.Valid {
			fields = append(fields, field{"Stop Price", o.StopPrice.Decimal.String()})
		}
	}
	return box(title, fields)
}

func balanceBox(b model.Balance) string {
	return box("ACCOUNT BALANCE", []field{
		{"Asset", b.Asset},
		{"Total Balance", b.Balance.StringFixed(4)},
		{"Available", b.Available.StringFixed(4)},
		{"Cross Wallet", b.CrossWallet.StringFixed(4)},
	})
}

func accountBox(a model.AccountInfo) string {
	return box("ACCOUNT SUMMARY", []field{
		{"Wallet Balance", a.TotalWalletBalance.StringFixed(4)},
		{"Unrealized PnL", a.TotalUnrealizedProfit.StringFixed(4)},
		{"Margin Balance", a.TotalMarginBalance.StringFixed(4)},
		{"Available", a.AvailableBalance.StringFixed(4)},
		{"Max Withdraw", a.MaxWithdrawAmount.StringFixed(4)},
		{"Can Trade", fmt.Sprint(a.CanTrade)},
	})
}

func positionsBox(positions []model.Position) string {
	if len(positions) == 0 {
		return box("CURRENT POSITIONS", []field{{"", "No active positions."}})
	}

	var fields []field
	for i, p := range positions {
		if i > 0 {
			fields = append(fields, field{"", strings.Repeat("─", 30)})
		}
		fields = append(fields,
			field{"Symbol", p.Symbol},
			field{"Position", p.PositionAmount.String()},
			field{"Entry Price", p.EntryPrice.StringFixed(2)},
			field{"Mark Price", p.MarkPrice.StringFixed(2)},
			field{"Unrealized PnL", p.UnrealizedPnl.StringFixed(4)},
			field{"Liquidation", p.LiquidationPrice.StringFixed(2)},
			field{"Leverage", fmt.Sprintf("%dx", p.Leverage)},
			field{"Margin Type", p.MarginType},
		)
	}
	return box("CURRENT POSITIONS", fields)
}
