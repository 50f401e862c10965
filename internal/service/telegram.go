package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"futures-trading-bot-binance/internal/core"
	"futures-trading-bot-binance/internal/logger"
	"futures-trading-bot-binance/internal/model"
)

const TelegramAPIURL = "https://api.telegram.org"

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// TelegramService posts order notifications to a Telegram chat. As a
// core.Observer it announces every order result without blocking the bot.
type TelegramService struct {
	core.NopObserver

	client *resty.Client
	token  string
	chatID string
	wg     sync.WaitGroup
}

func NewTelegramService(baseURL, token, chatID string) *TelegramService {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &TelegramService{
		client: client,
		token:  token,
		chatID: chatID,
	}
}

// SendMessage posts text to the configured chat and waits for the answer.
func (s *TelegramService) SendMessage(ctx context.Context, text string) error {
	if s.token == "" || s.chatID == "" {
		return fmt.Errorf("telegram credentials not set")
	}

	var result, apiErr telegramResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id":    s.chatID,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/bot" + s.token + "/sendMessage")
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram api returned status %d: %s", resp.StatusCode(), apiErr.Description)
	}
	if !result.OK {
		return fmt.Errorf("telegram api rejected message: %s", result.Description)
	}
	return nil
}

// OrderResult sends the order notification in the background.
func (s *TelegramService) OrderResult(res model.OrderResult) {
	msg := FormatOrderMessage(res)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.SendMessage(ctx, msg); err != nil {
			logger.Error("Failed to send Telegram message", "orderId", res.OrderID, "error", err)
		}
	}()
}

// Wait blocks until pending notifications have been sent.
func (s *TelegramService) Wait() {
	s.wg.Wait()
}

func FormatOrderMessage(res model.OrderResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 *%s %s* %s\n\n", res.Side, escapeMarkdown(res.Type), res.Symbol)
	fmt.Fprintf(&b, "🆔 Order: %d\n", res.OrderID)
	fmt.Fprintf(&b, "📌 Status: %s\n", escapeMarkdown(res.Status))
	fmt.Fprintf(&b, "📦 Quantity: %s\n", res.Quantity)
	if res.Price.IsPositive() {
		fmt.Fprintf(&b, "💲 Price: %s\n", res.Price)
	}
	if res.StopPrice.Valid {
		fmt.Fprintf(&b, "🎯 Stop: %s\n", res.StopPrice.Decimal)
	}
	if res.ExecutedQty.IsPositive() {
		fmt.Fprintf(&b, "✅ Executed: %s @ %s\n", res.ExecutedQty, res.AvgPrice)
	}
	if res.UpdateTime > 0 {
		fmt.Fprintf(&b, "\n📅 %s", res.UpdatedAt().Format("02/01/2006, 15:04:05"))
	}
	return b.String()
}

func escapeMarkdown(text string) string {
	return strings.ReplaceAll(text, "_", "\\_")
}
