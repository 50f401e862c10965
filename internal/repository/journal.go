package repository

import (
	"fmt"
	"sync"

	"futures-trading-bot-binance/internal/core"
	"futures-trading-bot-binance/internal/logger"
	"futures-trading-bot-binance/internal/model"
)

// OrderJournal keeps every order the bot placed, or saw on the user-data
// stream, in a JSON file. Later reports for the same order id replace the
// earlier entry so the journal holds each order's latest known state.
type OrderJournal struct {
	core.NopObserver

	storage *Storage
	path    string
	orders  []model.OrderResult
	mu      sync.RWMutex
}

func NewOrderJournal(storage *Storage, path string) *OrderJournal {
	return &OrderJournal{
		storage: storage,
		path:    path,
		orders:  []model.OrderResult{},
	}
}

func (r *OrderJournal) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.storage.Exists(r.path) {
		logger.Info("Order journal not found, creating empty", "path", r.path)
		return r.storage.Write(r.path, []model.OrderResult{})
	}

	if err := r.storage.Read(r.path, &r.orders); err != nil {
		return err
	}
	return nil
}

// Save records res, replacing any entry with the same order id.
func (r *OrderJournal) Save(res model.OrderResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]model.OrderResult, len(r.orders), len(r.orders)+1)
	copy(next, r.orders)

	replaced := false
	for i, o := range next {
		if o.OrderID == res.OrderID {
			next[i] = res
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, res)
	}

	// memory only follows a successful write
	if err := r.storage.Write(r.path, next); err != nil {
		return err
	}
	r.orders = next
	return nil
}

func (r *OrderJournal) Find(orderID int64) (model.OrderResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if o.OrderID == orderID {
			return o, nil
		}
	}
	return model.OrderResult{}, fmt.Errorf("order %d: %w", orderID, model.ErrNotFound)
}

// All returns a copy of the journal, oldest first.
func (r *OrderJournal) All() []model.OrderResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.OrderResult, len(r.orders))
	copy(out, r.orders)
	return out
}

// OrderResult journals orders placed through the bot.
func (r *OrderJournal) OrderResult(res model.OrderResult) {
	if err := r.Save(res); err != nil {
		logger.Error("Failed to journal order", "orderId", res.OrderID, "error", err)
	}
}
