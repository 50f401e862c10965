package repository

import (
	"sync"

	"futures-trading-bot-binance/internal/model"
)

// BalanceRepository holds the latest wallet balance per asset, fed by REST
// snapshots and ACCOUNT_UPDATE stream events.
type BalanceRepository struct {
	cache map[string]model.Balance
	mu    sync.RWMutex
}

func NewBalanceRepository() *BalanceRepository {
	return &BalanceRepository{
		cache: make(map[string]model.Balance),
	}
}

// SetBalances replaces the entire cache with a full snapshot.
func (r *BalanceRepository) SetBalances(balances []model.Balance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache = make(map[string]model.Balance, len(balances))
	for _, b := range balances {
		r.cache[b.Asset] = b
	}
}

// Update stores b, replacing any previous value for the same asset. Stream
// events carry no available balance, so a zero Available keeps the old one.
func (r *BalanceRepository) Update(b model.Balance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.cache[b.Asset]; ok && b.Available.IsZero() {
		b.Available = prev.Available
	}
	r.cache[b.Asset] = b
}

func (r *BalanceRepository) Get(asset string) (model.Balance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.cache[asset]
	return b, ok
}
