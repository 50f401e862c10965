package market

import (
	"context"
	"sync"

	"futures-trading-bot-binance/internal/model"
)

// FilterSource fetches a symbol's trading rules from the exchange.
type FilterSource interface {
	SymbolFilters(ctx context.Context, symbol string) (model.SymbolFilters, error)
}

// FilterCache memoizes symbol filters for the lifetime of the process.
// Entries are only ever added, never replaced or expired.
type FilterCache struct {
	source FilterSource
	cache  map[string]model.SymbolFilters
	mu     sync.RWMutex
}

func NewFilterCache(source FilterSource) *FilterCache {
	return &FilterCache{
		source: source,
		cache:  make(map[string]model.SymbolFilters),
	}
}

// Get returns the cached filters for symbol, fetching them on first use.
func (c *FilterCache) Get(ctx context.Context, symbol string) (model.SymbolFilters, error) {
	c.mu.RLock()
	f, ok := c.cache[symbol]
	c.mu.RUnlock()
	if ok {
		return f, nil
	}

	fetched, err := c.source.SymbolFilters(ctx, symbol)
	if err != nil {
		return model.SymbolFilters{}, err
	}
	return c.putIfAbsent(symbol, fetched), nil
}

// putIfAbsent stores f unless another caller got there first, and returns
// whichever value is cached.
func (c *FilterCache) putIfAbsent(symbol string, f model.SymbolFilters) model.SymbolFilters {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.cache[symbol]; ok {
		return existing
	}
	c.cache[symbol] = f
	return f
}

func (c *FilterCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
