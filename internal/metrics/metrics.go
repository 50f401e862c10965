package metrics

import (
	"errors"
	"sort"
	"sync"
	"time"

	"futures-trading-bot-binance/internal/core"
	"futures-trading-bot-binance/internal/logger"
	"futures-trading-bot-binance/internal/model"
)

// EndpointStats aggregates the calls made to one REST endpoint.
type EndpointStats struct {
	Endpoint  string
	Calls     int64
	Errors    int64
	Rejected  int64
	MinTime   time.Duration
	MaxTime   time.Duration
	TotalTime time.Duration
}

func (s EndpointStats) AvgTime() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Calls)
}

// Tracker times exchange calls as a core.Observer. The bot issues one call
// at a time, so a pending start per endpoint is enough.
type Tracker struct {
	core.NopObserver

	mu        sync.Mutex
	stats     map[string]*EndpointStats
	pending   map[string]time.Time
	Orders    int64
	StartTime time.Time
	now       func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		stats:     make(map[string]*EndpointStats),
		pending:   make(map[string]time.Time),
		StartTime: time.Now(),
		now:       time.Now,
	}
}

func (t *Tracker) Request(_, endpoint string, _ ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[endpoint] = t.now()
}

func (t *Tracker) Response(endpoint string, _ ...any) {
	t.finish(endpoint, nil)
}

// Failure closes the pending call on endpoint. Local validation failures
// never reached the exchange and leave any in-flight call alone.
func (t *Tracker) Failure(endpoint string, err error) {
	if errors.Is(err, model.ErrInvalidParameter) {
		return
	}
	t.finish(endpoint, err)
}

func (t *Tracker) OrderResult(model.OrderResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Orders++
}

func (t *Tracker) finish(endpoint string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start, ok := t.pending[endpoint]
	if !ok {
		// no matching Request
		return
	}
	delete(t.pending, endpoint)

	s := t.stats[endpoint]
	if s == nil {
		s = &EndpointStats{Endpoint: endpoint, MinTime: time.Duration(1<<63 - 1)}
		t.stats[endpoint] = s
	}

	duration := t.now().Sub(start)
	s.Calls++
	s.TotalTime += duration
	if duration < s.MinTime {
		s.MinTime = duration
	}
	if duration > s.MaxTime {
		s.MaxTime = duration
	}
	if err != nil {
		s.Errors++
		if errors.Is(err, model.ErrRejected) {
			s.Rejected++
		}
	}
}

// Summary returns a snapshot of every endpoint, sorted by endpoint.
func (t *Tracker) Summary() []EndpointStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]EndpointStats, 0, len(t.stats))
	for _, s := range t.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out
}

// LogSummary writes one log line per endpoint plus a session total.
func (t *Tracker) LogSummary() {
	summary := t.Summary()
	for _, s := range summary {
		logger.Info("Endpoint Metrics",
			"endpoint", s.Endpoint,
			"calls", s.Calls,
			"errors", s.Errors,
			"rejected", s.Rejected,
			"min_ms", s.MinTime.Milliseconds(),
			"max_ms", s.MaxTime.Milliseconds(),
			"avg_ms", s.AvgTime().Milliseconds(),
		)
	}

	t.mu.Lock()
	orders := t.Orders
	t.mu.Unlock()
	logger.Info("Session Metrics",
		"endpoints", len(summary),
		"orders", orders,
		"uptime", time.Since(t.StartTime).Round(time.Second).String(),
	)
}
