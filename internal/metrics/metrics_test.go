package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futures-trading-bot-binance/internal/model"
)

type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestTracker_Summary(t *testing.T) {
	tr := NewTracker()
	clock := &stepClock{t: time.Unix(0, 0), step: 10 * time.Millisecond}
	tr.now = clock.now

	tr.Request("GET", "/fapi/v1/ping")
	tr.Response("/fapi/v1/ping")

	tr.Request("POST", "/fapi/v1/order")
	tr.Response("/fapi/v1/order")
	clock.step = 30 * time.Millisecond
	tr.Request("POST", "/fapi/v1/order")
	tr.Failure("/fapi/v1/order", &model.ExchangeError{Code: -2019, Kind: model.ErrRejected})
	tr.Request("POST", "/fapi/v1/order")
	tr.Failure("/fapi/v1/order", errors.New("timeout"))

	// never reached the exchange
	tr.Failure("/fapi/v1/order", model.InvalidParameter("bad"))
	tr.OrderResult(model.OrderResult{})

	summary := tr.Summary()
	require.Len(t, summary, 2)

	order := summary[0]
	assert.Equal(t, "/fapi/v1/order", order.Endpoint)
	assert.Equal(t, int64(3), order.Calls)
	assert.Equal(t, int64(2), order.Errors)
	assert.Equal(t, int64(1), order.Rejected)
	assert.Equal(t, 10*time.Millisecond, order.MinTime)
	assert.Equal(t, 30*time.Millisecond, order.MaxTime)
	assert.Equal(t, 70*time.Millisecond/3, order.AvgTime())

	assert.Equal(t, "/fapi/v1/ping", summary[1].Endpoint)
	assert.Equal(t, int64(1), summary[1].Calls)
	assert.Equal(t, int64(1), tr.Orders)

	tr.LogSummary()
}

func TestEndpointStats_AvgTimeWithoutCalls(t *testing.T) {
	assert.Zero(t, EndpointStats{}.AvgTime())
}

func TestTracker_ValidationFailureLeavesInFlightCallAlone(t *testing.T) {
	tr := NewTracker()
	clock := &stepClock{t: time.Unix(0, 0), step: 20 * time.Millisecond}
	tr.now = clock.now

	tr.Request("POST", "/fapi/v1/order")
	// a concurrent order fails validation before it is sent
	tr.Failure("/fapi/v1/order", model.InvalidParameter("quantity must be positive"))
	tr.Response("/fapi/v1/order")

	summary := tr.Summary()
	require.Len(t, summary, 1)
	assert.Equal(t, int64(1), summary[0].Calls)
	assert.Zero(t, summary[0].Errors)
	assert.Equal(t, 20*time.Millisecond, summary[0].MaxTime)
}
