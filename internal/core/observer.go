package core

import "futures-trading-bot-binance/internal/model"

// Observer records what the Bot does. Implementations decide where events go;
// the Bot never touches process-wide logging.
type Observer interface {
	Request(method, endpoint string, args ...any)
	Response(endpoint string, args ...any)
	Failure(endpoint string, err error)
	Warn(msg string, args ...any)
	Order(req model.OrderRequest)
	OrderResult(res model.OrderResult)
}

// NopObserver discards every event. Embed it to implement only the hooks you need.
type NopObserver struct{}

func (NopObserver) Request(string, string, ...any) {}
func (NopObserver) Response(string, ...any) {}
func (NopObserver) Failure(string, error) {}
func (NopObserver) Warn(string, ...any) {}
func (NopObserver) Order(model.OrderRequest) {}
func (NopObserver) OrderResult(model.OrderResult) {}

type multiObserver []Observer

// Observers fans every event out to each non-nil observer in order.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) Request(method, endpoint string, args ...any) {
	for _, o := range m {
		o.Request(method, endpoint, args...)
	}
}

func (m multiObserver) Response(endpoint string, args ...any) {
	for _, o := range m {
		o.Response(endpoint, args...)
	}
}

func (m multiObserver) Failure(endpoint string, err error) {
	for _, o := range m {
		o.Failure(endpoint, err)
	}
}

func (m multiObserver) Warn(msg string, args ...any) {
	for _, o := range m {
		o.Warn(msg, args...)
	}
}

func (m multiObserver) Order(req model.OrderRequest) {
	for _, o := range m {
		o.Order(req)
	}
}

func (m multiObserver) OrderResult(res model.OrderResult) {
	for _, o := range m {
		o.OrderResult(res)
	}
}
