package monitor

import "time"

// Ticker abstracts the periodic timer driving a coordinator so tests can
// fire ticks manually.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds the ticker for a coordinator's effective interval.
type TickerFactory func(interval time.Duration) Ticker

// NewTicker is the production factory, backed by time.Ticker.
func NewTicker(interval time.Duration) Ticker {
	return &realTicker{ticker: time.NewTicker(interval)}
}

type realTicker struct {
	ticker *time.Ticker
}

func (t *realTicker) C() <-chan time.Time { return t.ticker.C }

func (t *realTicker) Stop() { t.ticker.Stop() }
