package clock

import (
	"context"
	"time"
)

// Run calls fn every period until ctx is done. Drift between calls is
// tolerated; consumers only rely on the calls arriving in order.
func Run(ctx context.Context, period time.Duration, fn func()) {
	if period <= 0 {
		period = DefaultStep
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// Ticker owns a background Run loop that can be started and stopped
// repeatedly.
type Ticker struct {
	period time.Duration
	cancel context.CancelFunc
	done   chan struct{}
}

func NewTicker(period time.Duration) *Ticker {
	return &Ticker{period: period}
}

// Start launches the loop, stopping any previous one first.
func (t *Ticker) Start(ctx context.Context, fn func()) {
	t.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)
		Run(ctx, t.period, fn)
	}()
}

// Stop cancels the loop and waits for it to exit, so no fn call is in
// flight once Stop returns. fn must not call Stop.
func (t *Ticker) Stop() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	t.done = nil
}
