package engine

import (
	"sync"
	"time"

	"github.com/lixenwraith/voiceloop/core"
)

// TimerHandle cancels a recurring timer; Stop is idempotent
type TimerHandle interface {
	Stop()
}

// Clock supplies wall time and recurring timers to the engine
type Clock interface {
	Now() time.Time
	Every(d time.Duration, fn func()) TimerHandle
}

// TimeProvider provides the real system time with monotonic clock readings
type TimeProvider struct{}

// NewTimeProvider creates a new monotonic time provider
func NewTimeProvider() *TimeProvider {
	return &TimeProvider{}
}

// Now returns the current time with monotonic clock reading
func (p *TimeProvider) Now() time.Time {
	return time.Now()
}

// Every runs fn every d on its own goroutine until the handle is stopped
func (p *TimeProvider) Every(d time.Duration, fn func()) TimerHandle {
	h := &tickerHandle{
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
	}
	core.Go(func() {
		for {
			select {
			case <-h.stop:
				return
			case <-h.ticker.C:
				fn()
			}
		}
	})
	return h
}

type tickerHandle struct {
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

func (h *tickerHandle) Stop() {
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.stop)
	})
}
