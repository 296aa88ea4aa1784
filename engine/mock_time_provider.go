package engine

import (
	"sort"
	"sync"
	"time"
)

// MockTimeProvider provides a controllable time source for testing
// Timers fire synchronously from Advance, in deadline order
type MockTimeProvider struct {
	mu          sync.RWMutex
	currentTime time.Time
	timers      []*mockTimer
}

type mockTimer struct {
	owner   *MockTimeProvider
	period  time.Duration
	next    time.Time
	fn      func()
	stopped bool
}

// NewMockTimeProvider creates a new mock time provider with the given start time
func NewMockTimeProvider(startTime time.Time) *MockTimeProvider {
	return &MockTimeProvider{
		currentTime: startTime,
	}
}

// Now returns the current mocked time
func (m *MockTimeProvider) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTime
}

// Every registers a recurring timer driven by Advance
func (m *MockTimeProvider) Every(d time.Duration, fn func()) TimerHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &mockTimer{owner: m, period: d, next: m.currentTime.Add(d), fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Stop implements TimerHandle
func (t *mockTimer) Stop() {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	t.stopped = true
}

// Active returns the number of timers not yet stopped
func (m *MockTimeProvider) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Periods returns the periods of the live timers
func (m *MockTimeProvider) Periods() []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []time.Duration
	for _, t := range m.timers {
		if !t.stopped {
			out = append(out, t.period)
		}
	}
	return out
}

// SetTime sets the current time for the mock without firing timers
func (m *MockTimeProvider) SetTime(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = t
}

// Advance moves time forward by d, firing every timer that comes due
// Callbacks run without the mock lock held so they may stop timers
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.currentTime.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		var due *mockTimer
		live := m.timers[:0]
		for _, t := range m.timers {
			if t.stopped {
				continue
			}
			live = append(live, t)
		}
		m.timers = live
		sort.SliceStable(m.timers, func(i, j int) bool { return m.timers[i].next.Before(m.timers[j].next) })
		if len(m.timers) > 0 && !m.timers[0].next.After(target) {
			due = m.timers[0]
			m.currentTime = due.next
			due.next = due.next.Add(due.period)
		}
		if due == nil {
			m.currentTime = target
			m.mu.Unlock()
			return
		}
		fn := due.fn
		m.mu.Unlock()

		fn()
	}
}
