package engine

import (
	"context"
	"sync"

	"github.com/lixenwraith/voiceloop/core"
)

// subscriberBuffer is the per-subscriber notification capacity
const subscriberBuffer = 64

// Feed fans the engine's change channel out to any number of observers
// Slow subscribers miss changes instead of stalling the others
type Feed struct {
	src <-chan Change

	mu     sync.Mutex
	subs   map[int]chan Change
	nextID int
	done   chan struct{}
}

// NewFeed creates a feed reading src; call Run to start delivery
func NewFeed(src <-chan Change) *Feed {
	return &Feed{
		src:  src,
		subs: make(map[int]chan Change),
		done: make(chan struct{}),
	}
}

// Start runs the feed on its own goroutine until ctx ends
func (f *Feed) Start(ctx context.Context) {
	core.Go(func() { f.Run(ctx) })
}

// Run delivers changes until ctx ends, then closes every subscriber channel
func (f *Feed) Run(ctx context.Context) {
	defer f.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case ch := <-f.src:
			f.publish(ch)
		}
	}
}

// Done is closed once Run has returned
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

// Subscribe returns a change channel and a cancel func releasing it
func (f *Feed) Subscribe() (<-chan Change, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Change, subscriberBuffer)
	select {
	case <-f.done:
		close(ch)
		return ch, func() {}
	default:
	}

	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if c, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(c)
			}
		})
	}
}

// Subscribers returns the number of live subscriptions
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Feed) publish(ch Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.subs {
		TrySend(c, ch)
	}
}

func (f *Feed) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.subs {
		close(c)
		delete(f.subs, id)
	}
	close(f.done)
}

// TrySend sends v on c unless c is full
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
