package audio

import (
	"sync"
)

// Chain is one pad's signal path: source -> filter -> gain
// The chain itself is the streamer connected to the bus; it keeps producing
// (silent) frames between sources so its stages stay wired
type Chain struct {
	mu     sync.Mutex
	source *Source
	filter *Filter
	gain   *Gain
	closed bool
}

// NewChain creates an empty chain with no stages
func NewChain() *Chain {
	return &Chain{}
}

// SetFilter installs the filter stage
func (c *Chain) SetFilter(f *Filter) {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
}

// SetGain installs the gain stage
func (c *Chain) SetGain(g *Gain) {
	c.mu.Lock()
	c.gain = g
	c.mu.Unlock()
}

// Play replaces the current source with s
// Any previous source is stopped first so the chain never carries two
func (c *Chain) Play(s *Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source != nil && c.source != s {
		c.source.Stop()
	}
	c.source = s
}

// Stop halts and releases the current source, reports whether one was present
func (c *Chain) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source == nil {
		return false
	}
	c.source.Stop()
	c.source = nil
	return true
}

// Source returns the current source, nil if none
func (c *Chain) Source() *Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// Close stops the source and makes the chain report end-of-stream
func (c *Chain) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source != nil {
		c.source.Stop()
		c.source = nil
	}
	c.closed = true
}

// Closed reports whether Close was called
func (c *Chain) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Stream implements beep.Streamer
func (c *Chain) Stream(samples [][2]float64) (n int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, false
	}

	filled := 0
	if c.source != nil {
		var more bool
		filled, more = c.source.Stream(samples)
		if !more {
			c.source = nil
			filled = 0
		}
	}
	for i := filled; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}

	if c.filter != nil {
		c.filter.Process(samples)
	}
	if c.gain != nil {
		c.gain.Process(samples)
	}
	return len(samples), true
}

// Err implements beep.Streamer
func (c *Chain) Err() error {
	return nil
}
