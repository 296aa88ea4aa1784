package audio

import (
	"sync"
)

// Tap records bus output as PCM16 chunks
// Write runs on the render goroutine under the bus lock, Drain on the control side
type Tap struct {
	mu     sync.Mutex
	chunks [][]byte
	frames int
	closed bool
}

// NewTap creates an empty tap
func NewTap() *Tap {
	return &Tap{}
}

// Write encodes and appends a rendered block
func (t *Tap) Write(samples [][2]float64) {
	if len(samples) == 0 {
		return
	}
	chunk := EncodePCM16(samples)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.chunks = append(t.chunks, chunk)
	t.frames += len(samples)
}

// Frames returns the number of frames captured so far
func (t *Tap) Frames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

// Drain closes the tap and hands over the captured chunks
func (t *Tap) Drain() (chunks [][]byte, frames int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	chunks, frames = t.chunks, t.frames
	t.chunks = nil
	t.frames = 0
	return chunks, frames
}
