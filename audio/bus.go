package audio

import (
	"math"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// busInput is one keyed connection into the bus
type busInput struct {
	id string
	s  beep.Streamer
}

// Bus is the master mix point
// Inputs are keyed so connecting the same id twice is a no-op; the mix passes
// through a master volume stage, then fans out to every attached tap
type Bus struct {
	mu      sync.Mutex
	inputs  []busInput
	taps    []*Tap
	scratch [][2]float64
	volume  *effects.Volume
	format  beep.Format
}

// NewBus creates a bus at the given sample rate with unity master volume
func NewBus(sr beep.SampleRate) *Bus {
	b := &Bus{
		format: beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2},
	}
	b.volume = &effects.Volume{
		Streamer: beep.StreamerFunc(b.mix),
		Base:     2,
	}
	return b
}

// Format returns the bus sample format
func (b *Bus) Format() beep.Format {
	return b.format
}

// Connect attaches s under id, returns false if id was already connected
func (b *Bus) Connect(id string, s beep.Streamer) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, in := range b.inputs {
		if in.id == id {
			return false
		}
	}
	b.inputs = append(b.inputs, busInput{id: id, s: s})
	return true
}

// Disconnect detaches id, returns false if it was not connected
func (b *Bus) Disconnect(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, in := range b.inputs {
		if in.id == id {
			b.inputs = append(b.inputs[:i], b.inputs[i+1:]...)
			return true
		}
	}
	return false
}

// Connected reports whether id is attached
func (b *Bus) Connected(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, in := range b.inputs {
		if in.id == id {
			return true
		}
	}
	return false
}

// Len returns the number of connected inputs
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inputs)
}

// SetVolume sets master volume as a linear gain
// math.Log2(0) is -Inf, so zero volume maps to Silent
func (b *Bus) SetVolume(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v <= 0 {
		b.volume.Silent = true
		b.volume.Volume = 0
		return
	}
	b.volume.Silent = false
	b.volume.Volume = math.Log2(v)
}

// Attach adds a capture tap fed with every rendered block
func (b *Bus) Attach(t *Tap) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.taps {
		if existing == t {
			return
		}
	}
	b.taps = append(b.taps, t)
}

// Detach removes a capture tap
func (b *Bus) Detach(t *Tap) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.taps {
		if existing == t {
			b.taps = append(b.taps[:i], b.taps[i+1:]...)
			return
		}
	}
}

// Stream implements beep.Streamer; the bus never ends
func (b *Bus) Stream(samples [][2]float64) (n int, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, _ = b.volume.Stream(samples)
	for _, t := range b.taps {
		t.Write(samples[:n])
	}
	return n, true
}

// Err implements beep.Streamer
func (b *Bus) Err() error {
	return nil
}

// mix sums all inputs into samples, dropping inputs that ended; caller holds mu
func (b *Bus) mix(samples [][2]float64) (int, bool) {
	for i := range samples {
		samples[i] = [2]float64{}
	}
	if cap(b.scratch) < len(samples) {
		b.scratch = make([][2]float64, len(samples))
	}
	scratch := b.scratch[:len(samples)]

	live := b.inputs[:0]
	for _, in := range b.inputs {
		got, more := in.s.Stream(scratch)
		for i := 0; i < got; i++ {
			samples[i][0] += scratch[i][0]
			samples[i][1] += scratch[i][1]
		}
		if more {
			live = append(live, in)
		}
	}
	for i := len(live); i < len(b.inputs); i++ {
		b.inputs[i] = busInput{}
	}
	b.inputs = live
	return len(samples), true
}
