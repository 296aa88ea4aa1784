package audio

import (
	"sync"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/voiceloop/constant"
)

// Gain is a smoothed volume stage
type Gain struct {
	mu    sync.Mutex
	level Ramp
}

// NewGain creates a gain stage settled at level
func NewGain(level float64, sr beep.SampleRate) *Gain {
	return &Gain{level: NewRamp(level, constant.RampTimeConstant, sr)}
}

// Set jumps to level immediately
func (g *Gain) Set(level float64) {
	g.mu.Lock()
	g.level.Set(level)
	g.mu.Unlock()
}

// RampTo smoothly approaches level
func (g *Gain) RampTo(level float64) {
	g.mu.Lock()
	g.level.SetTarget(level)
	g.mu.Unlock()
}

// Level returns the target level
func (g *Gain) Level() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.level.Target()
}

// Current returns the instantaneous smoothed level
func (g *Gain) Current() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.level.Value()
}

// Process scales samples in place
func (g *Gain) Process(samples [][2]float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.level.Settled() {
		v := g.level.Value()
		if v == 1 {
			return
		}
		for i := range samples {
			samples[i][0] *= v
			samples[i][1] *= v
		}
		return
	}

	for i := range samples {
		v := g.level.Next()
		samples[i][0] *= v
		samples[i][1] *= v
	}
}
