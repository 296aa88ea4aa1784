package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
)

// rampEpsilon is the distance at which a ramp snaps onto its target
const rampEpsilon = 1e-6

// Ramp is an exponentially smoothed parameter
// Approaches its target with time constant tc, like WebAudio setTargetAtTime
type Ramp struct {
	value  float64
	target float64
	coef   float64 // Per-sample retention factor exp(-1/(tc*sr))
	tcSamp float64 // Time constant in samples
}

// NewRamp creates a ramp settled at initial
func NewRamp(initial float64, tc time.Duration, sr beep.SampleRate) Ramp {
	tcSamp := tc.Seconds() * float64(sr)
	coef := 0.0
	if tcSamp > 0 {
		coef = math.Exp(-1 / tcSamp)
	}
	return Ramp{
		value:  initial,
		target: initial,
		coef:   coef,
		tcSamp: tcSamp,
	}
}

// SetTarget starts a smoothed approach toward v
func (r *Ramp) SetTarget(v float64) {
	r.target = v
}

// Set jumps to v immediately
func (r *Ramp) Set(v float64) {
	r.value = v
	r.target = v
}

// Value returns the current smoothed value
func (r *Ramp) Value() float64 {
	return r.value
}

// Target returns the value being approached
func (r *Ramp) Target() float64 {
	return r.target
}

// Settled reports whether the ramp reached its target
func (r *Ramp) Settled() bool {
	return r.value == r.target
}

// Next advances one sample and returns the new value
func (r *Ramp) Next() float64 {
	if r.value == r.target {
		return r.value
	}
	r.value = r.target + (r.value-r.target)*r.coef
	if math.Abs(r.value-r.target) < rampEpsilon {
		r.value = r.target
	}
	return r.value
}

// Skip advances n samples at once and returns the new value
func (r *Ramp) Skip(n int) float64 {
	if r.value == r.target || n <= 0 {
		return r.value
	}
	if r.tcSamp <= 0 {
		r.value = r.target
		return r.value
	}
	r.value = r.target + (r.value-r.target)*math.Exp(-float64(n)/r.tcSamp)
	if math.Abs(r.value-r.target) < rampEpsilon {
		r.value = r.target
	}
	return r.value
}
