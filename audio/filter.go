package audio

import (
	"math"
	"sync"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/voiceloop/constant"
)

// coefInterval is how often (in samples) coefficients are recomputed while ramping
const coefInterval = 16

// Filter is a stereo RBJ biquad stage with smoothed cutoff and resonance
// Safe for concurrent parameter updates while the render goroutine processes
type Filter struct {
	mu sync.Mutex
	sr float64

	typ  FilterType
	freq Ramp
	q    Ramp

	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     [2]float64

	countdown int
}

// NewFilter creates an open (transparent) filter stage
func NewFilter(sr beep.SampleRate) *Filter {
	open := MapFilter(0)
	f := &Filter{
		sr:   float64(sr),
		typ:  open.Type,
		freq: NewRamp(open.Frequency, constant.RampTimeConstant, sr),
		q:    NewRamp(open.Q, constant.RampTimeConstant, sr),
	}
	f.updateCoefficients()
	return f
}

// Apply sets new target parameters
// Type switches at once; frequency and Q ramp toward their targets
func (f *Filter) Apply(p FilterParams) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.typ != p.Type {
		f.typ = p.Type
		f.countdown = 0
	}
	f.freq.SetTarget(p.Frequency)
	f.q.SetTarget(p.Q)
	f.updateCoefficients()
}

// Params returns the current type and target frequency/Q
func (f *Filter) Params() FilterParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FilterParams{Type: f.typ, Frequency: f.freq.Target(), Q: f.q.Target()}
}

// Current returns the instantaneous smoothed parameters
func (f *Filter) Current() FilterParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FilterParams{Type: f.typ, Frequency: f.freq.Value(), Q: f.q.Value()}
}

// Reset clears the delay line
func (f *Filter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.x1, f.x2, f.y1, f.y2 = [2]float64{}, [2]float64{}, [2]float64{}, [2]float64{}
}

// Process filters samples in place
func (f *Filter) Process(samples [][2]float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range samples {
		if !f.freq.Settled() || !f.q.Settled() {
			f.freq.Next()
			f.q.Next()
			f.countdown--
			if f.countdown <= 0 {
				f.updateCoefficients()
			}
		}

		for ch := 0; ch < 2; ch++ {
			x := samples[i][ch]
			y := f.b0*x + f.b1*f.x1[ch] + f.b2*f.x2[ch] - f.a1*f.y1[ch] - f.a2*f.y2[ch]

			f.x2[ch] = f.x1[ch]
			f.x1[ch] = x
			f.y2[ch] = f.y1[ch]
			f.y1[ch] = y

			samples[i][ch] = y
		}
	}
}

// updateCoefficients recomputes biquad coefficients from the current ramp values
// Caller holds mu
func (f *Filter) updateCoefficients() {
	f.countdown = coefInterval

	freq := f.freq.Value()
	nyquist := f.sr / 2
	if freq > nyquist*0.999 {
		freq = nyquist * 0.999
	}
	if freq < 1 {
		freq = 1
	}
	q := f.q.Value()
	if q < 0.01 {
		q = 0.01
	}

	w0 := 2 * math.Pi * freq / f.sr
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	var b0, b1, b2 float64
	switch f.typ {
	case FilterHighPass:
		b0 = (1 + cosw) / 2
		b1 = -(1 + cosw)
		b2 = (1 + cosw) / 2
	default:
		b0 = (1 - cosw) / 2
		b1 = 1 - cosw
		b2 = (1 - cosw) / 2
	}
	a0 := 1 + alpha
	a1 := -2 * cosw
	a2 := 1 - alpha

	f.b0 = b0 / a0
	f.b1 = b1 / a0
	f.b2 = b2 / a0
	f.a1 = a1 / a0
	f.a2 = a2 / a0
}
