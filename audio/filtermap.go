package audio

import (
	"math"

	"github.com/lixenwraith/voiceloop/constant"
)

// FilterType selects the biquad response
type FilterType int

const (
	FilterLowPass FilterType = iota
	FilterHighPass
)

func (t FilterType) String() string {
	switch t {
	case FilterLowPass:
		return "lowpass"
	case FilterHighPass:
		return "highpass"
	default:
		return "unknown"
	}
}

// FilterParams is the target state of a filter stage
type FilterParams struct {
	Type      FilterType
	Frequency float64 // Hz
	Q         float64
}

// MapFilter maps a sweep value in [-1, 1] onto filter parameters
//
//	 0      open low-pass at 22kHz, Q 0.1
//	<0      low-pass, 20kHz (near 0) down to 100Hz (-1), log scale
//	>0      high-pass, 20Hz (near 0) up to 8kHz (1), log scale
//
// Resonance rises as 1+2|v| on both sides. Out-of-range input is clamped
func MapFilter(v float64) FilterParams {
	if math.IsNaN(v) {
		v = 0
	}
	v = clampFloat(v, constant.MinFilterVal, constant.MaxFilterVal)

	switch {
	case v == 0:
		return FilterParams{
			Type:      FilterLowPass,
			Frequency: constant.FilterOpenFreq,
			Q:         constant.FilterOpenQ,
		}
	case v < 0:
		amount := math.Abs(v)
		lo, hi := constant.FilterLowPassMin, constant.FilterLowPassMax
		return FilterParams{
			Type:      FilterLowPass,
			Frequency: lo * math.Pow(hi/lo, 1-amount),
			Q:         constant.FilterResonanceBase + constant.FilterResonanceGain*amount,
		}
	default:
		lo, hi := constant.FilterHighPassMin, constant.FilterHighPassMax
		return FilterParams{
			Type:      FilterHighPass,
			Frequency: lo * math.Pow(hi/lo, v),
			Q:         constant.FilterResonanceBase + constant.FilterResonanceGain*v,
		}
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
