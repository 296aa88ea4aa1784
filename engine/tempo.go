package engine

import (
	"sync/atomic"
	"time"

	"github.com/lixenwraith/voiceloop/constant"
)

// Tempo is the shared beat clock
// Single writer (Engine.SetBPM), read by every pad at trigger time
type Tempo struct {
	bpm atomic.Int64
}

// NewTempo creates a tempo clamped to the valid range
func NewTempo(bpm int) *Tempo {
	t := &Tempo{}
	t.Set(bpm)
	return t
}

// Set stores bpm clamped to [MinBPM, MaxBPM] and returns the stored value
func (t *Tempo) Set(bpm int) int {
	if bpm < constant.MinBPM {
		bpm = constant.MinBPM
	} else if bpm > constant.MaxBPM {
		bpm = constant.MaxBPM
	}
	t.bpm.Store(int64(bpm))
	return bpm
}

// BPM returns the current tempo
func (t *Tempo) BPM() int {
	return int(t.bpm.Load())
}

// IntervalFor returns the retrigger period for cfg at the current tempo
// Zero means the pad plays once; positive periods are bounded to
// [MinIntervalSeconds, MaxIntervalSeconds]
func (t *Tempo) IntervalFor(cfg PadConfig) time.Duration {
	secs := cfg.IntervalSeconds
	if cfg.UseBeats {
		secs = 60.0 / float64(t.BPM()) * cfg.BeatAmount
	}
	switch {
	case !(secs > 0):
		return 0
	case secs < constant.MinIntervalSeconds:
		secs = constant.MinIntervalSeconds
	case secs > constant.MaxIntervalSeconds:
		secs = constant.MaxIntervalSeconds
	}
	return time.Duration(secs * float64(time.Second))
}
