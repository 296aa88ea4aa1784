package audio

import (
	"sync"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/voiceloop/constant"
)

// rateBlock is the frame count between playback-rate ramp updates
const rateBlock = 256

// SourceOptions configures one playback of a clip
type SourceOptions struct {
	Loop bool    // Repeat until stopped
	Rate float64 // Playback speed ratio, 1 = original pitch

	// OnEnd runs on the render goroutine when a non-looping source runs out
	// Not called after Stop. Must not block or call back into the owning chain
	OnEnd func()
}

// Source is a single-use playback of a clip
// A fresh Source is built per trigger; once stopped or finished it stays silent
type Source struct {
	mu        sync.Mutex
	ctrl      *beep.Ctrl
	resampler *beep.Resampler
	rate      Ramp
	onEnd     func()
	finished  bool
	stopped   bool
}

// NewSource prepares playback of clip; nothing sounds until it is streamed
func NewSource(clip *beep.Buffer, opts SourceOptions) *Source {
	rate := opts.Rate
	if rate <= 0 {
		rate = 1
	}

	s := &Source{
		rate:  NewRamp(rate, constant.RampTimeConstant, clip.Format().SampleRate),
		onEnd: opts.OnEnd,
	}

	var body beep.Streamer
	if opts.Loop {
		body = beep.Loop(-1, clip.Streamer(0, clip.Len()))
	} else {
		body = clip.Streamer(0, clip.Len())
	}

	s.resampler = beep.ResampleRatio(constant.ResampleQuality, rate, body)
	s.ctrl = &beep.Ctrl{Streamer: beep.Seq(s.resampler, beep.Callback(s.finish))}
	return s
}

// finish runs inside Stream when the clip is exhausted; caller holds mu
func (s *Source) finish() {
	if s.finished || s.stopped {
		return
	}
	s.finished = true
	if s.onEnd != nil {
		s.onEnd()
	}
}

// Stream implements beep.Streamer
func (s *Source) Stream(samples [][2]float64) (n int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl.Streamer == nil {
		return 0, false
	}

	for n < len(samples) {
		end := n + rateBlock
		if end > len(samples) {
			end = len(samples)
		}
		block := samples[n:end]

		if !s.rate.Settled() {
			s.resampler.SetRatio(s.rate.Skip(len(block)))
		}

		got, more := s.ctrl.Stream(block)
		n += got
		if !more || got < len(block) {
			s.ctrl.Streamer = nil
			break
		}
	}

	if n == 0 {
		return 0, false
	}
	return n, true
}

// Err implements beep.Streamer
func (s *Source) Err() error {
	return nil
}

// Stop halts playback; safe on a finished or already stopped source
func (s *Source) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.ctrl.Streamer = nil
}

// Active reports whether the source can still produce sound
func (s *Source) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Streamer != nil
}

// SetRate ramps the playback speed of the running source
func (s *Source) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	s.mu.Lock()
	s.rate.SetTarget(rate)
	s.mu.Unlock()
}

// Rate returns the target playback speed
func (s *Source) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate.Target()
}
