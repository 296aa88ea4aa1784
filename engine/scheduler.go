package engine

import (
	"github.com/lixenwraith/voiceloop/audio"
)

// trigger starts playback of p under mode override (nil = configured mode)
// No-op without audio or while capturing. Caller holds e.mu
func (e *Engine) trigger(padID string, p *pad, override *PlaybackMode) bool {
	if p.clip == nil || p.recording || p.arming {
		return false
	}

	mode := p.config.PlaybackMode
	if override != nil && override.Valid() {
		mode = *override
	}

	if p.config.IsRetrigger || p.playing {
		e.stop(padID, p, false)
	}

	// Period is fixed at trigger time; later tempo changes do not move it
	period := e.tempo.IntervalFor(p.config)

	e.registry.GetOrCreateFilter(padID).Apply(audio.MapFilter(p.config.FXFilterVal))
	e.registry.GetOrCreateGain(padID).Set(p.config.Volume)

	e.playSource(padID, p, mode)

	if mode == ModeInterval && period > 0 {
		tg := p.timerGen
		p.timer = e.clock.Every(period, func() { e.intervalFire(padID, tg) })
	}

	p.playing = true
	p.mode = mode
	p.config.PlaybackMode = mode
	e.stats.triggers.Add(1)
	e.notify(padID)
	return true
}

// playSource builds a fresh source for p and routes it through the pad chain
// Caller holds e.mu
func (e *Engine) playSource(padID string, p *pad, mode PlaybackMode) {
	p.gen++
	gen := p.gen

	src := audio.NewSource(p.clip, audio.SourceOptions{
		Loop: mode == ModeLoop,
		Rate: p.config.PlaybackRate,
		OnEnd: func() {
			// Render goroutine with stage locks held; hop off before touching the engine
			e.dispatch(func() { e.onSourceEnd(padID, gen) })
		},
	})
	e.registry.Chain(padID).Play(src)
}

// stop releases the active source and interval timer
// With notify the pad goes idle and observers are told. Caller holds e.mu
func (e *Engine) stop(padID string, p *pad, notify bool) {
	wasActive := p.playing || p.timer != nil

	// Invalidate pending completions and timer fires
	p.gen++
	p.timerGen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	e.registry.StopSource(padID)

	if notify {
		p.playing = false
		if wasActive {
			e.notify(padID)
		}
	}
}

// intervalFire replays an interval pad with a fresh source through the same stages
func (e *Engine) intervalFire(padID string, timerGen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.pads[padID]
	if !ok || !p.playing || p.timerGen != timerGen || p.clip == nil {
		return
	}
	e.playSource(padID, p, ModeInterval)
	e.stats.intervalFires.Add(1)
}

// onSourceEnd handles natural completion of a non-looping source
// Completions from superseded sources are ignored
func (e *Engine) onSourceEnd(padID string, gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.pads[padID]
	if !ok || p.gen != gen || !p.playing {
		return
	}

	// Interval pads stay active between fires; a timerless interval played once
	if p.mode == ModeOneShot || (p.mode == ModeInterval && p.timer == nil) {
		p.playing = false
		e.notify(padID)
	}
}
