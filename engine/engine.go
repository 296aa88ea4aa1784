package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/voiceloop/audio"
	"github.com/lixenwraith/voiceloop/constant"
	"github.com/lixenwraith/voiceloop/core"
	"github.com/lixenwraith/voiceloop/status"
)

// changeBuffer is the capacity of the notification channel
const changeBuffer = 256

// Change tells observers that a pad (or, with an empty PadID, the master/global state) changed
type Change struct {
	PadID string
}

// Options configures a new Engine
type Options struct {
	SampleRate   beep.SampleRate
	BPM          int
	MasterVolume float64 // 0 means unity; mute with SetMasterVolume(0)
	Pads         []PadConfig

	Input    audio.InputDevice // nil refuses every capture
	Exporter Exporter          // nil discards master artifacts
	Clock    Clock             // nil uses wall time
	Status   *status.Registry  // nil creates a private registry

	// Dispatch runs completion handlers off the render goroutine; nil uses core.Go
	Dispatch func(func())
}

// engineStats caches metric pointers
type engineStats struct {
	triggers        *atomic.Int64
	intervalFires   *atomic.Int64
	sessions        *atomic.Int64
	failures        *atomic.Int64
	exports         *atomic.Int64
	notifyDropped   *atomic.Int64
	masterRecording *atomic.Bool
	bpm             *atomic.Int64
	masterVolume    *status.AtomicFloat
}

func newEngineStats(reg *status.Registry) engineStats {
	return engineStats{
		triggers:        reg.Ints.Get("engine.triggers"),
		intervalFires:   reg.Ints.Get("engine.interval_fires"),
		sessions:        reg.Ints.Get("capture.sessions"),
		failures:        reg.Ints.Get("capture.failures"),
		exports:         reg.Ints.Get("master.exports"),
		notifyDropped:   reg.Ints.Get("engine.notify_dropped"),
		masterRecording: reg.Bools.Get("master.recording"),
		bpm:             reg.Ints.Get("engine.bpm"),
		masterVolume:    reg.Floats.Get("master.volume"),
	}
}

// Engine owns every pad, the master bus and the capture sessions
// All pad and session mutation is serialized by mu; rendering pulls from Bus()
// on the output goroutine
type Engine struct {
	mu    sync.Mutex
	pads  map[string]*pad
	order []string

	bus        *audio.Bus
	registry   *Registry
	tempo      *Tempo
	sampleRate beep.SampleRate
	master     *masterSession

	clock    Clock
	input    audio.InputDevice
	exporter Exporter
	dispatch func(func())

	changes   chan Change
	statusReg *status.Registry
	stats     engineStats
}

// New creates an engine with one pad per config entry, in order
// Duplicate pad ids keep the first entry
func New(opts Options) *Engine {
	if opts.SampleRate <= 0 {
		opts.SampleRate = beep.SampleRate(constant.AudioSampleRate)
	}
	if opts.MasterVolume <= 0 {
		opts.MasterVolume = 1
	}
	if opts.BPM == 0 {
		opts.BPM = constant.DefaultBPM
	}
	if opts.Input == nil {
		opts.Input = audio.NoInput{}
	}
	if opts.Exporter == nil {
		opts.Exporter = DiscardExporter{}
	}
	if opts.Clock == nil {
		opts.Clock = NewTimeProvider()
	}
	if opts.Status == nil {
		opts.Status = status.NewRegistry()
	}
	if opts.Dispatch == nil {
		opts.Dispatch = core.Go
	}

	bus := audio.NewBus(opts.SampleRate)
	e := &Engine{
		pads:       make(map[string]*pad, len(opts.Pads)),
		bus:        bus,
		registry:   NewRegistry(bus),
		tempo:      NewTempo(opts.BPM),
		sampleRate: opts.SampleRate,
		clock:      opts.Clock,
		input:      opts.Input,
		exporter:   opts.Exporter,
		dispatch:   opts.Dispatch,
		changes:    make(chan Change, changeBuffer),
		statusReg:  opts.Status,
		stats:      newEngineStats(opts.Status),
	}

	for _, cfg := range opts.Pads {
		if _, dup := e.pads[cfg.ID]; dup || cfg.ID == "" {
			continue
		}
		if len(e.order) == constant.PadCount {
			log.Printf("[engine] pad limit %d reached, ignoring %s and later pads", constant.PadCount, cfg.ID)
			break
		}
		cfg.Clamp()
		e.pads[cfg.ID] = &pad{config: cfg}
		e.order = append(e.order, cfg.ID)
	}

	e.stats.bpm.Store(int64(e.tempo.BPM()))
	e.SetMasterVolume(opts.MasterVolume)
	return e
}

// Bus returns the master bus for the output backend to render
func (e *Engine) Bus() *audio.Bus {
	return e.bus
}

// Status returns the metrics registry the engine reports into
func (e *Engine) Status() *status.Registry {
	return e.statusReg
}

// SampleRate returns the engine rendering rate
func (e *Engine) SampleRate() beep.SampleRate {
	return e.sampleRate
}

// Changes delivers pad and master change notifications
// Sends never block; a slow observer misses intermediate changes and should re-read Snapshot
func (e *Engine) Changes() <-chan Change {
	return e.changes
}

// notify queues a change without blocking; caller holds mu
func (e *Engine) notify(padID string) {
	if !TrySend(e.changes, Change{PadID: padID}) {
		e.stats.notifyDropped.Add(1)
	}
}

// padLocked looks up a pad; caller holds mu
func (e *Engine) padLocked(padID string) (*pad, error) {
	p, ok := e.pads[padID]
	if !ok {
		return nil, fmt.Errorf("pad %q: %w", padID, ErrUnknownPad)
	}
	return p, nil
}

// Trigger starts playback, with an optional forced mode
// Empty pads are a silent no-op
func (e *Engine) Trigger(padID string, override *PlaybackMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.padLocked(padID)
	if err != nil {
		return err
	}
	e.trigger(padID, p, override)
	return nil
}

// TriggerOrToggle is the play button: a forced mode, or a retrigger pad that is
// already playing, restarts; any other playing pad stops; an idle pad starts
func (e *Engine) TriggerOrToggle(padID string, override *PlaybackMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.padLocked(padID)
	if err != nil {
		return err
	}
	if override != nil && !override.Valid() {
		override = nil
	}

	switch {
	case override != nil || (p.playing && p.config.IsRetrigger):
		e.trigger(padID, p, override)
	case p.playing:
		e.stop(padID, p, true)
	default:
		e.trigger(padID, p, nil)
	}
	return nil
}

// StopPad stops playback; idempotent
func (e *Engine) StopPad(padID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.padLocked(padID)
	if err != nil {
		return err
	}
	e.stop(padID, p, true)
	return nil
}

// StopAll stops every playing pad and finalizes every open pad capture
func (e *Engine) StopAll(ctx context.Context) error {
	e.mu.Lock()
	var recording []string
	for _, id := range e.order {
		p := e.pads[id]
		if p.playing {
			e.stop(id, p, true)
		}
		if p.recording {
			recording = append(recording, id)
		}
	}
	e.mu.Unlock()

	var errs []error
	for _, id := range recording {
		if err := e.StopRecording(ctx, id); err != nil && !errors.Is(err, ErrNotRecording) {
			log.Printf("[engine] stop all: %v", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UpdateConfig merges a partial config change
// Volume, rate and filter changes ramp the live stages
func (e *Engine) UpdateConfig(padID string, u PadUpdate) (PadState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.padLocked(padID)
	if err != nil {
		return PadState{}, err
	}
	if u.Empty() {
		return p.state(), nil
	}

	u.apply(&p.config)

	if u.Volume != nil {
		if g, ok := e.registry.Gain(padID); ok {
			g.RampTo(p.config.Volume)
		}
	}
	if u.PlaybackRate != nil && p.playing {
		if src := e.registry.Source(padID); src != nil {
			src.SetRate(p.config.PlaybackRate)
		}
	}
	if u.FXFilterVal != nil {
		e.registry.GetOrCreateFilter(padID).Apply(audio.MapFilter(p.config.FXFilterVal))
	}

	e.notify(padID)
	return p.state(), nil
}

// SetBPM sets the shared tempo, clamped to the valid range; running intervals keep their period
func (e *Engine) SetBPM(bpm int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	stored := e.tempo.Set(bpm)
	e.stats.bpm.Store(int64(stored))
	e.notify("")
	return stored
}

// BPM returns the shared tempo
func (e *Engine) BPM() int {
	return e.tempo.BPM()
}

// SetMasterVolume sets the master gain in [0, 1]
func (e *Engine) SetMasterVolume(v float64) {
	v = clamp(v, 0, 1, 1)
	e.bus.SetVolume(v)
	if old := e.stats.masterVolume.Swap(v); old != v {
		log.Printf("[engine] master volume %.2f -> %.2f", old, v)
	}
}

// MasterVolume returns the master gain
func (e *Engine) MasterVolume() float64 {
	return e.stats.masterVolume.Get()
}

// Pad returns one pad's state
func (e *Engine) Pad(padID string) (PadState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.padLocked(padID)
	if err != nil {
		return PadState{}, err
	}
	return p.state(), nil
}

// Snapshot returns every pad's state in configuration order
func (e *Engine) Snapshot() []PadState {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]PadState, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.pads[id].state())
	}
	return out
}

// Configs returns every pad's config in order, for saving a pad bank
func (e *Engine) Configs() []PadConfig {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]PadConfig, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.pads[id].config)
	}
	return out
}

// PadIDs returns pad ids in configuration order
func (e *Engine) PadIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.order...)
}

// Close stops all playback and timers and abandons open captures
func (e *Engine) Close() {
	e.mu.Lock()
	var sessions []*captureSession
	for _, id := range e.order {
		p := e.pads[id]
		e.stop(id, p, false)
		p.playing = false
		if p.capture != nil {
			sessions = append(sessions, p.capture)
			p.capture = nil
			p.recording = false
		}
	}
	if e.master != nil {
		e.bus.Detach(e.master.tap)
		e.master.tap.Drain()
		e.master = nil
		e.stats.masterRecording.Store(false)
	}
	e.mu.Unlock()

	for _, s := range sessions {
		s.abort()
	}
}
