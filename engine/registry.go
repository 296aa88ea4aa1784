package engine

import (
	"sync"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/voiceloop/audio"
)

// padChain is one pad's persistent signal path
type padChain struct {
	chain  *audio.Chain
	filter *audio.Filter
	gain   *audio.Gain
}

// Registry owns the per-pad filter and gain stages and their bus wiring
// A pad's chain is connected to the bus under its pad id exactly once
type Registry struct {
	mu     sync.Mutex
	bus    *audio.Bus
	sr     beep.SampleRate
	chains map[string]*padChain
}

// NewRegistry creates an empty registry feeding bus
func NewRegistry(bus *audio.Bus) *Registry {
	return &Registry{
		bus:    bus,
		sr:     bus.Format().SampleRate,
		chains: make(map[string]*padChain),
	}
}

// chainLocked returns the pad chain, creating and wiring it on first use; caller holds mu
func (r *Registry) chainLocked(padID string) *padChain {
	pc, ok := r.chains[padID]
	if !ok {
		pc = &padChain{chain: audio.NewChain()}
		r.chains[padID] = pc
	}
	// Connect is keyed by pad id, repeated calls are no-ops
	r.bus.Connect(padID, pc.chain)
	return pc
}

// GetOrCreateFilter returns the pad's filter stage, creating it open on first use
func (r *Registry) GetOrCreateFilter(padID string) *audio.Filter {
	r.mu.Lock()
	defer r.mu.Unlock()

	pc := r.chainLocked(padID)
	if pc.filter == nil {
		pc.filter = audio.NewFilter(r.sr)
		pc.chain.SetFilter(pc.filter)
	}
	return pc.filter
}

// GetOrCreateGain returns the pad's gain stage, creating it at unity on first use
func (r *Registry) GetOrCreateGain(padID string) *audio.Gain {
	r.mu.Lock()
	defer r.mu.Unlock()

	pc := r.chainLocked(padID)
	if pc.gain == nil {
		pc.gain = audio.NewGain(1, r.sr)
		pc.chain.SetGain(pc.gain)
	}
	return pc.gain
}

// Chain returns the pad's chain, creating and wiring it if needed
func (r *Registry) Chain(padID string) *audio.Chain {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chainLocked(padID).chain
}

// Filter returns the pad's filter stage without creating it
func (r *Registry) Filter(padID string) (*audio.Filter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pc, ok := r.chains[padID]
	if !ok || pc.filter == nil {
		return nil, false
	}
	return pc.filter, true
}

// Gain returns the pad's gain stage without creating it
func (r *Registry) Gain(padID string) (*audio.Gain, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pc, ok := r.chains[padID]
	if !ok || pc.gain == nil {
		return nil, false
	}
	return pc.gain, true
}

// Source returns the pad's current source, nil if none is loaded
func (r *Registry) Source(padID string) *audio.Source {
	r.mu.Lock()
	pc, ok := r.chains[padID]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return pc.chain.Source()
}

// StopSource halts whatever source the pad is playing, keeping its stages wired
func (r *Registry) StopSource(padID string) bool {
	r.mu.Lock()
	pc, ok := r.chains[padID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	return pc.chain.Stop()
}

// ReleasePad disconnects and destroys the pad's stages; no-op if none exist
func (r *Registry) ReleasePad(padID string) {
	r.mu.Lock()
	pc, ok := r.chains[padID]
	delete(r.chains, padID)
	r.mu.Unlock()

	if !ok {
		return
	}
	r.bus.Disconnect(padID)
	pc.chain.Close()
}

// Len returns the number of pads holding stages
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chains)
}
