package audio

import (
	"log"
	"sync/atomic"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/voiceloop/status"
)

// OutputService wraps an Output as a Service
// Degrades to a discarding output when the configured backend is unavailable
type OutputService struct {
	config   *AudioConfig
	source   beep.Streamer
	output   Output
	degraded atomic.Bool
}

// NewService creates an output service rendering source
func NewService(cfg *AudioConfig, source beep.Streamer) *OutputService {
	if cfg == nil {
		cfg = DefaultAudioConfig()
	}
	return &OutputService{config: cfg, source: source}
}

// Name implements Service
func (s *OutputService) Name() string {
	return "output"
}

// Dependencies implements Service
func (s *OutputService) Dependencies() []string {
	return nil
}

// Init implements Service
// args[0]: string - output backend override (speaker|pipe|none)
func (s *OutputService) Init(args ...any) error {
	if len(args) > 0 {
		if name, ok := args[0].(string); ok && name != "" {
			s.config.Output = name
		}
	}

	out, err := NewOutput(s.config)
	if err != nil {
		return err
	}
	s.output = out
	return nil
}

// Start implements Service
// Falls back to a null output on failure (no error returned)
func (s *OutputService) Start() error {
	if s.output == nil {
		if err := s.Init(); err != nil {
			return err
		}
	}

	if err := s.output.Start(s.source); err != nil {
		log.Printf("[output] %s unavailable, rendering silently: %v", s.output.Name(), err)
		s.degraded.Store(true)
		s.output = NewNullOutput(beep.SampleRate(s.config.SampleRate), s.config.BufferDuration)
		return s.output.Start(s.source)
	}
	return nil
}

// Stop implements Service
func (s *OutputService) Stop() error {
	if s.output != nil {
		s.output.Stop()
	}
	return nil
}

// IsDegraded returns true if the configured output could not start
func (s *OutputService) IsDegraded() bool {
	return s.degraded.Load()
}

// OutputName returns the active output backend name
func (s *OutputService) OutputName() string {
	if s.output == nil {
		return ""
	}
	return s.output.Name()
}

// Report publishes the active backend into reg
func (s *OutputService) Report(reg *status.Registry) {
	reg.Strings.Get("output.backend").Store(s.OutputName())
	reg.Bools.Get("output.degraded").Store(s.IsDegraded())
}
