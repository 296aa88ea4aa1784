package input

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/voiceloop/core"
	"github.com/lixenwraith/voiceloop/status"
)

// midiQueueSize bounds intents waiting for the dispatcher
const midiQueueSize = 64

// MIDIService wires a MIDI listener to a Dispatcher as a Service
// Intents are applied in arrival order on one goroutine; a missing port is not fatal
type MIDIService struct {
	dispatcher *Dispatcher
	portName   string
	notes      NoteMap

	listener *MIDIListener
	queue    chan *Intent
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex

	dropped  atomic.Int64
	failures atomic.Int64
	degraded atomic.Bool
}

// NewMIDIService creates a MIDI service; an empty portName leaves MIDI disabled
func NewMIDIService(d *Dispatcher, portName string, notes NoteMap) *MIDIService {
	return &MIDIService{dispatcher: d, portName: portName, notes: notes}
}

// Name implements Service
func (s *MIDIService) Name() string {
	return "midi"
}

// Dependencies implements Service
func (s *MIDIService) Dependencies() []string {
	return []string{"output"}
}

// Init implements Service
// args[0]: string - port name override
func (s *MIDIService) Init(args ...any) error {
	if len(args) > 0 {
		if name, ok := args[0].(string); ok && name != "" {
			s.portName = name
		}
	}
	return nil
}

// Start implements Service
func (s *MIDIService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.portName == "" || s.listener != nil {
		return nil
	}

	s.queue = make(chan *Intent, midiQueueSize)
	listener := NewMIDIListener(s.portName, s.notes, s.enqueue)
	if err := listener.Open(); err != nil {
		log.Printf("[midi] %v, continuing without MIDI", err)
		s.degraded.Store(true)
		return nil
	}
	s.listener = listener

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	core.Go(func() { s.run(ctx) })

	log.Printf("[midi] listening on %s", listener.PortName())
	return nil
}

func (s *MIDIService) enqueue(in *Intent) {
	select {
	case s.queue <- in:
	default:
		s.dropped.Add(1)
	}
}

func (s *MIDIService) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-s.queue:
			if err := s.dispatcher.Apply(ctx, in); err != nil && !errors.Is(err, context.Canceled) {
				s.failures.Add(1)
				log.Printf("[midi] %s: %v", in.PadID, err)
			}
		}
	}
}

// Stop implements Service
func (s *MIDIService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	s.cancel()
	<-s.done
	s.listener = nil
	return err
}

// IsDegraded returns true if a configured port could not be opened
func (s *MIDIService) IsDegraded() bool {
	return s.degraded.Load()
}

// Report implements service.Reporter
func (s *MIDIService) Report(reg *status.Registry) {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	port := ""
	var received int64
	if listener != nil {
		port = listener.PortName()
		received = listener.Received()
	}
	reg.Strings.Get("midi.port").Store(port)
	reg.Ints.Get("midi.notes").Store(received)
	reg.Ints.Get("midi.dropped").Store(s.dropped.Load())
	reg.Ints.Get("midi.failures").Store(s.failures.Load())
	reg.Bools.Get("midi.degraded").Store(s.IsDegraded())
}
