package input

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrMIDIUnavailable is returned when the requested MIDI input cannot be opened
var ErrMIDIUnavailable = errors.New("midi input unavailable")

// NoteMap assigns consecutive MIDI notes to pads, starting at Base
type NoteMap struct {
	Base uint8
	Pads []string
}

// Pad returns the pad mapped to note
func (m NoteMap) Pad(note uint8) (string, bool) {
	if note < m.Base {
		return "", false
	}
	idx := int(note - m.Base)
	if idx >= len(m.Pads) {
		return "", false
	}
	return m.Pads[idx], true
}

// MIDIListener turns note-on messages from one input port into pad intents
// Velocity 127 acts as a Stop press; channel 10 notes force INTERVAL
type MIDIListener struct {
	portName string
	notes    NoteMap
	handler  func(*Intent)

	mu   sync.Mutex
	port drivers.In
	stop func()

	received atomic.Int64
}

// NewMIDIListener creates a listener for the first port whose name contains portName
func NewMIDIListener(portName string, notes NoteMap, handler func(*Intent)) *MIDIListener {
	return &MIDIListener{portName: portName, notes: notes, handler: handler}
}

// InPorts lists available MIDI input port names
func InPorts() []string {
	ports := gomidi.GetInPorts()
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.String())
	}
	return names
}

// Open starts listening; a second Open is a no-op
func (l *MIDIListener) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stop != nil {
		return nil
	}

	in, err := gomidi.FindInPort(l.portName)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrMIDIUnavailable, l.portName, err)
	}

	stop, err := gomidi.ListenTo(in, l.HandleMessage)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMIDIUnavailable, in.String(), err)
	}

	l.port = in
	l.stop = stop
	return nil
}

// PortName returns the opened port name, empty when closed
func (l *MIDIListener) PortName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.port == nil {
		return ""
	}
	return l.port.String()
}

// Received returns the number of mapped note-ons seen
func (l *MIDIListener) Received() int64 {
	return l.received.Load()
}

// HandleMessage maps one MIDI message; runs on the driver's goroutine
func (l *MIDIListener) HandleMessage(msg gomidi.Message, timestampms int32) {
	if in := l.Translate(msg); in != nil {
		l.received.Add(1)
		l.handler(in)
	}
}

// Translate converts a note-on into a pad intent, nil for anything else
func (l *MIDIListener) Translate(msg gomidi.Message) *Intent {
	var channel, key, velocity uint8
	if !msg.GetNoteOn(&channel, &key, &velocity) || velocity == 0 {
		return nil
	}
	id, ok := l.notes.Pad(key)
	if !ok {
		return nil
	}
	return &Intent{
		Type:     IntentPad,
		PadID:    id,
		Stop:     velocity == 127,
		Interval: channel == 9,
		Command:  fmt.Sprintf("note %d", key),
	}
}

// Close stops listening and closes the port; idempotent
func (l *MIDIListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stop == nil {
		return nil
	}
	l.stop()
	l.stop = nil

	var err error
	if l.port != nil && l.port.IsOpen() {
		err = l.port.Close()
	}
	l.port = nil
	return err
}
