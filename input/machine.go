package input

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/voiceloop/engine"
)

// Machine is the input state machine
// Parses tcell events into semantic Intents
type Machine struct {
	state    InputState
	keyTable *KeyTable
	pads     padKeyMap

	// Command buffer for visual feedback
	cmdBuffer []rune
}

// NewMachine creates a machine bound to the pads' shortcut keys
func NewMachine(pads []engine.PadConfig) *Machine {
	return &Machine{
		state:     StateIdle,
		keyTable:  DefaultKeyTable(),
		pads:      newPadKeyMap(pads),
		cmdBuffer: make([]rune, 0, 4),
	}
}

// SetKeyTable replaces the key bindings
func (m *Machine) SetKeyTable(kt *KeyTable) {
	m.keyTable = kt
	m.Reset()
}

// SetPads rebuilds the pad shortcut index after a config change
func (m *Machine) SetPads(pads []engine.PadConfig) {
	m.pads = newPadKeyMap(pads)
	m.Reset()
}

// State returns the parser state
func (m *Machine) State() InputState {
	return m.state
}

// GetPendingCommand returns the current command buffer for UI display
func (m *Machine) GetPendingCommand() string {
	if len(m.cmdBuffer) == 0 {
		return ""
	}
	return string(m.cmdBuffer)
}

// Reset clears all pending state
func (m *Machine) Reset() {
	m.state = StateIdle
	m.cmdBuffer = m.cmdBuffer[:0]
}

// Process parses a tcell event and returns an Intent
// Returns nil if input is incomplete or unbound
func (m *Machine) Process(ev tcell.Event) *Intent {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		return &Intent{Type: IntentResize}
	case *tcell.EventKey:
		return m.processKey(ev)
	}
	return nil
}

func (m *Machine) processKey(ev *tcell.EventKey) *Intent {
	key := ev.Key()

	// Terminals with extended keyboard reporting send Ctrl+letter as a modified rune
	if key == tcell.KeyRune && ev.Modifiers()&tcell.ModCtrl != 0 {
		if r := unicode.ToLower(ev.Rune()); r >= 'a' && r <= 'z' {
			key = tcell.KeyCtrlA + tcell.Key(r-'a')
		}
	}

	if key != tcell.KeyRune {
		if entry, ok := m.keyTable.SpecialKeys[key]; ok {
			return m.handleEntry(entry, 0)
		}

		// Ctrl+letter on a pad key forces INTERVAL
		if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
			r := 'A' + rune(key-tcell.KeyCtrlA)
			if id, ok := m.pads[r]; ok {
				m.Reset()
				return &Intent{Type: IntentPad, PadID: id, Interval: true, Command: "^" + string(r)}
			}
		}
		m.Reset()
		return nil
	}

	r := ev.Rune()
	if m.state != StateIdle {
		return m.completePrefix(r)
	}

	if entry, ok := m.keyTable.Runes[r]; ok {
		return m.handleEntry(entry, r)
	}

	id, shifted, ok := m.pads.lookup(r)
	if !ok {
		return nil
	}
	mods := ev.Modifiers()
	return &Intent{
		Type:     IntentPad,
		PadID:    id,
		Stop:     shifted || mods&tcell.ModShift != 0,
		Interval: mods&tcell.ModCtrl != 0,
		Command:  string(r),
	}
}

func (m *Machine) handleEntry(entry KeyEntry, key rune) *Intent {
	switch entry.Behavior {
	case BehaviorPrefix:
		m.state = entry.State
		m.cmdBuffer = m.cmdBuffer[:0]
		if key == 0 {
			key = prefixGlyph(entry.State)
		}
		m.cmdBuffer = append(m.cmdBuffer, key)
		return nil

	case BehaviorSystem:
		// Escape first cancels a pending prefix
		if entry.IntentType == IntentEscape && m.state != StateIdle {
			m.Reset()
			return nil
		}
		m.Reset()
		return &Intent{Type: entry.IntentType}

	case BehaviorAction:
		m.Reset()
		return &Intent{Type: entry.IntentType, Delta: entry.Delta}
	}

	return nil
}

// completePrefix resolves the pad key following a prefix
func (m *Machine) completePrefix(r rune) *Intent {
	state := m.state
	m.cmdBuffer = append(m.cmdBuffer, r)
	cmd := string(m.cmdBuffer)
	m.Reset()

	id, _, ok := m.pads.lookup(r)
	if !ok {
		return nil
	}

	switch state {
	case StatePrefixInterval:
		return &Intent{Type: IntentPad, PadID: id, Interval: true, Command: cmd}
	case StatePrefixRecord:
		return &Intent{Type: IntentRecord, PadID: id, Command: cmd}
	case StatePrefixClear:
		return &Intent{Type: IntentClear, PadID: id, Command: cmd}
	}
	return nil
}

// prefixGlyph labels prefixes bound to non-printable keys
func prefixGlyph(state InputState) rune {
	switch state {
	case StatePrefixInterval:
		return 'i'
	case StatePrefixRecord:
		return 'r'
	case StatePrefixClear:
		return 'x'
	}
	return '?'
}
