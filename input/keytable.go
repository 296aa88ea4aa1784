package input

import (
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/voiceloop/engine"
)

// KeyBehavior classifies how a key is processed
type KeyBehavior uint8

const (
	BehaviorNone   KeyBehavior = iota
	BehaviorSystem             // Emits IntentType directly
	BehaviorAction             // Emits IntentType with Delta
	BehaviorPrefix             // Moves the machine into State
)

// KeyEntry describes a key's behavior without function pointers
type KeyEntry struct {
	Behavior   KeyBehavior
	IntentType IntentType
	Delta      int
	State      InputState
}

// KeyTable maps keys to behaviors
// Pad keys are resolved separately from the pad configs and lose to any binding here
type KeyTable struct {
	// Special keys (Ctrl+*, arrows, function keys)
	SpecialKeys map[tcell.Key]KeyEntry

	// Printable bindings
	Runes map[rune]KeyEntry
}

// DefaultKeyTable returns the default key bindings
// Every rune bound here is absent from the default pad key row
func DefaultKeyTable() *KeyTable {
	return &KeyTable{
		SpecialKeys: map[tcell.Key]KeyEntry{
			tcell.KeyCtrlC:      {Behavior: BehaviorSystem, IntentType: IntentQuit},
			tcell.KeyCtrlS:      {Behavior: BehaviorSystem, IntentType: IntentSaveBank},
			tcell.KeyEscape:     {Behavior: BehaviorSystem, IntentType: IntentEscape},
			tcell.KeyTab:        {Behavior: BehaviorSystem, IntentType: IntentMasterRecord},
			tcell.KeyUp:         {Behavior: BehaviorAction, IntentType: IntentVolume, Delta: 5},
			tcell.KeyDown:       {Behavior: BehaviorAction, IntentType: IntentVolume, Delta: -5},
			tcell.KeyPgUp:       {Behavior: BehaviorAction, IntentType: IntentBPM, Delta: 10},
			tcell.KeyPgDn:       {Behavior: BehaviorAction, IntentType: IntentBPM, Delta: -10},
			tcell.KeyBackspace:  {Behavior: BehaviorPrefix, State: StatePrefixClear},
			tcell.KeyBackspace2: {Behavior: BehaviorPrefix, State: StatePrefixClear},
			tcell.KeyDelete:     {Behavior: BehaviorPrefix, State: StatePrefixClear},
		},

		Runes: map[rune]KeyEntry{
			' ': {Behavior: BehaviorSystem, IntentType: IntentStopAll},
			'+': {Behavior: BehaviorAction, IntentType: IntentBPM, Delta: 1},
			'=': {Behavior: BehaviorAction, IntentType: IntentBPM, Delta: 1},
			'-': {Behavior: BehaviorAction, IntentType: IntentBPM, Delta: -1},
			'_': {Behavior: BehaviorAction, IntentType: IntentBPM, Delta: -1},
			'i': {Behavior: BehaviorPrefix, State: StatePrefixInterval},
			'.': {Behavior: BehaviorPrefix, State: StatePrefixRecord},
		},
	}
}

// Clone returns a deep copy of the table
func (kt *KeyTable) Clone() *KeyTable {
	c := &KeyTable{
		SpecialKeys: make(map[tcell.Key]KeyEntry, len(kt.SpecialKeys)),
		Runes:       make(map[rune]KeyEntry, len(kt.Runes)),
	}
	for k, v := range kt.SpecialKeys {
		c.SpecialKeys[k] = v
	}
	for r, v := range kt.Runes {
		c.Runes[r] = v
	}
	return c
}

// shiftedRunes maps US-layout shifted symbols back to their base key
var shiftedRunes = map[rune]rune{
	'!': '1', '@': '2', '#': '3', '$': '4', '%': '5',
	'^': '6', '&': '7', '*': '8', '(': '9', ')': '0',
	'<': ',', '>': '.', '?': '/', ':': ';', '"': '\'',
}

// padKeyMap maps normalized (upper-case, unshifted) shortcut runes to pad ids
type padKeyMap map[rune]string

// newPadKeyMap indexes the first rune of each pad's Key
// Later pads never steal a key from an earlier one
func newPadKeyMap(pads []engine.PadConfig) padKeyMap {
	m := make(padKeyMap, len(pads))
	for _, p := range pads {
		key := strings.TrimSpace(p.Key)
		if key == "" {
			continue
		}
		r := unicode.ToUpper([]rune(key)[0])
		if _, taken := m[r]; !taken {
			m[r] = p.ID
		}
	}
	return m
}

// lookup resolves a typed rune, reporting whether shift produced it
func (m padKeyMap) lookup(r rune) (padID string, shifted bool, ok bool) {
	if base, isShifted := shiftedRunes[r]; isShifted {
		if id, found := m[base]; found {
			return id, true, true
		}
	}
	if unicode.IsUpper(r) {
		shifted = true
	}
	id, found := m[unicode.ToUpper(r)]
	return id, shifted, found
}
