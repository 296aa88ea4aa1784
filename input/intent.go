package input

// IntentType discriminates semantic actions
type IntentType uint8

const (
	IntentNone IntentType = iota

	// System-level intents
	IntentQuit     // Ctrl+C
	IntentEscape   // ESC with nothing pending
	IntentResize   // Terminal resize event
	IntentSaveBank // Ctrl+S

	// Pad intents
	IntentPad      // Pad key, with Stop/Interval modifiers
	IntentPadClick // Mouse press on a pad: record when empty
	IntentRecord   // Record prefix + pad key
	IntentClear    // Clear prefix + pad key

	// Global transport
	IntentStopAll      // Space
	IntentMasterRecord // Tab
	IntentBPM          // +/- (Delta in bpm)
	IntentVolume       // Up/Down (Delta in percent)
)

// Intent represents a parsed semantic action
// Pure data struct with no engine dependencies
type Intent struct {
	Type     IntentType
	PadID    string
	Stop     bool // Shift held: stop playback and recording
	Interval bool // Ctrl held or interval prefix: force INTERVAL
	Delta    int
	Command  string // Captured sequence for visual feedback
}
