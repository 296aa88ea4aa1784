package constant

import "time"

// Pad grid layout
const (
	PadGridColumns  = 6
	PadCellHeight   = 4
	PadCellMinWidth = 10

	// GridTop leaves room for the title row
	GridTop = 1
)

// UI timing
const (
	// UIRefreshInterval redraws meters and expires messages
	UIRefreshInterval = 100 * time.Millisecond

	// StatusMessageTimeout is how long a status message stays visible
	StatusMessageTimeout = 3 * time.Second
)
