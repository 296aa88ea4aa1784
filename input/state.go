package input

// InputState tracks the prefix parser state machine
type InputState uint8

const (
	StateIdle           InputState = iota // Default state, awaiting initial key
	StatePrefixInterval                   // After the interval prefix, awaiting a pad key
	StatePrefixRecord                     // After the record prefix, awaiting a pad key
	StatePrefixClear                      // After the clear prefix, awaiting a pad key
)
