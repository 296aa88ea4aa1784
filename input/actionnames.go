package input

// actionRegistry maps canonical action names to KeyEntry structs
// Used by the keymap config loader to resolve action strings to bindings
var actionRegistry map[string]KeyEntry

func init() {
	actionRegistry = buildActionRegistry()
}

func buildActionRegistry() map[string]KeyEntry {
	return map[string]KeyEntry{
		// Unbind sentinel
		"none": {},

		// System
		"quit":      {Behavior: BehaviorSystem, IntentType: IntentQuit},
		"escape":    {Behavior: BehaviorSystem, IntentType: IntentEscape},
		"save_bank": {Behavior: BehaviorSystem, IntentType: IntentSaveBank},

		// Transport
		"stop_all":      {Behavior: BehaviorSystem, IntentType: IntentStopAll},
		"master_record": {Behavior: BehaviorSystem, IntentType: IntentMasterRecord},

		// Tempo and level
		"bpm_up":      {Behavior: BehaviorAction, IntentType: IntentBPM, Delta: 1},
		"bpm_down":    {Behavior: BehaviorAction, IntentType: IntentBPM, Delta: -1},
		"bpm_up_10":   {Behavior: BehaviorAction, IntentType: IntentBPM, Delta: 10},
		"bpm_down_10": {Behavior: BehaviorAction, IntentType: IntentBPM, Delta: -10},
		"volume_up":   {Behavior: BehaviorAction, IntentType: IntentVolume, Delta: 5},
		"volume_down": {Behavior: BehaviorAction, IntentType: IntentVolume, Delta: -5},

		// Prefixes
		"prefix_interval": {Behavior: BehaviorPrefix, State: StatePrefixInterval},
		"prefix_record":   {Behavior: BehaviorPrefix, State: StatePrefixRecord},
		"prefix_clear":    {Behavior: BehaviorPrefix, State: StatePrefixClear},
	}
}

// ActionEntry resolves a canonical action name to its KeyEntry
// Returns zero KeyEntry and false if name is unknown
func ActionEntry(name string) (KeyEntry, bool) {
	entry, ok := actionRegistry[name]
	return entry, ok
}

// IsActionName returns true if name is a registered action
func IsActionName(name string) bool {
	_, ok := actionRegistry[name]
	return ok
}

// ActionNames returns all registered action names (for documentation/validation)
func ActionNames() []string {
	names := make([]string, 0, len(actionRegistry))
	for name := range actionRegistry {
		names = append(names, name)
	}
	return names
}
