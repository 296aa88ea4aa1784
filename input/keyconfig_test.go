package input

import (
	"sort"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestLoadKeyConfig(t *testing.T) {
	data := []byte(`
keys:
  space: none
  o: stop_all
  ".": prefix_interval
special_keys:
  f5: master_record
  Ctrl-Q: quit
`)
	kt, err := LoadKeyConfig(data)
	if err != nil {
		t.Fatalf("LoadKeyConfig failed: %v", err)
	}

	if e := kt.Runes[' ']; e.Behavior != BehaviorNone {
		t.Errorf("Expected space unbind sentinel, got %+v", e)
	}
	if e := kt.Runes['o']; e.IntentType != IntentStopAll {
		t.Errorf("Expected o bound to stop_all, got %+v", e)
	}
	if e := kt.Runes['.']; e.State != StatePrefixInterval {
		t.Errorf("Expected . bound to interval prefix, got %+v", e)
	}
	if e := kt.SpecialKeys[tcell.KeyF5]; e.IntentType != IntentMasterRecord {
		t.Errorf("Expected F5 bound to master_record, got %+v", e)
	}
	if e := kt.SpecialKeys[tcell.KeyCtrlQ]; e.IntentType != IntentQuit {
		t.Errorf("Expected Ctrl-Q bound to quit, got %+v", e)
	}
}

func TestLoadKeyConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown action", "keys:\n  o: launch_rockets\n"},
		{"multi-char rune", "keys:\n  oo: stop_all\n"},
		{"unknown special", "special_keys:\n  hyper: quit\n"},
		{"malformed", "keys: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadKeyConfig([]byte(tt.data)); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}

func TestMergeKeyTable(t *testing.T) {
	override, err := LoadKeyConfig([]byte("keys:\n  space: none\n  o: stop_all\n"))
	if err != nil {
		t.Fatalf("LoadKeyConfig failed: %v", err)
	}

	base := DefaultKeyTable()
	merged := MergeKeyTable(base, override)

	if _, ok := merged.Runes[' ']; ok {
		t.Error("Expected space removed from merged table")
	}
	if merged.Runes['o'].IntentType != IntentStopAll {
		t.Error("Expected o bound in merged table")
	}
	if _, ok := base.Runes[' ']; !ok {
		t.Error("Expected base table untouched")
	}

	m := NewMachine(testPads())
	m.SetKeyTable(merged)
	if in := m.Process(runeKey(' ')); in != nil {
		t.Errorf("Expected unbound space to do nothing, got %+v", in)
	}
	if in := m.Process(runeKey('o')); in == nil || in.Type != IntentStopAll {
		t.Errorf("Expected o to stop all, got %+v", in)
	}
}

func TestActionNames(t *testing.T) {
	names := ActionNames()
	sort.Strings(names)
	for _, want := range []string{"none", "quit", "stop_all", "master_record", "prefix_record"} {
		idx := sort.SearchStrings(names, want)
		if idx >= len(names) || names[idx] != want {
			t.Errorf("Expected action %q registered", want)
		}
	}
	if IsActionName("fire_main") {
		t.Error("Expected fire_main not registered")
	}
}
