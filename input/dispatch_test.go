package input

import (
	"context"
	"errors"
	"testing"

	"github.com/lixenwraith/voiceloop/engine"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *engine.TestHarness) {
	t.Helper()
	h := engine.NewTestHarness(4)
	t.Cleanup(h.Engine.Close)
	return NewDispatcher(h.Engine), h
}

func padState(t *testing.T, h *engine.TestHarness, padID string) engine.PadState {
	t.Helper()
	st, err := h.Engine.Pad(padID)
	if err != nil {
		t.Fatalf("Expected pad %s, got %v", padID, err)
	}
	return st
}

func TestDispatchPlainPressToggles(t *testing.T) {
	d, h := newTestDispatcher(t)
	ctx := context.Background()
	press := &Intent{Type: IntentPad, PadID: "pad-1"}

	// Empty pad: nothing happens
	if err := d.Apply(ctx, press); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if st := padState(t, h, "pad-1"); st.IsPlaying || st.IsRecording {
		t.Errorf("Expected empty pad to stay idle, got %+v", st)
	}

	if err := h.Load("pad-1"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	d.Apply(ctx, press)
	if !padState(t, h, "pad-1").IsPlaying {
		t.Error("Expected first press to start playback")
	}
	d.Apply(ctx, press)
	if padState(t, h, "pad-1").IsPlaying {
		t.Error("Expected second press to stop playback")
	}
}

func TestDispatchPlainPressFinishesRecording(t *testing.T) {
	d, h := newTestDispatcher(t)
	ctx := context.Background()

	if err := d.Apply(ctx, &Intent{Type: IntentRecord, PadID: "pad-2"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if !padState(t, h, "pad-2").IsRecording {
		t.Fatal("Expected pad to record")
	}

	if err := d.Apply(ctx, &Intent{Type: IntentPad, PadID: "pad-2"}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	st := padState(t, h, "pad-2")
	if st.IsRecording || st.IsPlaying || !st.HasAudio {
		t.Errorf("Expected recording finished without playback, got %+v", st)
	}
}

func TestDispatchStopPress(t *testing.T) {
	d, h := newTestDispatcher(t)
	ctx := context.Background()
	stop := &Intent{Type: IntentPad, PadID: "pad-1", Stop: true}

	h.Load("pad-1")
	d.Apply(ctx, &Intent{Type: IntentPad, PadID: "pad-1"})
	if err := d.Apply(ctx, stop); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if padState(t, h, "pad-1").IsPlaying {
		t.Error("Expected stop press to halt playback")
	}

	// Stop on an idle pad never starts anything
	d.Apply(ctx, stop)
	if padState(t, h, "pad-1").IsPlaying {
		t.Error("Expected stop press on idle pad to do nothing")
	}

	d.Apply(ctx, &Intent{Type: IntentRecord, PadID: "pad-3"})
	if err := d.Apply(ctx, &Intent{Type: IntentPad, PadID: "pad-3", Stop: true}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if st := padState(t, h, "pad-3"); st.IsRecording || !st.HasAudio {
		t.Errorf("Expected stop press to finish recording, got %+v", st)
	}
}

func TestDispatchIntervalPress(t *testing.T) {
	d, h := newTestDispatcher(t)
	ctx := context.Background()
	h.Load("pad-1")

	if err := d.Apply(ctx, &Intent{Type: IntentPad, PadID: "pad-1", Interval: true}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	st := padState(t, h, "pad-1")
	if !st.IsPlaying || st.PlaybackMode != engine.ModeInterval {
		t.Errorf("Expected INTERVAL playback written back, got %+v", st)
	}
	if h.Clock.Active() != 1 {
		t.Errorf("Expected 1 interval timer, got %d", h.Clock.Active())
	}
}

func TestDispatchClickRecordsEmptyPad(t *testing.T) {
	d, h := newTestDispatcher(t)
	ctx := context.Background()
	click := &Intent{Type: IntentPadClick, PadID: "pad-4"}

	d.Apply(ctx, click)
	if !padState(t, h, "pad-4").IsRecording {
		t.Fatal("Expected click on empty pad to start recording")
	}
	d.Apply(ctx, click)
	if st := padState(t, h, "pad-4"); st.IsRecording || !st.HasAudio {
		t.Fatalf("Expected second click to finish recording, got %+v", st)
	}
	d.Apply(ctx, click)
	if !padState(t, h, "pad-4").IsPlaying {
		t.Error("Expected click on loaded pad to play")
	}
}

func TestDispatchClear(t *testing.T) {
	d, h := newTestDispatcher(t)
	ctx := context.Background()
	h.Load("pad-2")

	if err := d.Apply(ctx, &Intent{Type: IntentClear, PadID: "pad-2"}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if padState(t, h, "pad-2").HasAudio {
		t.Error("Expected clear to drop audio")
	}
}

func TestDispatchStopAll(t *testing.T) {
	d, h := newTestDispatcher(t)
	ctx := context.Background()
	h.Load("pad-1")
	h.Load("pad-2")
	d.Apply(ctx, &Intent{Type: IntentPad, PadID: "pad-1"})
	d.Apply(ctx, &Intent{Type: IntentPad, PadID: "pad-2"})
	d.Apply(ctx, &Intent{Type: IntentRecord, PadID: "pad-3"})

	if err := d.Apply(ctx, &Intent{Type: IntentStopAll}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	for _, st := range h.Engine.Snapshot() {
		if st.IsPlaying || st.IsRecording {
			t.Errorf("Expected %s idle after stop all, got %+v", st.ID, st)
		}
	}
}

func TestDispatchMasterRecord(t *testing.T) {
	d, h := newTestDispatcher(t)
	ctx := context.Background()
	var exported string
	d.OnExport = func(name string) { exported = name }

	rec := &Intent{Type: IntentMasterRecord}
	d.Apply(ctx, rec)
	if !h.Engine.IsMasterRecording() {
		t.Fatal("Expected master recording to start")
	}
	if exported != "" {
		t.Errorf("Expected no export on start, got %q", exported)
	}

	if err := d.Apply(ctx, rec); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if exported != "voiceloop-mix-1735689600000.wav" {
		t.Errorf("Expected timestamped artifact, got %q", exported)
	}
	if _, ok := h.Exporter.Artifact(exported); !ok {
		t.Error("Expected artifact in exporter")
	}
}

func TestDispatchBPMAndVolume(t *testing.T) {
	d, h := newTestDispatcher(t)
	ctx := context.Background()

	d.Apply(ctx, &Intent{Type: IntentBPM, Delta: 10})
	if h.Engine.BPM() != 130 {
		t.Errorf("Expected bpm 130, got %d", h.Engine.BPM())
	}
	d.Apply(ctx, &Intent{Type: IntentBPM, Delta: 500})
	if h.Engine.BPM() != 200 {
		t.Errorf("Expected bpm clamped to 200, got %d", h.Engine.BPM())
	}

	d.Apply(ctx, &Intent{Type: IntentVolume, Delta: -50})
	if v := h.Engine.MasterVolume(); v < 0.49 || v > 0.51 {
		t.Errorf("Expected master volume 0.5, got %f", v)
	}
	d.Apply(ctx, &Intent{Type: IntentVolume, Delta: 100})
	if v := h.Engine.MasterVolume(); v != 1 {
		t.Errorf("Expected master volume clamped to 1, got %f", v)
	}
}

func TestDispatchUnknownPad(t *testing.T) {
	d, _ := newTestDispatcher(t)
	err := d.Apply(context.Background(), &Intent{Type: IntentPad, PadID: "nope"})
	if !errors.Is(err, engine.ErrUnknownPad) {
		t.Errorf("Expected ErrUnknownPad, got %v", err)
	}
}

func TestDispatchIgnoresSystemIntents(t *testing.T) {
	d, _ := newTestDispatcher(t)
	for _, typ := range []IntentType{IntentQuit, IntentResize, IntentSaveBank, IntentEscape} {
		if err := d.Apply(context.Background(), &Intent{Type: typ}); err != nil {
			t.Errorf("Expected nil for system intent %d, got %v", typ, err)
		}
	}
	if err := d.Apply(context.Background(), nil); err != nil {
		t.Errorf("Expected nil for nil intent, got %v", err)
	}
}
