package main

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/voiceloop/config"
	"github.com/lixenwraith/voiceloop/engine"
	"github.com/lixenwraith/voiceloop/input"
)

func TestLayoutGrid(t *testing.T) {
	g := layoutGrid(120, 24)
	if g.cols != 6 || g.rows != 4 || g.cellW != 20 {
		t.Errorf("Expected 6x4 grid of 20-wide cells, got %+v", g)
	}

	g = layoutGrid(35, 24)
	if g.cols != 3 || g.rows != 8 {
		t.Errorf("Expected 3 columns on a narrow terminal, got %+v", g)
	}

	g = layoutGrid(120, 2)
	if g.cols != 2 || g.rows != 1 {
		t.Errorf("Expected 2 columns for 2 pads, got %+v", g)
	}
}

func TestGridPadAt(t *testing.T) {
	g := layoutGrid(120, 8)

	tests := []struct {
		x, y int
		want int
	}{
		{0, 0, -1},   // title row
		{0, 1, 0},    // first cell
		{25, 2, 1},   // second column
		{0, 5, 6},    // second row
		{25, 5, 7},   // last pad
		{45, 5, -1},  // past the last pad
		{0, 100, -1}, // below the grid
	}
	for _, tt := range tests {
		if got := g.padAt(tt.x, tt.y, 8); got != tt.want {
			t.Errorf("padAt(%d, %d): expected %d, got %d", tt.x, tt.y, tt.want, got)
		}
	}

	x, y := g.origin(7)
	if g.padAt(x, y, 8) != 7 {
		t.Errorf("Expected origin of pad 7 to hit pad 7, got %d", g.padAt(x, y, 8))
	}
}

func TestStateGlyphAndModeLabel(t *testing.T) {
	st := engine.PadState{HasAudio: true, IsPlaying: true, IsRecording: true}
	if stateGlyph(st) != '●' {
		t.Errorf("Expected recording glyph to win, got %c", stateGlyph(st))
	}
	st.IsRecording = false
	if stateGlyph(st) != '▶' {
		t.Errorf("Expected playing glyph, got %c", stateGlyph(st))
	}
	if stateGlyph(engine.PadState{}) != '·' {
		t.Error("Expected empty glyph")
	}

	cfg := engine.PadConfig{PlaybackMode: engine.ModeInterval, UseBeats: true, BeatAmount: 4}
	if got := modeLabel(cfg); got != "EVERY 4b" {
		t.Errorf("Expected beat interval label, got %q", got)
	}
	cfg.UseBeats = false
	cfg.IntervalSeconds = 1.5
	if got := modeLabel(cfg); got != "EVERY 1.5s" {
		t.Errorf("Expected seconds interval label, got %q", got)
	}
	if got := modeLabel(engine.PadConfig{PlaybackMode: engine.ModeOneShot}); got != "ONCE" {
		t.Errorf("Expected ONCE, got %q", got)
	}
}

func newTestUI(t *testing.T, pads int) (*ui, tcell.SimulationScreen, *engine.TestHarness) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Screen init failed: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(120, 24)

	h := engine.NewTestHarness(pads)
	t.Cleanup(h.Engine.Close)
	m := input.NewMachine(h.Engine.Configs())
	return newUI(screen, h.Engine, m), screen, h
}

func screenText(screen tcell.SimulationScreen) string {
	cells, width, _ := screen.GetContents()
	var b strings.Builder
	for i, c := range cells {
		if len(c.Runes) > 0 {
			b.WriteRune(c.Runes[0])
		} else {
			b.WriteByte(' ')
		}
		if (i+1)%width == 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func TestUIDrawsPadsAndTitle(t *testing.T) {
	u, screen, h := newTestUI(t, 4)
	if err := h.Load("pad-2"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	u.draw(time.Now())
	text := screenText(screen)

	if !strings.Contains(text, "BPM 120") {
		t.Errorf("Expected BPM in title, got:\n%s", text)
	}
	for _, label := range []string{"Pad 1", "Pad 4"} {
		if !strings.Contains(text, label) {
			t.Errorf("Expected %q on screen", label)
		}
	}
	if !strings.Contains(text, "■") {
		t.Error("Expected loaded glyph for pad-2")
	}
	if len(u.padIDs) != 4 {
		t.Errorf("Expected 4 pad ids tracked, got %d", len(u.padIDs))
	}
}

func TestUIStatusMessageExpires(t *testing.T) {
	u, screen, _ := newTestUI(t, 2)
	now := time.Now()

	u.setMessage("pad bank saved", false, now)
	u.draw(now)
	if !strings.Contains(screenText(screen), "pad bank saved") {
		t.Error("Expected status message on screen")
	}

	u.draw(now.Add(10 * time.Second))
	if strings.Contains(screenText(screen), "pad bank saved") {
		t.Error("Expected status message to expire")
	}
}

func TestUIMouseIntent(t *testing.T) {
	u, _, _ := newTestUI(t, 4)
	u.draw(time.Now())

	x, y := u.grid.origin(2)
	in := u.mouseIntent(tcell.NewEventMouse(x+1, y+1, tcell.Button1, tcell.ModNone))
	if in == nil || in.Type != input.IntentPadClick || in.PadID != "pad-3" {
		t.Fatalf("Expected click on pad-3, got %+v", in)
	}

	// Held button is not a new press
	if in := u.mouseIntent(tcell.NewEventMouse(x+1, y+1, tcell.Button1, tcell.ModNone)); in != nil {
		t.Errorf("Expected no intent while held, got %+v", in)
	}
	u.mouseIntent(tcell.NewEventMouse(x+1, y+1, tcell.ButtonNone, tcell.ModNone))

	in = u.mouseIntent(tcell.NewEventMouse(x+1, y+1, tcell.Button1, tcell.ModCtrl))
	if in == nil || !in.Interval {
		t.Errorf("Expected ctrl-click to force interval, got %+v", in)
	}
	u.mouseIntent(tcell.NewEventMouse(x+1, y+1, tcell.ButtonNone, tcell.ModNone))

	in = u.mouseIntent(tcell.NewEventMouse(x+1, y+1, tcell.Button2, tcell.ModNone))
	if in == nil || in.Type != input.IntentPad || !in.Stop {
		t.Errorf("Expected right-click stop, got %+v", in)
	}
	u.mouseIntent(tcell.NewEventMouse(0, 0, tcell.ButtonNone, tcell.ModNone))

	if in := u.mouseIntent(tcell.NewEventMouse(0, 0, tcell.Button1, tcell.ModNone)); in != nil {
		t.Errorf("Expected no intent on the title row, got %+v", in)
	}
}

func TestDefaultPadsFitGrid(t *testing.T) {
	pads := config.DefaultPads()
	g := layoutGrid(120, len(pads))
	if g.rows*g.cols < len(pads) {
		t.Errorf("Expected grid to hold %d pads, got %dx%d", len(pads), g.cols, g.rows)
	}
}
