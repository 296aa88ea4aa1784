package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/voiceloop/constant"
	"github.com/lixenwraith/voiceloop/engine"
	"github.com/lixenwraith/voiceloop/input"
)

// grid places pads in fixed-height cells, row-major
type grid struct {
	cols  int
	rows  int
	cellW int
	cellH int
	top   int
}

// layoutGrid fits pads into width; narrow terminals get fewer columns
func layoutGrid(width, pads int) grid {
	cols := constant.PadGridColumns
	if pads < cols {
		cols = pads
	}
	if cols < 1 {
		cols = 1
	}
	for cols > 1 && width/cols < constant.PadCellMinWidth {
		cols--
	}
	return grid{
		cols:  cols,
		rows:  (pads + cols - 1) / cols,
		cellW: width / cols,
		cellH: constant.PadCellHeight,
		top:   constant.GridTop,
	}
}

// origin returns the top-left corner of pad i
func (g grid) origin(i int) (int, int) {
	return (i % g.cols) * g.cellW, g.top + (i/g.cols)*g.cellH
}

// padAt returns the pad index under (x, y), or -1
func (g grid) padAt(x, y, pads int) int {
	if g.cellW <= 0 || x < 0 || y < g.top {
		return -1
	}
	col := x / g.cellW
	row := (y - g.top) / g.cellH
	if col >= g.cols || row >= g.rows {
		return -1
	}
	if i := row*g.cols + col; i < pads {
		return i
	}
	return -1
}

func stateGlyph(st engine.PadState) rune {
	switch {
	case st.IsRecording:
		return '●'
	case st.IsPlaying:
		return '▶'
	case st.HasAudio:
		return '■'
	}
	return '·'
}

func modeLabel(cfg engine.PadConfig) string {
	switch cfg.PlaybackMode {
	case engine.ModeLoop:
		return "LOOP"
	case engine.ModeInterval:
		if cfg.UseBeats {
			return fmt.Sprintf("EVERY %gb", cfg.BeatAmount)
		}
		return fmt.Sprintf("EVERY %gs", cfg.IntervalSeconds)
	}
	return "ONCE"
}

// ui draws the pad grid and status lines and turns mouse presses into intents
type ui struct {
	screen  tcell.Screen
	engine  *engine.Engine
	machine *input.Machine

	grid        grid
	padIDs      []string
	lastButtons tcell.ButtonMask

	message   string
	messageAt time.Time
	isError   bool
}

func newUI(screen tcell.Screen, e *engine.Engine, m *input.Machine) *ui {
	return &ui{screen: screen, engine: e, machine: m}
}

// setMessage shows msg on the status line until it times out
func (u *ui) setMessage(msg string, isErr bool, now time.Time) {
	u.message = msg
	u.messageAt = now
	u.isError = isErr
}

// mouseIntent reports presses only: left toggles or records, right stops
// Ctrl with a left press forces INTERVAL
func (u *ui) mouseIntent(ev *tcell.EventMouse) *input.Intent {
	buttons := ev.Buttons()
	pressed := buttons &^ u.lastButtons
	u.lastButtons = buttons
	if pressed == 0 {
		return nil
	}

	x, y := ev.Position()
	i := u.grid.padAt(x, y, len(u.padIDs))
	if i < 0 {
		return nil
	}
	id := u.padIDs[i]

	switch {
	case pressed&tcell.Button1 != 0:
		return &input.Intent{Type: input.IntentPadClick, PadID: id, Interval: ev.Modifiers()&tcell.ModCtrl != 0}
	case pressed&tcell.Button2 != 0:
		return &input.Intent{Type: input.IntentPad, PadID: id, Stop: true}
	}
	return nil
}

func (u *ui) draw(now time.Time) {
	u.screen.Clear()
	width, height := u.screen.Size()

	states := u.engine.Snapshot()
	u.grid = layoutGrid(width, len(states))
	u.padIDs = u.padIDs[:0]
	for i, st := range states {
		u.padIDs = append(u.padIDs, st.ID)
		x, y := u.grid.origin(i)
		u.drawPad(x, y, u.grid.cellW, st)
	}

	u.drawTitle(width)
	if height > 2 {
		u.drawStatus(height-2, width, now)
		drawText(u.screen, 0, height-1, width, tcell.StyleDefault.Dim(true),
			" key play  ^key interval  Key stop  .key rec  ⌫key clear  space stop all  tab master rec  ^S save  ^C quit")
	}
	u.screen.Show()
}

func (u *ui) drawTitle(width int) {
	style := tcell.StyleDefault.Bold(true)
	title := fmt.Sprintf(" voiceloop   BPM %d   VOL %d%%", u.engine.BPM(), int(u.engine.MasterVolume()*100+0.5))
	x := drawText(u.screen, 0, 0, width, style, title)
	if u.engine.IsMasterRecording() {
		x = drawText(u.screen, x, 0, width, style.Foreground(tcell.ColorRed), "   ● MASTER REC")
	}
	if cmd := u.machine.GetPendingCommand(); cmd != "" {
		drawText(u.screen, x, 0, width, style.Foreground(tcell.ColorYellow), "   "+cmd)
	}
}

func (u *ui) drawStatus(y, width int, now time.Time) {
	if u.message == "" || now.Sub(u.messageAt) > constant.StatusMessageTimeout {
		return
	}
	style := tcell.StyleDefault
	if u.isError {
		style = style.Foreground(tcell.ColorRed)
	}
	drawText(u.screen, 0, y, width, style, " "+u.message)
}

func (u *ui) drawPad(x, y, w int, st engine.PadState) {
	if w < 3 {
		return
	}
	color := tcell.GetColor(st.Color)
	border := tcell.StyleDefault.Foreground(color)
	body := tcell.StyleDefault
	switch {
	case st.IsRecording:
		body = body.Foreground(tcell.ColorRed).Bold(true)
	case st.IsPlaying:
		border = border.Bold(true)
		body = body.Foreground(color).Bold(true)
	case !st.HasAudio:
		body = body.Dim(true)
	}

	inner := w - 3
	edge := strings.Repeat("─", inner)
	drawText(u.screen, x, y, x+w, border, "┌"+edge+"┐")
	drawText(u.screen, x, y+3, x+w, border, "└"+edge+"┘")
	for row := 1; row <= 2; row++ {
		u.screen.SetContent(x, y+row, '│', nil, border)
		u.screen.SetContent(x+w-2, y+row, '│', nil, border)
	}

	drawText(u.screen, x+1, y+1, x+w-2, body, fmt.Sprintf("%c %s %s", stateGlyph(st), st.Key, st.Label))
	drawText(u.screen, x+1, y+2, x+w-2, body.Dim(!st.IsPlaying), " "+modeLabel(st.PadConfig))
}

// drawText writes s from x, stopping before limit, and returns the next column
func drawText(s tcell.Screen, x, y, limit int, style tcell.Style, text string) int {
	for _, r := range text {
		if x >= limit {
			break
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
