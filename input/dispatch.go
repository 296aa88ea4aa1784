package input

import (
	"context"
	"log"

	"github.com/lixenwraith/voiceloop/engine"
)

// Controller is the engine surface the dispatcher drives
type Controller interface {
	Pad(padID string) (engine.PadState, error)
	TriggerOrToggle(padID string, override *engine.PlaybackMode) error
	StopPad(padID string) error
	ToggleRecord(ctx context.Context, padID string) error
	StopRecording(ctx context.Context, padID string) error
	StopAll(ctx context.Context) error
	ToggleMasterRecord() (string, error)
	ClearPad(padID string) error
	SetBPM(bpm int) int
	BPM() int
	SetMasterVolume(v float64)
	MasterVolume() float64
}

// Dispatcher applies pad and transport intents to a Controller
// System intents (quit, resize, save) are left to the caller
type Dispatcher struct {
	ctrl Controller

	// OnExport is called with the artifact name after a master recording is exported
	OnExport func(name string)
}

// NewDispatcher creates a dispatcher driving ctrl
func NewDispatcher(ctrl Controller) *Dispatcher {
	return &Dispatcher{ctrl: ctrl}
}

// Apply performs the intent, returning the engine's error if any
func (d *Dispatcher) Apply(ctx context.Context, in *Intent) error {
	if in == nil {
		return nil
	}

	switch in.Type {
	case IntentPad:
		return d.pressPad(ctx, in)

	case IntentPadClick:
		return d.clickPad(ctx, in)

	case IntentRecord:
		return d.ctrl.ToggleRecord(ctx, in.PadID)

	case IntentClear:
		return d.ctrl.ClearPad(in.PadID)

	case IntentStopAll:
		return d.ctrl.StopAll(ctx)

	case IntentMasterRecord:
		name, err := d.ctrl.ToggleMasterRecord()
		if err != nil {
			return err
		}
		if name != "" {
			log.Printf("[input] master recording exported: %s", name)
			if d.OnExport != nil {
				d.OnExport(name)
			}
		}
		return nil

	case IntentBPM:
		d.ctrl.SetBPM(d.ctrl.BPM() + in.Delta)
		return nil

	case IntentVolume:
		v := d.ctrl.MasterVolume() + float64(in.Delta)/100
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		d.ctrl.SetMasterVolume(v)
		return nil
	}

	return nil
}

// pressPad handles a pad shortcut
// Stop: halt playback and recording. Interval: forced INTERVAL restart.
// Plain: finish a recording in progress, else toggle playback.
func (d *Dispatcher) pressPad(ctx context.Context, in *Intent) error {
	st, err := d.ctrl.Pad(in.PadID)
	if err != nil {
		return err
	}

	switch {
	case in.Stop:
		if st.IsPlaying {
			if err := d.ctrl.StopPad(in.PadID); err != nil {
				return err
			}
		}
		if st.IsRecording {
			return d.ctrl.StopRecording(ctx, in.PadID)
		}
		return nil

	case in.Interval:
		mode := engine.ModeInterval
		return d.ctrl.TriggerOrToggle(in.PadID, &mode)

	case st.IsRecording:
		return d.ctrl.ToggleRecord(ctx, in.PadID)

	default:
		return d.ctrl.TriggerOrToggle(in.PadID, nil)
	}
}

// clickPad handles a pointer press on a pad: an empty pad starts recording
func (d *Dispatcher) clickPad(ctx context.Context, in *Intent) error {
	if in.Interval {
		mode := engine.ModeInterval
		return d.ctrl.TriggerOrToggle(in.PadID, &mode)
	}

	st, err := d.ctrl.Pad(in.PadID)
	if err != nil {
		return err
	}
	switch {
	case st.IsRecording, !st.HasAudio:
		return d.ctrl.ToggleRecord(ctx, in.PadID)
	default:
		return d.ctrl.TriggerOrToggle(in.PadID, nil)
	}
}
