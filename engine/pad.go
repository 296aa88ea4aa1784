package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/voiceloop/constant"
)

// PlaybackMode is the timing discipline used when a pad is triggered
type PlaybackMode string

const (
	ModeOneShot  PlaybackMode = "ONE_SHOT"
	ModeLoop     PlaybackMode = "LOOP"
	ModeInterval PlaybackMode = "INTERVAL"
)

// Valid reports whether m is a known mode
func (m PlaybackMode) Valid() bool {
	switch m {
	case ModeOneShot, ModeLoop, ModeInterval:
		return true
	}
	return false
}

// ParseMode accepts mode names case-insensitively, with '-' or '_'
func ParseMode(s string) (PlaybackMode, error) {
	m := PlaybackMode(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if m == "ONESHOT" {
		m = ModeOneShot
	}
	if !m.Valid() {
		return "", fmt.Errorf("unknown playback mode %q", s)
	}
	return m, nil
}

// PadConfig is the user-editable part of a pad
type PadConfig struct {
	ID              string       `yaml:"id" json:"id"`
	Label           string       `yaml:"label" json:"label"`
	Key             string       `yaml:"key" json:"key"`
	Color           string       `yaml:"color" json:"color"`
	Volume          float64      `yaml:"volume" json:"volume"`
	PlaybackMode    PlaybackMode `yaml:"playback_mode" json:"playbackMode"`
	IntervalSeconds float64      `yaml:"interval_seconds" json:"intervalSeconds"`
	UseBeats        bool         `yaml:"use_beats" json:"useBeats"`
	BeatAmount      float64      `yaml:"beat_amount" json:"beatAmount"`
	IsRetrigger     bool         `yaml:"is_retrigger" json:"isRetrigger"`
	PlaybackRate    float64      `yaml:"playback_rate" json:"playbackRate"`
	FXFilterVal     float64      `yaml:"fx_filter_val" json:"fxFilterVal"`
}

// Clamp forces every numeric field into its valid range
func (c *PadConfig) Clamp() {
	c.Volume = clamp(c.Volume, constant.MinVolume, constant.MaxVolume, constant.DefaultVolume)
	c.PlaybackRate = clamp(c.PlaybackRate, constant.MinPlaybackRate, constant.MaxPlaybackRate, constant.DefaultPlaybackRate)
	c.FXFilterVal = clamp(c.FXFilterVal, constant.MinFilterVal, constant.MaxFilterVal, 0)
	c.IntervalSeconds = clamp(c.IntervalSeconds, 0, constant.MaxIntervalSeconds, 0)
	if c.IntervalSeconds > 0 && c.IntervalSeconds < constant.MinIntervalSeconds {
		c.IntervalSeconds = constant.MinIntervalSeconds
	}
	c.BeatAmount = clamp(c.BeatAmount, 0, constant.MaxBeatAmount, 0)
	if !c.PlaybackMode.Valid() {
		c.PlaybackMode = ModeOneShot
	}
}

// clamp bounds v to [lo, hi]; NaN becomes def
func clamp(v, lo, hi, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PadUpdate is a partial config change; nil fields are left untouched
type PadUpdate struct {
	Label           *string       `json:"label,omitempty"`
	Key             *string       `json:"key,omitempty"`
	Color           *string       `json:"color,omitempty"`
	Volume          *float64      `json:"volume,omitempty"`
	PlaybackMode    *PlaybackMode `json:"playbackMode,omitempty"`
	IntervalSeconds *float64      `json:"intervalSeconds,omitempty"`
	UseBeats        *bool         `json:"useBeats,omitempty"`
	BeatAmount      *float64      `json:"beatAmount,omitempty"`
	IsRetrigger     *bool         `json:"isRetrigger,omitempty"`
	PlaybackRate    *float64      `json:"playbackRate,omitempty"`
	FXFilterVal     *float64      `json:"fxFilterVal,omitempty"`
}

// Empty reports whether the update changes nothing
func (u PadUpdate) Empty() bool {
	return u == PadUpdate{}
}

// apply merges u into c and clamps the result
func (u PadUpdate) apply(c *PadConfig) {
	if u.Label != nil {
		c.Label = *u.Label
	}
	if u.Key != nil {
		c.Key = *u.Key
	}
	if u.Color != nil {
		c.Color = *u.Color
	}
	if u.Volume != nil {
		c.Volume = *u.Volume
	}
	if u.PlaybackMode != nil {
		c.PlaybackMode = *u.PlaybackMode
	}
	if u.IntervalSeconds != nil {
		c.IntervalSeconds = *u.IntervalSeconds
	}
	if u.UseBeats != nil {
		c.UseBeats = *u.UseBeats
	}
	if u.BeatAmount != nil {
		c.BeatAmount = *u.BeatAmount
	}
	if u.IsRetrigger != nil {
		c.IsRetrigger = *u.IsRetrigger
	}
	if u.PlaybackRate != nil {
		c.PlaybackRate = *u.PlaybackRate
	}
	if u.FXFilterVal != nil {
		c.FXFilterVal = *u.FXFilterVal
	}
	c.Clamp()
}

// PadState is a point-in-time view of a pad for observers
type PadState struct {
	PadConfig
	IsRecording bool `json:"isRecording"`
	IsPlaying   bool `json:"isPlaying"`
	HasAudio    bool `json:"hasAudio"`
}

// pad is the engine-owned runtime record; all fields guarded by Engine.mu
type pad struct {
	config PadConfig

	clip      *beep.Buffer
	playing   bool
	mode      PlaybackMode // Effective mode of the current play
	timer     TimerHandle
	timerGen  uint64 // Bumped whenever the interval timer is cancelled
	gen       uint64 // Bumped on every new source
	clearGen  uint64 // Bumped on every clear
	recording bool
	arming    bool // Input device is being opened
	capture   *captureSession
}

func (p *pad) state() PadState {
	return PadState{
		PadConfig:   p.config,
		IsRecording: p.recording,
		IsPlaying:   p.playing,
		HasAudio:    p.clip != nil,
	}
}
