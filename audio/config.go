package audio

import (
	"os"
	"strconv"
	"time"

	"github.com/lixenwraith/voiceloop/constant"
)

// AudioConfig holds device and rendering settings
type AudioConfig struct {
	SampleRate      int           `yaml:"sample_rate"`
	Output          string        `yaml:"output"`           // speaker | pipe | none
	PlaybackBackend string        `yaml:"playback_backend"` // pipe output tool, "auto" to detect
	CaptureBackend  string        `yaml:"capture_backend"`  // recorder tool, "auto" to detect
	BufferDuration  time.Duration `yaml:"buffer_duration"`
	MasterVolume    float64       `yaml:"master_volume"` // 0.0-1.0
}

// DefaultAudioConfig returns the built-in audio settings
func DefaultAudioConfig() *AudioConfig {
	return &AudioConfig{
		SampleRate:      constant.AudioSampleRate,
		Output:          OutputSpeaker,
		PlaybackBackend: "auto",
		CaptureBackend:  "auto",
		BufferDuration:  constant.AudioBufferDuration,
		MasterVolume:    1.0,
	}
}

// LoadAudioConfig applies environment overrides on top of cfg
// A nil cfg starts from the defaults
func LoadAudioConfig(cfg *AudioConfig) *AudioConfig {
	if cfg == nil {
		cfg = DefaultAudioConfig()
	}

	if output := os.Getenv("VOICELOOP_OUTPUT"); output != "" {
		cfg.Output = output
	}

	// Master volume (0-100 converted to 0.0-1.0)
	if volume := os.Getenv("VOICELOOP_MASTER_VOLUME"); volume != "" {
		if val, err := strconv.Atoi(volume); err == nil {
			cfg.MasterVolume = clampFloat(float64(val)/100.0, 0, 1)
		}
	}

	if sampleRate := os.Getenv("VOICELOOP_SAMPLE_RATE"); sampleRate != "" {
		if val, err := strconv.Atoi(sampleRate); err == nil && val > 0 {
			cfg.SampleRate = val
		}
	}

	if capture := os.Getenv("VOICELOOP_CAPTURE"); capture != "" {
		cfg.CaptureBackend = capture
	}

	return cfg
}

// Normalize fills zero fields with defaults and clamps ranges
func (c *AudioConfig) Normalize() {
	def := DefaultAudioConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = def.SampleRate
	}
	if c.Output == "" {
		c.Output = def.Output
	}
	if c.PlaybackBackend == "" {
		c.PlaybackBackend = def.PlaybackBackend
	}
	if c.CaptureBackend == "" {
		c.CaptureBackend = def.CaptureBackend
	}
	if c.BufferDuration <= 0 {
		c.BufferDuration = def.BufferDuration
	}
	c.MasterVolume = clampFloat(c.MasterVolume, 0, 1)
}
