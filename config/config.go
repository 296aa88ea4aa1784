package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/voiceloop/audio"
	"github.com/lixenwraith/voiceloop/constant"
	"github.com/lixenwraith/voiceloop/engine"
)

// Config is the main configuration structure
type Config struct {
	BPM       int                `yaml:"bpm"`
	ExportDir string             `yaml:"export_dir"`
	MIDIPort  string             `yaml:"midi_port,omitempty"` // Substring of the input port name, empty disables MIDI
	MIDIBase  uint8              `yaml:"midi_base_note"`      // Note mapped to the first pad
	Listen    string             `yaml:"listen"`              // HTTP API address
	Audio     audio.AudioConfig  `yaml:"audio"`
	Pads      []engine.PadConfig `yaml:"pads"`
}

// DefaultConfig returns a config with the stock 24-pad layout
func DefaultConfig() *Config {
	return &Config{
		BPM:       constant.DefaultBPM,
		ExportDir: defaultExportDir(),
		MIDIBase:  36,
		Listen:    "127.0.0.1:8765",
		Audio:     *audio.DefaultAudioConfig(),
		Pads:      DefaultPads(),
	}
}

func defaultExportDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "voiceloop")
	}
	return "."
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "voiceloop"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from the default path, or returns defaults if not found
// Environment overrides are applied in both cases
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := DefaultConfig()
		cfg.ApplyEnv()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path; a missing file yields defaults
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		// Keys absent from the file keep their defaults
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	cfg.Normalize()
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating parent directories
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from VOICELOOP_* environment variables
func (c *Config) ApplyEnv() {
	if bpm := os.Getenv("VOICELOOP_BPM"); bpm != "" {
		if val, err := strconv.Atoi(bpm); err == nil {
			c.BPM = val
		}
	}
	if dir := os.Getenv("VOICELOOP_EXPORT_DIR"); dir != "" {
		c.ExportDir = dir
	}
	if port := os.Getenv("VOICELOOP_MIDI_PORT"); port != "" {
		c.MIDIPort = port
	}
	if listen := os.Getenv("VOICELOOP_LISTEN"); listen != "" {
		c.Listen = listen
	}
	audio.LoadAudioConfig(&c.Audio)
}

// Normalize clamps values and fills anything missing with defaults
func (c *Config) Normalize() {
	if c.BPM < constant.MinBPM || c.BPM > constant.MaxBPM {
		c.BPM = constant.DefaultBPM
	}
	if c.ExportDir == "" {
		c.ExportDir = defaultExportDir()
	}
	c.Audio.Normalize()
	c.Pads = NormalizePads(c.Pads)
}
