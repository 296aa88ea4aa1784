package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/voiceloop/constant"
	"github.com/lixenwraith/voiceloop/engine"
)

// PadKeys are the default keyboard shortcuts, one per pad in grid order
const PadKeys = "1234QWERASDFZXCVGHJKBNM,"

// PadColors cycle across the grid; names are understood by tcell
var PadColors = []string{
	"red", "orange", "gold", "yellow",
	"lime", "green", "springgreen", "teal",
	"aqua", "deepskyblue", "blue", "indigo",
	"blueviolet", "purple", "fuchsia", "deeppink",
	"crimson", "slategray",
}

// DefaultPad returns the stock config of the pad at zero-based index i
func DefaultPad(i int) engine.PadConfig {
	mode := engine.ModeOneShot
	if i < constant.DefaultLoopPads {
		mode = engine.ModeLoop
	}
	key := ""
	if i < len(PadKeys) {
		key = string(PadKeys[i])
	}
	return engine.PadConfig{
		ID:              fmt.Sprintf("pad-%d", i+1),
		Label:           fmt.Sprintf("Pad %d", i+1),
		Key:             key,
		Color:           PadColors[i%len(PadColors)],
		Volume:          constant.DefaultVolume,
		PlaybackMode:    mode,
		IntervalSeconds: constant.DefaultIntervalSeconds,
		UseBeats:        true,
		BeatAmount:      constant.DefaultBeatAmount,
		IsRetrigger:     false,
		PlaybackRate:    constant.DefaultPlaybackRate,
		FXFilterVal:     0,
	}
}

// DefaultPads returns the full stock grid
func DefaultPads() []engine.PadConfig {
	pads := make([]engine.PadConfig, constant.PadCount)
	for i := range pads {
		pads[i] = DefaultPad(i)
	}
	return pads
}

// NormalizePads fills missing ids and labels, drops duplicate ids and clamps values
// An empty list yields the stock grid; entries past constant.PadCount are dropped
func NormalizePads(pads []engine.PadConfig) []engine.PadConfig {
	if len(pads) == 0 {
		return DefaultPads()
	}

	seen := make(map[string]bool, len(pads))
	out := make([]engine.PadConfig, 0, len(pads))
	for i, p := range pads {
		def := DefaultPad(i)
		if p.ID == "" {
			p.ID = def.ID
		}
		if seen[p.ID] {
			continue
		}
		if len(out) == constant.PadCount {
			log.Printf("[config] %d pads configured, keeping the first %d", len(pads), constant.PadCount)
			break
		}
		seen[p.ID] = true
		if p.Label == "" {
			p.Label = def.Label
		}
		if p.Color == "" {
			p.Color = def.Color
		}
		if p.PlaybackMode == "" {
			p.PlaybackMode = def.PlaybackMode
		}
		p.Clamp()
		out = append(out, p)
	}
	return out
}

// padBank is the on-disk layout of a saved pad bank
type padBank struct {
	BPM  int                `yaml:"bpm,omitempty"`
	Pads []engine.PadConfig `yaml:"pads"`
}

// SavePadBank writes pad settings (not clips) and tempo to path
func SavePadBank(path string, bpm int, pads []engine.PadConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(padBank{BPM: bpm, Pads: pads})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ErrEmptyBank is returned for a bank file without pads
var ErrEmptyBank = errors.New("pad bank has no pads")

// LoadPadBank reads a pad bank written by SavePadBank
// A zero bpm means the bank did not store one
func LoadPadBank(path string) (int, []engine.PadConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}
	var bank padBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return 0, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(bank.Pads) == 0 {
		return 0, nil, ErrEmptyBank
	}
	return bank.BPM, NormalizePads(bank.Pads), nil
}
