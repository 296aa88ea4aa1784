package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/voiceloop/api"
	"github.com/lixenwraith/voiceloop/audio"
	"github.com/lixenwraith/voiceloop/config"
	"github.com/lixenwraith/voiceloop/engine"
	"github.com/lixenwraith/voiceloop/input"
	"github.com/lixenwraith/voiceloop/service"
)

// app bundles the engine with its services for one command invocation
type app struct {
	cfg      *config.Config
	engine   *engine.Engine
	feed     *engine.Feed
	hub      *service.Hub
	bankPath string
	cancel   context.CancelFunc
}

// loadConfig reads the config file and applies command-line overrides
// A saved pad bank replaces the configured pads and tempo
func loadConfig() (*config.Config, string, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, "", err
	}

	if outputName != "" {
		cfg.Audio.Output = outputName
	}
	if midiPort != "" {
		cfg.MIDIPort = midiPort
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}

	bank := bankPath
	if bank == "" {
		if dir, err := config.ConfigDir(); err == nil {
			bank = filepath.Join(dir, "bank.yaml")
		}
	}
	if bank != "" {
		bpm, pads, err := config.LoadPadBank(bank)
		switch {
		case err == nil:
			cfg.Pads = pads
			if bpm != 0 {
				cfg.BPM = bpm
			}
			cfg.Normalize()
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, "", fmt.Errorf("pad bank: %w", err)
		}
	}

	return cfg, bank, nil
}

// captureDevice resolves the configured recorder; without one every capture is refused
func captureDevice(cfg *audio.AudioConfig) audio.InputDevice {
	backend, err := audio.FindBackend(cfg.CaptureBackend, audio.DirectionCapture, cfg.SampleRate)
	if err != nil {
		log.Printf("[capture] %v, recording disabled", err)
		return audio.NoInput{}
	}
	log.Printf("[capture] using %s", backend.Name)
	return audio.NewCommandInput(backend, beep.SampleRate(cfg.SampleRate))
}

// newRuntime builds the engine and registers output, MIDI and optionally the API
func newApp(cfg *config.Config, bank string, serveAPI bool) (*app, error) {
	e := engine.New(engine.Options{
		SampleRate:   beep.SampleRate(cfg.Audio.SampleRate),
		BPM:          cfg.BPM,
		MasterVolume: cfg.Audio.MasterVolume,
		Pads:         cfg.Pads,
		Input:        captureDevice(&cfg.Audio),
		Exporter:     engine.FileExporter{Dir: cfg.ExportDir},
	})

	rt := &app{
		cfg:      cfg,
		engine:   e,
		feed:     engine.NewFeed(e.Changes()),
		hub:      service.NewHub(),
		bankPath: bank,
	}

	notes := input.NoteMap{Base: cfg.MIDIBase, Pads: e.PadIDs()}
	services := []service.Service{
		audio.NewService(&cfg.Audio, e.Bus()),
		input.NewMIDIService(input.NewDispatcher(e), cfg.MIDIPort, notes),
	}
	if serveAPI {
		services = append(services, api.NewService(api.Options{
			Engine:   e,
			Feed:     rt.feed,
			Report:   rt.hub.Report,
			SaveBank: rt.saveBank,
		}, cfg.Listen))
	}
	for _, svc := range services {
		if err := rt.hub.Register(svc); err != nil {
			e.Close()
			return nil, err
		}
	}
	return rt, nil
}

// start runs the change feed and every service in dependency order
func (rt *app) start(ctx context.Context) error {
	ctx, rt.cancel = context.WithCancel(ctx)
	rt.feed.Start(ctx)

	if err := rt.hub.InitAll(); err != nil {
		rt.cancel()
		return err
	}
	if err := rt.hub.StartAll(); err != nil {
		rt.cancel()
		return err
	}
	return nil
}

// stop halts services, then the engine and feed
func (rt *app) stop() {
	rt.hub.StopAll()
	rt.engine.Close()
	if rt.cancel != nil {
		rt.cancel()
		<-rt.feed.Done()
	}
}

// saveBank writes the current pad settings and tempo
func (rt *app) saveBank() error {
	if rt.bankPath == "" {
		return errors.New("no pad bank path")
	}
	if err := config.SavePadBank(rt.bankPath, rt.engine.BPM(), rt.engine.Configs()); err != nil {
		return err
	}
	log.Printf("[bank] saved %d pads to %s", len(rt.engine.PadIDs()), rt.bankPath)
	return nil
}
