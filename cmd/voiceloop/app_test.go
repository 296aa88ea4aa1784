package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/voiceloop/api"
	"github.com/lixenwraith/voiceloop/audio"
	"github.com/lixenwraith/voiceloop/config"
	"github.com/lixenwraith/voiceloop/engine"
	"github.com/lixenwraith/voiceloop/service"
)

// withFlags isolates the command-line globals and HOME for one test
func withFlags(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	saved := []string{configPath, bankPath, keysPath, outputName, midiPort, listenAddr}
	t.Cleanup(func() {
		configPath, bankPath, keysPath = saved[0], saved[1], saved[2]
		outputName, midiPort, listenAddr = saved[3], saved[4], saved[5]
	})
	configPath, bankPath, keysPath, outputName, midiPort, listenAddr = "", "", "", "", "", ""
	return home
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	home := withFlags(t)
	configPath = filepath.Join(home, "voiceloop.yaml")
	if err := os.WriteFile(configPath, []byte("bpm: 90\nlisten: 127.0.0.1:9000\n"), 0644); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	outputName = audio.OutputNone
	listenAddr = "127.0.0.1:0"

	cfg, bank, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.BPM != 90 {
		t.Errorf("Expected bpm from file, got %d", cfg.BPM)
	}
	if cfg.Audio.Output != audio.OutputNone || cfg.Listen != "127.0.0.1:0" {
		t.Errorf("Expected flag overrides, got output=%q listen=%q", cfg.Audio.Output, cfg.Listen)
	}
	if want := filepath.Join(home, ".config", "voiceloop", "bank.yaml"); bank != want {
		t.Errorf("Expected default bank path %s, got %s", want, bank)
	}
}

func TestLoadConfigUsesBank(t *testing.T) {
	home := withFlags(t)
	bankPath = filepath.Join(home, "bank.yaml")
	pads := config.DefaultPads()[:3]
	pads[0].Label = "Kick"
	if err := config.SavePadBank(bankPath, 140, pads); err != nil {
		t.Fatalf("SavePadBank failed: %v", err)
	}

	cfg, _, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.BPM != 140 || len(cfg.Pads) != 3 || cfg.Pads[0].Label != "Kick" {
		t.Errorf("Expected bank to replace pads and tempo, got bpm=%d pads=%d", cfg.BPM, len(cfg.Pads))
	}

	if err := os.WriteFile(bankPath, []byte("pads: ["), 0644); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, _, err := loadConfig(); err == nil {
		t.Error("Expected error for a corrupt bank")
	}
}

func TestLoadKeyTable(t *testing.T) {
	kt, err := loadKeyTable("")
	if err != nil || kt != nil {
		t.Errorf("Expected defaults for empty path, got %v, %v", kt, err)
	}

	path := filepath.Join(t.TempDir(), "keys.yaml")
	if err := os.WriteFile(path, []byte("keys:\n  \"!\": stop_all\n"), 0644); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	kt, err = loadKeyTable(path)
	if err != nil {
		t.Fatalf("loadKeyTable failed: %v", err)
	}
	if _, ok := kt.Runes['!']; !ok {
		t.Error("Expected override binding")
	}
	if _, ok := kt.Runes['.']; !ok {
		t.Error("Expected default bindings kept")
	}

	if _, err := loadKeyTable(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing key file")
	}
}

func TestAppLifecycle(t *testing.T) {
	home := withFlags(t)
	outputName = audio.OutputNone
	listenAddr = "127.0.0.1:0"

	cfg, bank, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	cfg.ExportDir = filepath.Join(home, "exports")

	rt, err := newApp(cfg, bank, true)
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	if err := rt.start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer rt.stop()

	want := []string{"output", "api", "midi"}
	names := rt.hub.Names()
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Expected services %v, got %v", want, names)
	}

	svc := service.MustGet[*api.Service](rt.hub, "api")
	resp, err := http.Post("http://"+svc.Addr()+"/api/v1/bank", "application/json", nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected bank save over the API, got %d", resp.StatusCode)
	}

	_, pads, err := config.LoadPadBank(bank)
	if err != nil {
		t.Fatalf("LoadPadBank failed: %v", err)
	}
	if len(pads) != len(cfg.Pads) {
		t.Errorf("Expected %d pads saved, got %d", len(cfg.Pads), len(pads))
	}

	reg := rt.engine.Status()
	rt.hub.Report(reg)
	if reg.Strings.Get("output.backend").Load() != audio.OutputNone {
		t.Errorf("Expected null output reported, got %q", reg.Strings.Get("output.backend").Load())
	}
}

func TestPrintBackendsAndPorts(t *testing.T) {
	var buf bytes.Buffer
	printBackends(&buf, "Capture backends", nil)
	printBackends(&buf, "Playback backends", []audio.BackendConfig{{Type: audio.BackendSoX, Name: "play", Path: "/usr/bin/play", Args: []string{"-q", "-"}}})
	printPorts(&buf, "MIDI inputs", []string{"Launchpad Mini"})

	out := buf.String()
	for _, want := range []string{"Capture backends:\n  (none found)", "play", "sox", "-q -", "0: Launchpad Mini"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestPlayerHandlesIntents(t *testing.T) {
	_, screen, h := newTestUI(t, 4)
	rt := &app{
		engine:   h.Engine,
		feed:     engine.NewFeed(h.Engine.Changes()),
		hub:      service.NewHub(),
		bankPath: filepath.Join(t.TempDir(), "bank.yaml"),
	}
	p := newPlayer(screen, rt, nil)
	ctx := context.Background()

	key := "1"
	if _, err := h.Engine.UpdateConfig("pad-1", engine.PadUpdate{Key: &key}); err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}
	p.syncKeys()
	if err := h.Load("pad-1"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !p.handle(ctx, tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone)) {
		t.Fatal("Expected pad key to keep running")
	}
	if st, _ := h.Engine.Pad("pad-1"); !st.IsPlaying {
		t.Errorf("Expected pad-1 playing, got %+v", st)
	}

	p.handle(ctx, tcell.NewEventKey(tcell.KeyCtrlS, 0, tcell.ModCtrl))
	if _, err := os.Stat(rt.bankPath); err != nil {
		t.Errorf("Expected bank saved by ctrl-s: %v", err)
	}

	// Errors surface on the status line instead of stopping the loop
	if !p.handle(ctx, tcell.NewEventKey(tcell.KeyRune, '.', tcell.ModNone)) {
		t.Fatal("Expected record prefix to keep running")
	}
	h.Input.Err = errors.New("device busy")
	p.handle(ctx, tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone))
	if !p.view.isError {
		t.Error("Expected capture failure on the status line")
	}

	if p.handle(ctx, tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)) {
		t.Error("Expected ctrl-c to quit")
	}
}
