package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/voiceloop/constant"
	"github.com/lixenwraith/voiceloop/core"
	"github.com/lixenwraith/voiceloop/input"
)

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, bank, err := loadConfig()
	if err != nil {
		return err
	}
	keys, err := loadKeyTable(keysPath)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	screen.EnableMouse()
	core.SetCrashReset(screen.Fini)
	defer func() {
		core.SetCrashReset(nil)
		screen.Fini()
	}()

	rt, err := newApp(cfg, bank, withAPI)
	if err != nil {
		return err
	}
	if err := rt.start(cmd.Context()); err != nil {
		rt.stop()
		return err
	}
	defer rt.stop()

	p := newPlayer(screen, rt, keys)
	return p.run(cmd.Context())
}

// loadKeyTable merges a key override file onto the default bindings; empty path keeps defaults
func loadKeyTable(path string) (*input.KeyTable, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	override, err := input.LoadKeyConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return input.MergeKeyTable(input.DefaultKeyTable(), override), nil
}

// player owns the terminal loop: events in, intents to the engine, redraw on change
type player struct {
	screen     tcell.Screen
	app        *app
	machine    *input.Machine
	dispatcher *input.Dispatcher
	view       *ui
	keySig     string
}

func newPlayer(screen tcell.Screen, rt *app, keys *input.KeyTable) *player {
	configs := rt.engine.Configs()
	m := input.NewMachine(configs)
	if keys != nil {
		m.SetKeyTable(keys)
	}

	p := &player{
		screen:     screen,
		app:        rt,
		machine:    m,
		dispatcher: input.NewDispatcher(rt.engine),
		view:       newUI(screen, rt.engine, m),
	}
	p.keySig = p.keySignature()
	p.dispatcher.OnExport = func(name string) {
		p.view.setMessage("exported "+name, false, time.Now())
	}
	return p
}

func (p *player) run(ctx context.Context) error {
	changes, unsubscribe := p.app.feed.Subscribe()
	defer unsubscribe()

	events := make(chan tcell.Event, 64)
	core.Go(func() {
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	})

	ticker := time.NewTicker(constant.UIRefreshInterval)
	defer ticker.Stop()

	p.view.draw(time.Now())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !p.handle(ctx, ev) {
				return nil
			}
		case ch, ok := <-changes:
			if !ok {
				return nil
			}
			if ch.PadID != "" {
				p.syncKeys()
			}
		case <-ticker.C:
		}
		p.view.draw(time.Now())
	}
}

// handle applies one terminal event; false means quit
func (p *player) handle(ctx context.Context, ev tcell.Event) bool {
	var in *input.Intent
	if mouse, ok := ev.(*tcell.EventMouse); ok {
		in = p.view.mouseIntent(mouse)
	} else {
		in = p.machine.Process(ev)
	}
	if in == nil {
		return true
	}

	now := time.Now()
	switch in.Type {
	case input.IntentQuit:
		return false
	case input.IntentResize:
		p.screen.Sync()
	case input.IntentEscape:
		p.view.setMessage("", false, now)
	case input.IntentSaveBank:
		if err := p.app.saveBank(); err != nil {
			p.view.setMessage("save failed: "+err.Error(), true, now)
		} else {
			p.view.setMessage("pad bank saved", false, now)
		}
	default:
		if err := p.dispatcher.Apply(ctx, in); err != nil {
			log.Printf("[input] %v", err)
			p.view.setMessage(err.Error(), true, now)
		}
	}
	return true
}

// syncKeys rebinds pad shortcuts after a key was edited elsewhere
func (p *player) syncKeys() {
	sig := p.keySignature()
	if sig == p.keySig {
		return
	}
	p.keySig = sig
	p.machine.SetPads(p.app.engine.Configs())
}

func (p *player) keySignature() string {
	var b strings.Builder
	for _, cfg := range p.app.engine.Configs() {
		b.WriteString(cfg.ID)
		b.WriteByte('=')
		b.WriteString(cfg.Key)
		b.WriteByte(';')
	}
	return b.String()
}
