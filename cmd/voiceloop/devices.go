package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/voiceloop/audio"
	"github.com/lixenwraith/voiceloop/input"
)

func runDevices(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	printBackends(out, "Playback backends", audio.ListBackends(audio.DirectionPlayback, cfg.Audio.SampleRate))
	printBackends(out, "Capture backends", audio.ListBackends(audio.DirectionCapture, cfg.Audio.SampleRate))
	printPorts(out, "MIDI inputs", input.InPorts())
	return nil
}

func printBackends(w io.Writer, title string, backends []audio.BackendConfig) {
	fmt.Fprintf(w, "%s:\n", title)
	if len(backends) == 0 {
		fmt.Fprintln(w, "  (none found)")
		return
	}
	for _, b := range backends {
		fmt.Fprintf(w, "  %-10s %-9s %s %s\n", b.Name, b.Type, b.Path, strings.Join(b.Args, " "))
	}
}

func printPorts(w io.Writer, title string, ports []string) {
	fmt.Fprintf(w, "%s:\n", title)
	if len(ports) == 0 {
		fmt.Fprintln(w, "  (none found)")
		return
	}
	for i, name := range ports {
		fmt.Fprintf(w, "  %d: %s\n", i, name)
	}
}
