// Package main is the voiceloop command: a terminal pad sampler with an optional HTTP API
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	bankPath   string
	keysPath   string
	outputName string
	midiPort   string
	listenAddr string
	withAPI    bool
	debugLog   bool

	logFile *os.File
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "voiceloop",
	Short: "Record, loop and layer short clips from the terminal",
	Long: `voiceloop is a multi-pad live sampler. Each pad records a clip from the
input device and plays it back as a one-shot, a loop or on a tempo-synced
interval, mixed into a master output that can itself be recorded.

Examples:
  voiceloop                    # open the pad grid
  voiceloop --api              # pad grid plus the HTTP API
  voiceloop serve --listen :8765
  voiceloop devices`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRun:  func(cmd *cobra.Command, args []string) { logFile = setupLogging(debugLog) },
	PersistentPostRun: func(cmd *cobra.Command, args []string) { closeLogging(logFile) },
	RunE:              runPlay,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine headless behind the HTTP API",
	RunE:  runServe,
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio backends and MIDI input ports",
	RunE:  runDevices,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.config/voiceloop/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&bankPath, "bank", "b", "", "Pad bank file (default ~/.config/voiceloop/bank.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputName, "output", "", "Output backend: speaker, pipe or none")
	rootCmd.PersistentFlags().StringVar(&midiPort, "midi", "", "MIDI input port name (substring match)")
	rootCmd.PersistentFlags().StringVar(&listenAddr, "listen", "", "HTTP API listen address")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Write logs to logs/voiceloop.log")

	// Play flags
	rootCmd.Flags().StringVarP(&keysPath, "keys", "k", "", "Key binding overrides (yaml)")
	rootCmd.Flags().BoolVar(&withAPI, "api", false, "Serve the HTTP API alongside the pad grid")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(devicesCmd)
}
