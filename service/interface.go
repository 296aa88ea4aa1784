package service

import "github.com/lixenwraith/voiceloop/status"

// Service defines the lifecycle interface for infrastructure subsystems
// Services own long-lived resources around the engine: audio output, MIDI ports, the HTTP API
//
// Lifecycle:
//  1. Construction (via the package's New*)
//  2. Init(args...) - late configuration (e.g. from parsed flags)
//  3. Start() - open devices, launch goroutines
//  4. [runtime operation]
//  5. Stop() - halt goroutines, release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must start before this one
	Dependencies() []string

	// Init configures the service from optional args
	// Args are service-specific (output override, port name, listen address)
	Init(args ...any) error

	// Start begins service operation
	// Called after all services have initialized
	Start() error

	// Stop halts service operation and releases resources
	// Must be idempotent
	Stop() error
}

// Reporter is implemented by services that publish their state as status metrics
// Optional; services not implementing it are skipped by Hub.Report
type Reporter interface {
	Report(reg *status.Registry)
}
