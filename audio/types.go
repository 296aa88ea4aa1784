package audio

import (
	"errors"
)

// BackendType identifies a CLI audio backend
type BackendType int

const (
	BackendPulse BackendType = iota
	BackendPipeWire
	BackendALSA
	BackendSoX
	BackendFFmpeg
	BackendOSS
)

// BackendDirection tells whether a backend plays or records
type BackendDirection int

const (
	DirectionPlayback BackendDirection = iota
	DirectionCapture
)

// BackendConfig describes a CLI audio backend
type BackendConfig struct {
	Type      BackendType
	Direction BackendDirection
	Name      string
	Path      string
	Args      []string
}

// Output backend names accepted by NewOutput
const (
	OutputSpeaker = "speaker"
	OutputPipe    = "pipe"
	OutputNone    = "none"
)

// Sentinel errors
var (
	ErrNoAudioBackend     = errors.New("no compatible audio backend found")
	ErrNoCaptureBackend   = errors.New("no compatible capture backend found")
	ErrPipeClosed         = errors.New("audio pipe closed")
	ErrDecode             = errors.New("cannot decode captured audio")
	ErrEmptyClip          = errors.New("captured clip is empty")
	ErrUnknownOutput      = errors.New("unknown output backend")
	ErrOutputRunning      = errors.New("audio output already running")
	ErrCaptureUnavailable = errors.New("capture device unavailable")
)
