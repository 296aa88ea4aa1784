package engine

import (
	"errors"
)

// Sentinel errors returned by boundary operations
var (
	ErrUnknownPad         = errors.New("unknown pad")
	ErrCaptureUnavailable = errors.New("capture device unavailable")
	ErrDecodeFailed       = errors.New("captured audio could not be decoded")
	ErrAlreadyRecording   = errors.New("pad is already recording")
	ErrMasterRecording    = errors.New("master recording already active")
	ErrNotRecording       = errors.New("not recording")
	ErrRecordingCancelled = errors.New("recording cancelled")
	ErrExportFailed       = errors.New("master export failed")
)
