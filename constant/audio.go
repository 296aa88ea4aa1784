package constant

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate    = 44100
	AudioChannels      = 2
	AudioBitDepth      = 16
	AudioBytesPerFrame = AudioChannels * (AudioBitDepth / 8) // 4 bytes
)

// Audio Engine Timing
const (
	// AudioBufferDuration determines latency and pipe pump tick rate
	AudioBufferDuration = 50 * time.Millisecond

	// AudioDrainTimeout bounds how long a stopping backend process may linger
	AudioDrainTimeout = 100 * time.Millisecond

	// CaptureChunkBytes is the read size for input capture streams
	CaptureChunkBytes = 4096

	// ResampleQuality is passed to beep resamplers (1-64, 4 is beep's sweet spot)
	ResampleQuality = 4
)

// Parameter smoothing
const (
	// RampTimeConstant is the exponential approach time constant for live
	// parameter changes (gain, rate, filter frequency and resonance)
	RampTimeConstant = 100 * time.Millisecond
)

// Filter sweep limits
const (
	FilterOpenFreq      = 22000.0
	FilterOpenQ         = 0.1
	FilterLowPassMin    = 100.0
	FilterLowPassMax    = 20000.0
	FilterHighPassMin   = 20.0
	FilterHighPassMax   = 8000.0
	FilterResonanceBase = 1.0
	FilterResonanceGain = 2.0
)
