package audio

import (
	"os"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/lixenwraith/voiceloop/constant"
)

// backendSpec is a candidate CLI tool and its raw PCM16 stereo argument list
type backendSpec struct {
	typ  BackendType
	name string
	bin  string
	args func(rate string) []string
}

// Playback priority: pacat > pw-cat > aplay > play (sox) > ffplay > OSS
var playbackSpecs = []backendSpec{
	{BackendPulse, "pacat", "pacat", func(r string) []string {
		return []string{"--raw", "--format=s16le", "--rate=" + r, "--channels=2", "--latency-msec=50", "--playback"}
	}},
	{BackendPipeWire, "pw-cat", "pw-cat", func(r string) []string {
		return []string{"--playback", "--format=s16", "--rate=" + r, "--channels=2", "--latency=50ms", "-"}
	}},
	{BackendALSA, "aplay", "aplay", func(r string) []string {
		return []string{"-t", "raw", "-f", "S16_LE", "-r", r, "-c", "2", "-q"}
	}},
	{BackendSoX, "sox", "play", func(r string) []string {
		return []string{"-t", "raw", "-e", "signed", "-b", "16", "-c", "2", "-r", r, "-", "-d", "-q"}
	}},
	{BackendFFmpeg, "ffplay", "ffplay", func(r string) []string {
		return []string{"-nodisp", "-autoexit", "-f", "s16le", "-ac", "2", "-ar", r,
			"-probesize", "32", "-analyzeduration", "0", "-i", "pipe:0", "-loglevel", "quiet"}
	}},
}

// Capture priority mirrors playback: parec > pw-record > arecord > rec (sox) > ffmpeg
var captureSpecs = []backendSpec{
	{BackendPulse, "parec", "parec", func(r string) []string {
		return []string{"--raw", "--format=s16le", "--rate=" + r, "--channels=2", "--latency-msec=50"}
	}},
	{BackendPipeWire, "pw-record", "pw-record", func(r string) []string {
		return []string{"--format=s16", "--rate=" + r, "--channels=2", "-"}
	}},
	{BackendALSA, "arecord", "arecord", func(r string) []string {
		return []string{"-t", "raw", "-f", "S16_LE", "-r", r, "-c", "2", "-q"}
	}},
	{BackendSoX, "rec", "rec", func(r string) []string {
		return []string{"-q", "-t", "raw", "-e", "signed", "-b", "16", "-c", "2", "-r", r, "-"}
	}},
	{BackendFFmpeg, "ffmpeg", "ffmpeg", func(r string) []string {
		return []string{"-loglevel", "quiet", "-f", "pulse", "-i", "default",
			"-f", "s16le", "-ac", "2", "-ar", r, "pipe:1"}
	}},
}

func specsFor(dir BackendDirection) []backendSpec {
	if dir == DirectionCapture {
		return captureSpecs
	}
	return playbackSpecs
}

func resolve(spec backendSpec, dir BackendDirection, sampleRate int) (*BackendConfig, bool) {
	path, err := exec.LookPath(spec.bin)
	if err != nil {
		return nil, false
	}
	return &BackendConfig{
		Type:      spec.typ,
		Direction: dir,
		Name:      spec.name,
		Path:      path,
		Args:      spec.args(strconv.Itoa(sampleRate)),
	}, true
}

func normalizeRate(sampleRate int) int {
	if sampleRate <= 0 {
		return constant.AudioSampleRate
	}
	return sampleRate
}

// DetectBackend searches for an available playback backend
func DetectBackend(sampleRate int) (*BackendConfig, error) {
	sampleRate = normalizeRate(sampleRate)
	for _, spec := range playbackSpecs {
		if cfg, ok := resolve(spec, DirectionPlayback, sampleRate); ok {
			return cfg, nil
		}
	}

	// FreeBSD OSS (direct device write, no exec needed)
	if runtime.GOOS == "freebsd" {
		if _, err := os.Stat("/dev/dsp"); err == nil {
			return &BackendConfig{
				Type: BackendOSS,
				Name: "oss",
				Path: "/dev/dsp",
			}, nil
		}
	}

	return nil, ErrNoAudioBackend
}

// DetectCaptureBackend searches for an available recording backend
func DetectCaptureBackend(sampleRate int) (*BackendConfig, error) {
	sampleRate = normalizeRate(sampleRate)
	for _, spec := range captureSpecs {
		if cfg, ok := resolve(spec, DirectionCapture, sampleRate); ok {
			return cfg, nil
		}
	}
	return nil, ErrNoCaptureBackend
}

// FindBackend resolves a backend by name; "auto" or "" falls back to detection
func FindBackend(name string, dir BackendDirection, sampleRate int) (*BackendConfig, error) {
	if name == "" || name == "auto" {
		if dir == DirectionCapture {
			return DetectCaptureBackend(sampleRate)
		}
		return DetectBackend(sampleRate)
	}

	sampleRate = normalizeRate(sampleRate)
	for _, spec := range specsFor(dir) {
		if spec.name != name {
			continue
		}
		if cfg, ok := resolve(spec, dir, sampleRate); ok {
			return cfg, nil
		}
		break
	}

	if dir == DirectionCapture {
		return nil, ErrNoCaptureBackend
	}
	return nil, ErrNoAudioBackend
}

// ListBackends returns every installed backend for the given direction, in priority order
func ListBackends(dir BackendDirection, sampleRate int) []BackendConfig {
	sampleRate = normalizeRate(sampleRate)
	var found []BackendConfig
	for _, spec := range specsFor(dir) {
		if cfg, ok := resolve(spec, dir, sampleRate); ok {
			found = append(found, *cfg)
		}
	}
	return found
}

// String returns the backend family name
func (t BackendType) String() string {
	switch t {
	case BackendPulse:
		return "pulse"
	case BackendPipeWire:
		return "pipewire"
	case BackendALSA:
		return "alsa"
	case BackendSoX:
		return "sox"
	case BackendFFmpeg:
		return "ffmpeg"
	case BackendOSS:
		return "oss"
	default:
		return "unknown"
	}
}
