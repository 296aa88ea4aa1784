package audio

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/voiceloop/constant"
	"github.com/lixenwraith/voiceloop/core"
)

// Output renders a streamer to some sink until stopped
type Output interface {
	Name() string
	Start(s beep.Streamer) error
	Stop()
}

// NewOutput builds the named output backend
func NewOutput(cfg *AudioConfig) (Output, error) {
	sr := beep.SampleRate(cfg.SampleRate)
	switch cfg.Output {
	case OutputSpeaker, "":
		return &SpeakerOutput{sampleRate: sr, buffer: cfg.BufferDuration}, nil
	case OutputPipe:
		return &PipeOutput{sampleRate: sr, period: cfg.BufferDuration, backendName: cfg.PlaybackBackend}, nil
	case OutputNone:
		return NewNullOutput(sr, cfg.BufferDuration), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOutput, cfg.Output)
	}
}

// SpeakerOutput plays through beep/speaker (oto)
type SpeakerOutput struct {
	sampleRate beep.SampleRate
	buffer     time.Duration
	running    atomic.Bool
}

// Name implements Output
func (o *SpeakerOutput) Name() string {
	return OutputSpeaker
}

// Start implements Output
func (o *SpeakerOutput) Start(s beep.Streamer) error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrOutputRunning
	}
	if err := speaker.Init(o.sampleRate, o.sampleRate.N(o.buffer)); err != nil {
		o.running.Store(false)
		return fmt.Errorf("speaker init: %w", err)
	}
	speaker.Play(s)
	return nil
}

// Stop implements Output
func (o *SpeakerOutput) Stop() {
	if !o.running.CompareAndSwap(true, false) {
		return
	}
	speaker.Clear()
	speaker.Close()
}

// pump pulls fixed blocks from a streamer on a ticker and writes PCM16 to w
type pump struct {
	period     time.Duration
	sampleRate beep.SampleRate

	stopChan chan struct{}
	stopped  atomic.Bool
	done     chan struct{}
	errChan  chan error
}

func newPump(sr beep.SampleRate, period time.Duration) *pump {
	return &pump{
		period:     period,
		sampleRate: sr,
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
		errChan:    make(chan error, 1),
	}
}

func (p *pump) start(s beep.Streamer, w io.Writer) {
	core.Go(func() { p.loop(s, w) })
}

func (p *pump) loop(s beep.Streamer, w io.Writer) {
	defer close(p.done)

	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	frames := p.sampleRate.N(p.period)
	if frames <= 0 {
		frames = 1
	}
	mixBuf := make([][2]float64, frames)
	outBytes := make([]byte, frames*4)

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			n, ok := s.Stream(mixBuf)
			for i := n; i < len(mixBuf); i++ {
				mixBuf[i] = [2]float64{}
			}
			floatToBytes(mixBuf, outBytes)

			if _, err := w.Write(outBytes); err != nil {
				select {
				case p.errChan <- fmt.Errorf("%w: %v", ErrPipeClosed, err):
				default:
				}
				return
			}
			if !ok {
				return
			}
		}
	}
}

func (p *pump) stop() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.stopChan)
		<-p.done
	}
}

// PipeOutput writes raw PCM to a CLI player's stdin (or /dev/dsp on FreeBSD)
type PipeOutput struct {
	sampleRate  beep.SampleRate
	period      time.Duration
	backendName string

	mu      sync.Mutex
	backend *BackendConfig
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	ossFile *os.File
	pump    *pump
}

// Name implements Output
func (o *PipeOutput) Name() string {
	return OutputPipe
}

// Backend returns the detected backend, nil before Start
func (o *PipeOutput) Backend() *BackendConfig {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.backend
}

// Start implements Output
func (o *PipeOutput) Start(s beep.Streamer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pump != nil {
		return ErrOutputRunning
	}

	backend, err := FindBackend(o.backendName, DirectionPlayback, int(o.sampleRate))
	if err != nil {
		return err
	}

	var writer io.Writer
	if backend.Type == BackendOSS {
		f, err := os.OpenFile(backend.Path, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNoAudioBackend, err)
		}
		o.ossFile = f
		writer = f
	} else {
		cmd := exec.Command(backend.Path, backend.Args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNoAudioBackend, err)
		}
		if err := cmd.Start(); err != nil {
			stdin.Close()
			return fmt.Errorf("%w: %s: %v", ErrNoAudioBackend, backend.Name, err)
		}
		o.cmd = cmd
		o.stdin = stdin
		writer = stdin
	}

	o.backend = backend
	o.pump = newPump(o.sampleRate, o.period)
	o.pump.start(s, writer)
	return nil
}

// Errors reports pipe write failures
func (o *PipeOutput) Errors() <-chan error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pump == nil {
		return nil
	}
	return o.pump.errChan
}

// Stop implements Output
func (o *PipeOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pump == nil {
		return
	}
	o.pump.stop()
	o.pump = nil

	if o.stdin != nil {
		o.stdin.Close()
		o.stdin = nil
	}
	if o.ossFile != nil {
		o.ossFile.Close()
		o.ossFile = nil
	}
	if o.cmd != nil && o.cmd.Process != nil {
		// Closed stdin lets the player flush; kill it if it lingers
		cmd := o.cmd
		exited := make(chan struct{})
		go func() {
			_ = cmd.Wait()
			close(exited)
		}()
		select {
		case <-exited:
		case <-time.After(constant.AudioDrainTimeout):
			cmd.Process.Kill()
			<-exited
		}
		o.cmd = nil
	}
}

// NullOutput renders in real time and discards the result
// Keeps completions, intervals and master capture working without a sound device
type NullOutput struct {
	sampleRate beep.SampleRate
	period     time.Duration

	mu   sync.Mutex
	pump *pump
}

// NewNullOutput creates a discarding output
func NewNullOutput(sr beep.SampleRate, period time.Duration) *NullOutput {
	return &NullOutput{sampleRate: sr, period: period}
}

// Name implements Output
func (o *NullOutput) Name() string {
	return OutputNone
}

// Start implements Output
func (o *NullOutput) Start(s beep.Streamer) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pump != nil {
		return ErrOutputRunning
	}
	o.pump = newPump(o.sampleRate, o.period)
	o.pump.start(s, io.Discard)
	return nil
}

// Stop implements Output
func (o *NullOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pump != nil {
		o.pump.stop()
		o.pump = nil
	}
}
