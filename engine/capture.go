package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/voiceloop/audio"
	"github.com/lixenwraith/voiceloop/constant"
	"github.com/lixenwraith/voiceloop/core"
)

// captureSession accumulates PCM chunks from one open input stream
type captureSession struct {
	stream audio.InputStream

	mu     sync.Mutex
	chunks [][]byte
	size   int
	err    error

	closed atomic.Bool
	done   chan struct{}
}

func newCaptureSession(stream audio.InputStream) *captureSession {
	s := &captureSession{
		stream: stream,
		done:   make(chan struct{}),
	}
	core.Go(s.readLoop)
	return s
}

func (s *captureSession) readLoop() {
	defer close(s.done)

	buf := make([]byte, constant.CaptureChunkBytes)
	for {
		n, err := s.stream.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.mu.Lock()
			s.chunks = append(s.chunks, chunk)
			s.size += n
			s.mu.Unlock()
		}
		if err != nil {
			// Errors after Close are the expected way out
			if !errors.Is(err, io.EOF) && !s.closed.Load() {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
			return
		}
	}
}

// finish releases the input stream and returns everything captured
func (s *captureSession) finish() ([][]byte, error) {
	s.closed.Store(true)
	_ = s.stream.Close()
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	chunks := s.chunks
	s.chunks = nil
	return chunks, s.err
}

// abort releases the stream and drops the data
func (s *captureSession) abort() {
	s.finish()
}

// masterSession is an open capture of the master bus
type masterSession struct {
	tap     *audio.Tap
	started time.Time
}

// StartRecording opens the input device and begins capturing into padID
// Playback is stopped first. The device open runs without the engine lock
func (e *Engine) StartRecording(ctx context.Context, padID string) error {
	e.mu.Lock()
	p, err := e.padLocked(padID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if p.recording || p.arming {
		e.mu.Unlock()
		return fmt.Errorf("pad %s: %w", padID, ErrAlreadyRecording)
	}
	if p.playing {
		e.stop(padID, p, true)
	}
	p.arming = true
	epoch := p.clearGen
	e.mu.Unlock()

	stream, openErr := e.input.Open(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	p.arming = false

	if openErr != nil {
		e.stats.failures.Add(1)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("pad %s: %w", padID, ctxErr)
		}
		log.Printf("[capture] pad %s: open input: %v", padID, openErr)
		return fmt.Errorf("pad %s: %w: %v", padID, ErrCaptureUnavailable, openErr)
	}

	if p.clearGen != epoch {
		// Cleared while the device was opening
		core.Go(func() { _ = stream.Close() })
		return fmt.Errorf("pad %s: %w", padID, ErrRecordingCancelled)
	}

	p.capture = newCaptureSession(stream)
	p.recording = true
	e.stats.sessions.Add(1)
	e.notify(padID)
	return nil
}

// StopRecording ends padID's capture, decodes it and installs the clip
// Decode failure keeps any previous clip. A clear during decode discards the result
func (e *Engine) StopRecording(ctx context.Context, padID string) error {
	e.mu.Lock()
	p, err := e.padLocked(padID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if !p.recording || p.capture == nil {
		e.mu.Unlock()
		return fmt.Errorf("pad %s: %w", padID, ErrNotRecording)
	}
	session := p.capture
	p.capture = nil
	p.recording = false
	epoch := p.clearGen
	e.notify(padID)
	e.mu.Unlock()

	chunks, readErr := session.finish()
	if readErr != nil {
		log.Printf("[capture] pad %s: input ended with error: %v", padID, readErr)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pad %s: %w", padID, err)
	}

	clip, decodeErr := audio.DecodePCM(session.stream.Format(), chunks, e.sampleRate)

	e.mu.Lock()
	defer e.mu.Unlock()

	if decodeErr != nil {
		e.stats.failures.Add(1)
		log.Printf("[capture] pad %s: %v", padID, decodeErr)
		e.notify(padID)
		return fmt.Errorf("pad %s: %w: %v", padID, ErrDecodeFailed, decodeErr)
	}
	if p.clearGen != epoch {
		log.Printf("[capture] pad %s: cleared during decode, clip discarded", padID)
		return nil
	}

	p.clip = clip
	e.notify(padID)
	return nil
}

// ToggleRecord starts recording on an idle pad and stops it on a recording one
func (e *Engine) ToggleRecord(ctx context.Context, padID string) error {
	e.mu.Lock()
	p, err := e.padLocked(padID)
	recording := err == nil && p.recording
	e.mu.Unlock()
	if err != nil {
		return err
	}

	if recording {
		return e.StopRecording(ctx, padID)
	}
	return e.StartRecording(ctx, padID)
}

// StartMasterRecording taps the master bus; only one master session may be open
func (e *Engine) StartMasterRecording() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.master != nil {
		return ErrMasterRecording
	}
	tap := audio.NewTap()
	e.bus.Attach(tap)
	e.master = &masterSession{tap: tap, started: e.clock.Now()}
	e.stats.sessions.Add(1)
	e.stats.masterRecording.Store(true)
	e.notify("")
	return nil
}

// StopMasterRecording closes the master session and exports it as a WAV artifact
// Returns the artifact name
func (e *Engine) StopMasterRecording() (string, error) {
	e.mu.Lock()
	if e.master == nil {
		e.mu.Unlock()
		return "", fmt.Errorf("master: %w", ErrNotRecording)
	}
	session := e.master
	e.master = nil
	e.bus.Detach(session.tap)
	chunks, frames := session.tap.Drain()
	name := fmt.Sprintf("%s-%d.wav", constant.MasterExportPrefix, e.clock.Now().UnixMilli())
	e.stats.masterRecording.Store(false)
	e.notify("")
	e.mu.Unlock()

	data := audio.AssembleWAV(audio.CaptureFormat(e.sampleRate), chunks)
	if err := e.exporter.Export(name, data); err != nil {
		e.stats.failures.Add(1)
		log.Printf("[capture] master export %s: %v", name, err)
		return name, fmt.Errorf("%w: %s: %v", ErrExportFailed, name, err)
	}
	e.stats.exports.Add(1)
	log.Printf("[capture] master exported %s (%d frames)", name, frames)
	return name, nil
}

// ToggleMasterRecord flips master capture; returns the artifact name when stopping
func (e *Engine) ToggleMasterRecord() (string, error) {
	if e.IsMasterRecording() {
		return e.StopMasterRecording()
	}
	return "", e.StartMasterRecording()
}

// IsMasterRecording reports whether the master bus is being captured
func (e *Engine) IsMasterRecording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.master != nil
}

// ClearPad stops playback and capture, drops the clip and tears down the chain
func (e *Engine) ClearPad(padID string) error {
	e.mu.Lock()
	p, err := e.padLocked(padID)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	session := p.capture
	p.capture = nil
	p.recording = false

	e.stop(padID, p, false)
	p.playing = false
	p.clip = nil
	p.clearGen++
	e.registry.ReleasePad(padID)
	e.notify(padID)
	e.mu.Unlock()

	if session != nil {
		session.abort()
	}
	return nil
}
