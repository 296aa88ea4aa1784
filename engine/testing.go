package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/voiceloop/audio"
	"github.com/lixenwraith/voiceloop/constant"
)

// FakeInput is an in-memory capture device for tests
// Every opened stream yields Data once, then blocks until closed
type FakeInput struct {
	mu      sync.Mutex
	Data    []byte
	Err     error
	Gate    chan struct{} // When set, Open blocks until it is closed
	Opening chan struct{} // When set, receives a value as Open begins
	OnClose func()        // Runs as a stream is closed, before the reader sees EOF
	Rate    beep.SampleRate
	opens   int
}

// SetData replaces the PCM delivered by subsequent streams
func (f *FakeInput) SetData(data []byte) {
	f.mu.Lock()
	f.Data = data
	f.mu.Unlock()
}

// Opens returns the number of successful opens
func (f *FakeInput) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

// Open implements audio.InputDevice
func (f *FakeInput) Open(ctx context.Context) (audio.InputStream, error) {
	f.mu.Lock()
	gate, opening := f.Gate, f.Opening
	f.mu.Unlock()

	if opening != nil {
		opening <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.opens++

	rate := f.Rate
	if rate == 0 {
		rate = beep.SampleRate(constant.AudioSampleRate)
	}
	return &fakeStream{
		r:       bytes.NewReader(f.Data),
		closed:  make(chan struct{}),
		onClose: f.OnClose,
		format:  audio.CaptureFormat(rate),
	}, nil
}

type fakeStream struct {
	r       *bytes.Reader
	closed  chan struct{}
	once    sync.Once
	onClose func()
	format  beep.Format
}

func (s *fakeStream) Read(p []byte) (int, error) {
	if s.r.Len() > 0 {
		return s.r.Read(p)
	}
	<-s.closed
	return 0, io.EOF
}

func (s *fakeStream) Close() error {
	s.once.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
		close(s.closed)
	})
	return nil
}

func (s *fakeStream) Format() beep.Format {
	return s.format
}

// MemoryExporter keeps exported artifacts in memory
type MemoryExporter struct {
	mu        sync.Mutex
	Err       error
	artifacts map[string][]byte
	names     []string
}

// Export implements Exporter
func (m *MemoryExporter) Export(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.artifacts == nil {
		m.artifacts = make(map[string][]byte)
	}
	m.artifacts[name] = append([]byte(nil), data...)
	m.names = append(m.names, name)
	return nil
}

// Names returns exported artifact names in order
func (m *MemoryExporter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.names...)
}

// Artifact returns an exported artifact by name
func (m *MemoryExporter) Artifact(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.artifacts[name]
	return data, ok
}

// SyncDispatch runs completion handlers inline on the rendering goroutine
func SyncDispatch(fn func()) {
	fn()
}

// TestPads returns n pads with ids pad-1..pad-n in ONE_SHOT mode
func TestPads(n int) []PadConfig {
	pads := make([]PadConfig, n)
	for i := range pads {
		pads[i] = PadConfig{
			ID:              fmt.Sprintf("pad-%d", i+1),
			Label:           fmt.Sprintf("Pad %d", i+1),
			Volume:          constant.DefaultVolume,
			PlaybackMode:    ModeOneShot,
			IntervalSeconds: constant.DefaultIntervalSeconds,
			UseBeats:        true,
			BeatAmount:      constant.DefaultBeatAmount,
			PlaybackRate:    constant.DefaultPlaybackRate,
		}
	}
	return pads
}

// TestPCM returns frames of constant-level stereo PCM16
func TestPCM(frames int, level float64) []byte {
	samples := make([][2]float64, frames)
	for i := range samples {
		samples[i] = [2]float64{level, level}
	}
	return audio.EncodePCM16(samples)
}

// TestHarness bundles an engine with its fakes
type TestHarness struct {
	Engine   *Engine
	Input    *FakeInput
	Exporter *MemoryExporter
	Clock    *MockTimeProvider
}

// NewTestHarness builds an engine with n pads, a fake input, in-memory export,
// a manual clock and synchronous completion dispatch
func NewTestHarness(n int) *TestHarness {
	h := &TestHarness{
		Input:    &FakeInput{Data: TestPCM(4410, 0.5)},
		Exporter: &MemoryExporter{},
		Clock:    NewMockTimeProvider(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	h.Engine = New(Options{
		Pads:     TestPads(n),
		Input:    h.Input,
		Exporter: h.Exporter,
		Clock:    h.Clock,
		Dispatch: SyncDispatch,
	})
	return h
}

// Load records the harness input into padID
func (h *TestHarness) Load(padID string) error {
	ctx := context.Background()
	if err := h.Engine.StartRecording(ctx, padID); err != nil {
		return err
	}
	return h.Engine.StopRecording(ctx, padID)
}

// Render pulls frames through the master bus in output-sized blocks
func (h *TestHarness) Render(frames int) {
	block := make([][2]float64, 512)
	for frames > 0 {
		n := len(block)
		if frames < n {
			n = frames
		}
		h.Engine.Bus().Stream(block[:n])
		frames -= n
	}
}
