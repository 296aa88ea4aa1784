package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/gopxl/beep"
)

// InputStream is an open capture stream producing interleaved PCM16 LE frames
type InputStream interface {
	io.ReadCloser
	Format() beep.Format
}

// InputDevice opens capture streams
// Open may block (permission prompts, device start-up) and honors ctx cancellation
type InputDevice interface {
	Open(ctx context.Context) (InputStream, error)
}

// CommandInput captures from a CLI recorder writing raw PCM to stdout
type CommandInput struct {
	backend *BackendConfig
	format  beep.Format
}

// NewCommandInput creates an input device backed by the given capture backend
func NewCommandInput(backend *BackendConfig, sr beep.SampleRate) *CommandInput {
	return &CommandInput{backend: backend, format: CaptureFormat(sr)}
}

// Name returns the backend tool name
func (c *CommandInput) Name() string {
	if c.backend == nil {
		return "none"
	}
	return c.backend.Name
}

// Open starts the recorder process
func (c *CommandInput) Open(ctx context.Context) (InputStream, error) {
	if c.backend == nil {
		return nil, ErrNoCaptureBackend
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(c.backend.Path, c.backend.Args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCaptureUnavailable, c.backend.Name, err)
	}

	// Abort if the caller gave up while the process was starting
	if err := ctx.Err(); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	return &commandStream{cmd: cmd, stdout: stdout, format: c.format}, nil
}

// commandStream reads a recorder's stdout until closed
type commandStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	format beep.Format
	once   sync.Once
}

func (s *commandStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *commandStream) Format() beep.Format {
	return s.format
}

// Close kills the recorder and reaps it; safe to call more than once
func (s *commandStream) Close() error {
	s.once.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		_ = s.stdout.Close()
		_ = s.cmd.Wait()
	})
	return nil
}

// NoInput is a device that always refuses to open
type NoInput struct{}

// Open implements InputDevice
func (NoInput) Open(context.Context) (InputStream, error) {
	return nil, ErrNoCaptureBackend
}

// IsUnavailable reports whether err means the capture device could not be used
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrCaptureUnavailable) || errors.Is(err, ErrNoCaptureBackend)
}
