package engine

import (
	"fmt"
	"os"
	"path/filepath"
)

// Exporter receives finished master recordings
type Exporter interface {
	Export(name string, data []byte) error
}

// ExporterFunc adapts a function to Exporter
type ExporterFunc func(name string, data []byte) error

// Export implements Exporter
func (f ExporterFunc) Export(name string, data []byte) error {
	return f(name, data)
}

// DiscardExporter drops artifacts
type DiscardExporter struct{}

// Export implements Exporter
func (DiscardExporter) Export(string, []byte) error {
	return nil
}

// FileExporter writes artifacts into Dir, creating it if needed
// Files are written to a temporary name and renamed so readers never see partial output
type FileExporter struct {
	Dir string
}

// Export implements Exporter
func (f FileExporter) Export(name string, data []byte) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return err
	}

	final := filepath.Join(f.Dir, name)
	tmp := final + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
