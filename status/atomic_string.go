package status

import (
	"sync/atomic"
)

// AtomicString holds a backend name, port or address for lock-free reads
// Zero value is ready to use (empty string)
type AtomicString struct {
	ptr atomic.Pointer[string]
}

// Store replaces the value
func (s *AtomicString) Store(val string) {
	s.ptr.Store(&val)
}

// Load returns the current value
func (s *AtomicString) Load() string {
	if p := s.ptr.Load(); p != nil {
		return *p
	}
	return ""
}
