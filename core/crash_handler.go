package core

import (
	"sync"
)

var (
	resetMu   sync.Mutex
	resetHook func()
)

// SetCrashReset registers a cleanup run before the crash report is printed
// The terminal front-end uses it to restore the tty; nil clears it
func SetCrashReset(fn func()) {
	resetMu.Lock()
	resetHook = fn
	resetMu.Unlock()
}

// runCrashReset invokes the registered cleanup at most once
func runCrashReset() {
	resetMu.Lock()
	fn := resetHook
	resetHook = nil
	resetMu.Unlock()

	if fn != nil {
		fn()
	}
}

// Go runs a function in a new goroutine with panic recovery.
// Use this instead of the 'go' keyword to ensure terminal cleanup on crash.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
