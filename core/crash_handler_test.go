package core

import (
	"testing"
)

func TestHandleCrashRunsResetOnce(t *testing.T) {
	var exitCode int
	orig := exitFunc
	exitFunc = func(code int) { exitCode = code }
	defer func() { exitFunc = orig }()

	resets := 0
	SetCrashReset(func() { resets++ })

	HandleCrash("boom")
	HandleCrash("again")

	if resets != 1 {
		t.Errorf("Expected reset hook to run once, got %d", resets)
	}
	if exitCode != 1 {
		t.Errorf("Expected exit code 1, got %d", exitCode)
	}
}

func TestHandleCrashIgnoresNil(t *testing.T) {
	called := false
	SetCrashReset(func() { called = true })
	defer SetCrashReset(nil)

	HandleCrash(nil)
	if called {
		t.Error("Expected nil recovery value to be ignored")
	}
}
