package core

import (
	"fmt"
	"os"
	"runtime/debug"
)

// exitFunc is swapped in tests
var exitFunc = os.Exit

// HandleCrash is the unified panic handler that resets the terminal and prints the stack trace
func HandleCrash(r any) {
	if r == nil {
		return
	}

	runCrashReset()

	os.Stdout.Sync()
	os.Stderr.Sync()

	fmt.Fprintf(os.Stderr, "\n\x1b[31mCRASH DETECTED: %v\x1b[0m\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())

	os.Stderr.Sync()
	exitFunc(1)
}
