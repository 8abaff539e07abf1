// Package logger prints pipeline diagnostics for the ByggQA CLI.
// Debug, Info and Section narrate the indexing and query pipelines
// and are gated behind the --verbose flag; Warn reports degradations
// (search-tier fallbacks, failed steps, dropped work) and always
// prints so they are never silent.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables pipeline narration.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// SetOutput redirects log output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(gated bool, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if gated && !verbose {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

// Debug narrates fine-grained pipeline decisions.
func Debug(format string, args ...any) {
	logf(true, "[DEBUG] ", format, args...)
}

// Info reports pipeline milestones.
func Info(format string, args ...any) {
	logf(true, "[INFO] ", format, args...)
}

// Warn reports a degradation. Warnings print regardless of verbosity.
func Warn(format string, args ...any) {
	logf(false, "[WARN] ", format, args...)
}

// Section marks the start of a pipeline phase.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, "\n=== %s ===\n", name)
}

// Step reports a pipeline step outcome with its duration. Failures go
// through Warn; completions are verbose-only.
func Step(name string, d time.Duration, err error) {
	if err != nil {
		Warn("Step %s failed after %s: %v", name, d, err)
		return
	}
	Debug("Step %s completed in %s", name, d)
}
