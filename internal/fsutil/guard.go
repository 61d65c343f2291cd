// Package fsutil provides locked-file detection and retrying file operations
// for mutating an install tree that may still be partially in use.
package fsutil

import (
	"os"
	"time"
)

// Guard detects locked files and wraps file operations with a bounded
// retry policy. The zero value is not usable; create one with NewGuard.
type Guard struct {
	// probe reports whether a path is currently locked. Overridable in
	// tests to simulate lock/release sequences deterministically.
	probe func(path string) bool

	// sleep is called between polls and retry attempts.
	sleep func(d time.Duration)
}

// NewGuard creates a Guard backed by real filesystem probing.
func NewGuard() *Guard {
	return &Guard{
		probe: probeLocked,
		sleep: time.Sleep,
	}
}

// NewGuardWithHooks creates a Guard with injected probe and sleep functions (for testing).
func NewGuardWithHooks(probe func(string) bool, sleep func(time.Duration)) *Guard {
	g := NewGuard()
	if probe != nil {
		g.probe = probe
	}
	if sleep != nil {
		g.sleep = sleep
	}
	return g
}

// IsLocked reports whether the file at path is held by another process.
// Any OS-level denial of an exclusive read-write open counts as locked.
// A nonexistent path is never locked.
func (g *Guard) IsLocked(path string) bool {
	return g.probe(path)
}

// probeLocked attempts an exclusive open-for-read-write.
func probeLocked(path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return true
	}
	_ = f.Close()
	return false
}

// WaitForUnlock polls IsLocked at fixed intervals until the file is free or
// maxAttempts polls have been made. Returns true once unlocked, false after
// exhausting attempts. A timeout is a normal outcome, not an error.
func (g *Guard) WaitForUnlock(path string, maxAttempts int, delay time.Duration) bool {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if !g.IsLocked(path) {
			return true
		}
		if attempt < maxAttempts-1 {
			g.sleep(delay)
		}
	}
	return false
}

// WithRetry invokes op, retrying on failure up to maxAttempts total attempts
// with a fixed delay between them. The last underlying error is returned
// unchanged so callers can inspect it. Retries are uniform across error
// classes.
func (g *Guard) WithRetry(op func() error, maxAttempts int, delay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if lastErr = op(); lastErr == nil {
			return nil
		}
		if attempt < maxAttempts-1 {
			g.sleep(delay)
		}
	}
	return lastErr
}
