package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIsLockedNonexistentPath(t *testing.T) {
	g := NewGuard()
	if g.IsLocked(filepath.Join(t.TempDir(), "missing.txt")) {
		t.Error("nonexistent path should never report locked")
	}
}

func TestIsLockedPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	g := NewGuard()
	if g.IsLocked(path) {
		t.Error("unheld file should not report locked")
	}
}

func TestWaitForUnlockImmediatelyFree(t *testing.T) {
	sleeps := 0
	g := NewGuardWithHooks(
		func(string) bool { return false },
		func(time.Duration) { sleeps++ },
	)

	if !g.WaitForUnlock("any", 5, time.Second) {
		t.Fatal("expected immediate success")
	}
	if sleeps != 0 {
		t.Errorf("expected no sleeps, got %d", sleeps)
	}
}

func TestWaitForUnlockReleasedMidway(t *testing.T) {
	polls := 0
	sleeps := 0
	g := NewGuardWithHooks(
		func(string) bool {
			polls++
			return polls <= 2 // locked on the first two polls
		},
		func(time.Duration) { sleeps++ },
	)

	if !g.WaitForUnlock("any", 5, time.Second) {
		t.Fatal("expected success once the lock was released")
	}
	if polls != 3 {
		t.Errorf("expected 3 polls, got %d", polls)
	}
	if sleeps != 2 {
		t.Errorf("expected one sleep per failed poll, got %d", sleeps)
	}
}

func TestWaitForUnlockExhausted(t *testing.T) {
	polls := 0
	sleeps := 0
	g := NewGuardWithHooks(
		func(string) bool {
			polls++
			return true
		},
		func(time.Duration) { sleeps++ },
	)

	if g.WaitForUnlock("any", 4, time.Second) {
		t.Fatal("expected timeout")
	}
	if polls != 4 {
		t.Errorf("expected exactly 4 polls, got %d", polls)
	}
	// No sleep after the final poll.
	if sleeps != 3 {
		t.Errorf("expected 3 sleeps, got %d", sleeps)
	}
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	g := NewGuardWithHooks(nil, func(time.Duration) {})

	attempts := 0
	err := g.WithRetry(func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, 5, time.Second)

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetryReturnsLastErrorUnchanged(t *testing.T) {
	g := NewGuardWithHooks(nil, func(time.Duration) {})

	sentinel := errors.New("still failing")
	attempts := 0
	err := g.WithRetry(func() error {
		attempts++
		return sentinel
	}, 3, time.Second)

	if !errors.Is(err, sentinel) {
		t.Errorf("expected the underlying error back, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}
