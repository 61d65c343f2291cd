package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// LockedError reports a destination file that could not be freed within the
// retry budget. Holders lists the processes holding the lock when the
// platform could identify them.
type LockedError struct {
	Path    string
	Holders []LockHolder
}

func (e *LockedError) Error() string {
	if len(e.Holders) == 0 {
		return fmt.Sprintf("file %s is locked and cannot be replaced", e.Path)
	}
	return fmt.Sprintf("file %s is locked by %d process(es) and cannot be replaced", e.Path, len(e.Holders))
}

// Merger recursively copies a source tree into an existing destination tree,
// tolerating individually locked destination files via the Guard.
type Merger struct {
	guard *Guard

	// UnlockAttempts and UnlockDelay bound the wait for a locked
	// destination file before the merge fails.
	UnlockAttempts int
	UnlockDelay    time.Duration

	// CopyAttempts and CopyDelay bound the retry loop around each copy.
	CopyAttempts int
	CopyDelay    time.Duration

	// Warn receives non-fatal notices (locked files being waited on).
	// Nil disables warning output.
	Warn func(format string, args ...any)
}

// NewMerger creates a Merger with the default retry budget.
func NewMerger(guard *Guard) *Merger {
	return &Merger{
		guard:          guard,
		UnlockAttempts: 10,
		UnlockDelay:    time.Second,
		CopyAttempts:   3,
		CopyDelay:      2 * time.Second,
	}
}

func (m *Merger) warnf(format string, args ...any) {
	if m.Warn != nil {
		m.Warn(format, args...)
	}
}

// Merge walks srcDir depth-first and mirrors it under dstDir, creating
// intermediate directories and copying files through the retry guard.
// A destination file that stays locked past the unlock budget fails the
// whole merge with a LockedError; the merge is non-transactional, so the
// destination is left valid-old plus partial-new and recovery is a retry
// of the whole update.
func (m *Merger) Merge(srcDir, dstDir string) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dstDir, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return m.CopyFile(path, target)
	})
}

// CopyFile copies a single file to target through the lock wait and retry
// budget, preserving mode and modification time.
func (m *Merger) CopyFile(src, target string) error {
	if _, err := os.Stat(target); err == nil && m.guard.IsLocked(target) {
		m.warnf("file %s is locked, waiting for unlock", target)
		if !m.guard.WaitForUnlock(target, m.UnlockAttempts, m.UnlockDelay) {
			return &LockedError{Path: target, Holders: LockHolders(target)}
		}
	}

	return m.guard.WithRetry(func() error {
		return copyPreserving(src, target)
	}, m.CopyAttempts, m.CopyDelay)
}

// copyPreserving copies src to dst, carrying over permissions and mtime.
func copyPreserving(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy contents: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
