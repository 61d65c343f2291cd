package fsutil

import (
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// LockHolder identifies a process believed to hold a file open.
type LockHolder struct {
	PID  int32
	Name string
}

// LockHolders returns the processes that currently have path among their
// open files. Best effort: platforms or processes that refuse introspection
// are skipped silently, and an empty slice means "unknown", not "unlocked".
func LockHolders(path string) []LockHolder {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}

	procs, err := process.Processes()
	if err != nil {
		return nil
	}

	var holders []LockHolder
	for _, p := range procs {
		files, err := p.OpenFiles()
		if err != nil {
			continue
		}
		for _, f := range files {
			if !samePath(f.Path, abs) {
				continue
			}
			name, err := p.Name()
			if err != nil {
				name = "unknown"
			}
			holders = append(holders, LockHolder{PID: p.Pid, Name: name})
			break
		}
	}
	return holders
}

// samePath compares two paths, ignoring case on case-insensitive conventions
// (open-file tables on Windows report mixed-case paths).
func samePath(a, b string) bool {
	return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
}
