package update

import (
	"os"

	"github.com/spriteforge/updater/internal/ui"
)

// Mode selects which update flow runs.
type Mode int

const (
	// SourceUpdate merges a release source tree into a source install.
	SourceUpdate Mode = iota
	// ExecutableUpdate stages and atomically swaps a packaged binary.
	ExecutableUpdate
)

func (m Mode) String() string {
	switch m {
	case SourceUpdate:
		return "source"
	case ExecutableUpdate:
		return "executable"
	default:
		return "unknown"
	}
}

// session owns the transient state of one update attempt: the exclusive
// temp work directory and the monotonic progress value. It is created at
// update start and closed on both success and failure.
type session struct {
	mode        Mode
	projectRoot string
	workDir     string
	percent     int
}

func newSession(mode Mode, projectRoot string) (*session, error) {
	dir, err := os.MkdirTemp("", "spriteforge-update-")
	if err != nil {
		return nil, err
	}
	return &session{mode: mode, projectRoot: projectRoot, workDir: dir}, nil
}

// close removes the session's temp directory. Safe to call more than once.
func (s *session) close() {
	if s.workDir != "" {
		_ = os.RemoveAll(s.workDir)
		s.workDir = ""
	}
}

// advance reports progress to the surface, clamping so the percent never
// decreases within the session.
func (s *session) advance(surface ui.Surface, percent int, message string) {
	if percent < s.percent {
		percent = s.percent
	}
	if percent > 100 {
		percent = 100
	}
	s.percent = percent
	surface.ReportProgress(percent, message)
}
