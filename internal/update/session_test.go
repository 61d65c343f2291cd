package update

import (
	"os"
	"testing"

	"github.com/spriteforge/updater/internal/ui"
)

// recordingSurface captures Surface calls for assertions.
type recordingSurface struct {
	logs     []string
	levels   []ui.Severity
	percents []int
	messages []string
	hint     string
	restart  func()
	closed   bool
}

func (r *recordingSurface) Log(message string, severity ui.Severity) {
	r.logs = append(r.logs, message)
	r.levels = append(r.levels, severity)
}

func (r *recordingSurface) ReportProgress(percent int, message string) {
	r.percents = append(r.percents, percent)
	r.messages = append(r.messages, message)
}

func (r *recordingSurface) EnableRestart(hint string, restart func()) {
	r.hint = hint
	r.restart = restart
}

func (r *recordingSurface) Close() { r.closed = true }

func TestSessionAdvanceIsMonotonic(t *testing.T) {
	s, err := newSession(SourceUpdate, "")
	if err != nil {
		t.Fatal(err)
	}
	defer s.close()

	surface := &recordingSurface{}
	s.advance(surface, 20, "downloading")
	s.advance(surface, 60, "extracting")
	s.advance(surface, 40, "late report") // must not go backwards
	s.advance(surface, 120, "overshoot")  // clamped to 100

	want := []int{20, 60, 60, 100}
	if len(surface.percents) != len(want) {
		t.Fatalf("got %v, want %v", surface.percents, want)
	}
	for i := range want {
		if surface.percents[i] != want[i] {
			t.Errorf("got %v, want %v", surface.percents, want)
			break
		}
	}
}

func TestSessionCloseRemovesWorkDir(t *testing.T) {
	s, err := newSession(SourceUpdate, "")
	if err != nil {
		t.Fatal(err)
	}

	workDir := s.workDir
	if _, err := os.Stat(workDir); err != nil {
		t.Fatalf("work dir missing: %v", err)
	}

	s.close()
	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		t.Error("work dir survived close")
	}

	// Closing twice is safe.
	s.close()
}

func TestModeString(t *testing.T) {
	if SourceUpdate.String() != "source" || ExecutableUpdate.String() != "executable" {
		t.Error("unexpected mode names")
	}
}
