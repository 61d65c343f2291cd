package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// sized returns a model that has received its initial size, which is what
// makes the viewport usable.
func sized(t *testing.T) *windowModel {
	t.Helper()
	m := newWindowModel("SpriteForge Updater")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(*windowModel)
}

func TestWindowModelAccumulatesLog(t *testing.T) {
	m := sized(t)

	updated, _ := m.Update(logMsg{text: "Downloading archive...", severity: SeverityInfo})
	m = updated.(*windowModel)
	updated, _ = m.Update(logMsg{text: "Download complete", severity: SeveritySuccess})
	m = updated.(*windowModel)

	if len(m.lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(m.lines))
	}
	if !strings.Contains(m.lines[0], "Downloading archive...") {
		t.Errorf("line = %q", m.lines[0])
	}
}

func TestWindowModelProgressAndStatus(t *testing.T) {
	m := sized(t)

	updated, _ := m.Update(progressMsg{percent: 60, status: "Extracting archive..."})
	m = updated.(*windowModel)

	if m.percent != 60 {
		t.Errorf("percent = %d", m.percent)
	}
	if m.status != "Extracting archive..." {
		t.Errorf("status = %q", m.status)
	}

	// An empty status keeps the previous message.
	updated, _ = m.Update(progressMsg{percent: 70})
	m = updated.(*windowModel)
	if m.status != "Extracting archive..." {
		t.Errorf("status lost: %q", m.status)
	}
}

func TestWindowModelRestartKeyOnlyWhenEnabled(t *testing.T) {
	m := sized(t)

	fired := false
	press := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}

	updated, _ := m.Update(press)
	m = updated.(*windowModel)
	if fired {
		t.Fatal("restart fired before being enabled")
	}

	updated, _ = m.Update(enableRestartMsg{restart: func() { fired = true }})
	m = updated.(*windowModel)
	if _, _ = m.Update(press); !fired {
		t.Error("restart key ignored after enable")
	}
}

func TestWindowModelCloseQuits(t *testing.T) {
	m := sized(t)

	_, cmd := m.Update(closeMsg{})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("close should produce tea.Quit")
	}
}

func TestWindowModelViewShowsRestartHint(t *testing.T) {
	m := sized(t)

	if strings.Contains(m.View(), "Press r to restart") {
		t.Error("restart hint shown before enable")
	}

	updated, _ := m.Update(enableRestartMsg{restart: func() {}})
	m = updated.(*windowModel)
	if !strings.Contains(m.View(), "Press r to restart") {
		t.Error("restart hint missing after enable")
	}
}

func TestWindowModelLogsManualHint(t *testing.T) {
	m := sized(t)

	updated, _ := m.Update(enableRestartMsg{
		hint:    "Update staged. Run SpriteForge.update.bat to install the new version.",
		restart: func() {},
	})
	m = updated.(*windowModel)

	if len(m.lines) != 1 || !strings.Contains(m.lines[0], "SpriteForge.update.bat") {
		t.Errorf("manual hint not logged: %v", m.lines)
	}
}
