package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusStyle    = lipgloss.NewStyle().Padding(0, 1)
	restartStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")).Padding(0, 1)

	severityStyles = map[Severity]lipgloss.Style{
		SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		SeverityError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		SeveritySuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

type logMsg struct {
	text     string
	severity Severity
}

type progressMsg struct {
	percent int
	status  string
}

type enableRestartMsg struct {
	hint    string
	restart func()
}

type closeMsg struct{}

// Window is a Surface rendered as a full-screen progress window: a
// scrollable log pane, a progress bar, and a restart control. All Surface
// calls are marshalled onto the window's own event loop via Program.Send,
// so the worker goroutine never mutates the model directly.
type Window struct {
	prog *tea.Program
}

// NewWindow creates a progress window with the given title.
func NewWindow(title string) *Window {
	m := newWindowModel(title)
	return &Window{prog: tea.NewProgram(m, tea.WithAltScreen())}
}

// Run drives the window's event loop. It blocks until the window closes
// and must be called from the goroutine that owns the terminal.
func (w *Window) Run() error {
	_, err := w.prog.Run()
	return err
}

// Log implements Surface.
func (w *Window) Log(message string, severity Severity) {
	w.prog.Send(logMsg{text: message, severity: severity})
}

// ReportProgress implements Surface.
func (w *Window) ReportProgress(percent int, message string) {
	w.prog.Send(progressMsg{percent: percent, status: message})
}

// EnableRestart implements Surface.
func (w *Window) EnableRestart(hint string, restart func()) {
	w.prog.Send(enableRestartMsg{hint: hint, restart: restart})
}

// Close implements Surface.
func (w *Window) Close() {
	w.prog.Send(closeMsg{})
}

type windowModel struct {
	title          string
	viewport       viewport.Model
	bar            progress.Model
	lines          []string
	percent        int
	status         string
	restart        func()
	restartEnabled bool
	ready          bool
}

func newWindowModel(title string) *windowModel {
	return &windowModel{
		title:  title,
		bar:    progress.New(progress.WithDefaultGradient()),
		status: "Initializing...",
	}
}

func (m *windowModel) Init() tea.Cmd {
	return nil
}

func (m *windowModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Reserve rows for the title, status, bar, and key help.
		vh := msg.Height - 5
		if vh < 1 {
			vh = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vh)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vh
		}
		m.bar.Width = msg.Width - 4
		m.refreshViewport()
		return m, nil

	case logMsg:
		m.appendLine(msg.text, msg.severity)
		return m, nil

	case progressMsg:
		m.percent = msg.percent
		if msg.status != "" {
			m.status = msg.status
		}
		return m, nil

	case enableRestartMsg:
		m.restart = msg.restart
		m.restartEnabled = true
		if msg.hint != "" {
			m.appendLine(msg.hint, SeverityInfo)
		}
		return m, nil

	case closeMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r", "enter":
			if m.restartEnabled && m.restart != nil {
				m.restart()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *windowModel) appendLine(text string, severity Severity) {
	stamp := timestampStyle.Render(time.Now().Format("15:04:05"))
	style := severityStyles[severity]
	m.lines = append(m.lines, fmt.Sprintf("[%s] %s", stamp, style.Render(text)))
	m.refreshViewport()
}

func (m *windowModel) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *windowModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString("  " + m.bar.ViewAs(float64(m.percent)/100.0))
	b.WriteString("\n")

	if m.restartEnabled {
		b.WriteString(restartStyle.Render("Press r to restart the application, q to close"))
	} else {
		b.WriteString(statusStyle.Render("Press q to close"))
	}
	return b.String()
}
