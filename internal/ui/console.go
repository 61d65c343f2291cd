package ui

import (
	"io"

	"github.com/charmbracelet/log"
)

// Console is a Surface that writes to a structured logger. Used when no
// TTY is available or the window was disabled with --no-gui.
type Console struct {
	logger *log.Logger

	// AutoRestart invokes the restart callback immediately instead of
	// waiting for user input. Set for unattended runs.
	AutoRestart bool
}

// NewConsole creates a console surface writing to w.
func NewConsole(w io.Writer) *Console {
	logger := log.New(w)
	logger.SetReportTimestamp(true)
	return &Console{logger: logger}
}

// Log writes the message at the level matching severity.
func (c *Console) Log(message string, severity Severity) {
	switch severity {
	case SeverityWarning:
		c.logger.Warn(message)
	case SeverityError:
		c.logger.Error(message)
	default:
		c.logger.Info(message)
	}
}

// ReportProgress logs the progress value and status message.
func (c *Console) ReportProgress(percent int, message string) {
	c.logger.Info(message, "progress", percent)
}

// EnableRestart runs restart immediately when AutoRestart is set,
// otherwise prints the manual instruction for finishing the update.
func (c *Console) EnableRestart(hint string, restart func()) {
	if c.AutoRestart {
		restart()
		return
	}
	c.logger.Info(hint)
}

// Close is a no-op for the console surface.
func (c *Console) Close() {}
