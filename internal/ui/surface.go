// Package ui provides the progress/log surfaces an update run reports into:
// a console surface and a full-screen progress window.
package ui

// Severity classifies a log line on the update surface.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
)

// Surface is the display the update worker reports into. Implementations
// serialize mutation onto their own execution context; calls are safe from
// any goroutine and never block on rendering.
type Surface interface {
	// Log appends a line to the surface's log view.
	Log(message string, severity Severity)

	// ReportProgress sets the progress bar to percent (0-100) with an
	// accompanying status message.
	ReportProgress(percent int, message string)

	// EnableRestart arms the restart control; invoking it runs restart.
	// The hint tells the user how to finish the update by hand when the
	// control cannot be used (no TTY, window dismissed).
	EnableRestart(hint string, restart func())

	// Close tears the surface down.
	Close()
}
