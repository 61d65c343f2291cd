package update

import "path/filepath"

// InstallPlan declares the staged-swap a replacement script must perform
// after this process exits: back up the live executable, rename the staged
// file into place, verify, restart, and restore the backup on failure. The
// orchestrator builds the plan; RenderScript turns it into script text.
//
// Renames are used for the swap steps because a rename within one
// filesystem is atomic and cannot leave a half-written executable.
type InstallPlan struct {
	ExecutablePath string // live binary to replace
	StagedPath     string // new binary staged beside the live one
	BackupPath     string // rename target for the old binary
	ScriptPath     string // where the replacement script is written
	ProcessName    string // process image name polled for exit
}

// NewInstallPlan derives the conventional side paths for replacing exePath
// on the given operating system.
func NewInstallPlan(exePath, goos string) InstallPlan {
	ext := ".update.sh"
	if goos == "windows" {
		ext = ".update.bat"
	}
	return InstallPlan{
		ExecutablePath: exePath,
		StagedPath:     exePath + ".new",
		BackupPath:     exePath + ".backup",
		ScriptPath:     exePath + ext,
		ProcessName:    filepath.Base(exePath),
	}
}
