package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spriteforge/updater/internal/config"
	"github.com/spriteforge/updater/internal/interactive"
	"github.com/spriteforge/updater/internal/release"
	"github.com/spriteforge/updater/internal/ui"
	"github.com/spriteforge/updater/internal/update"
)

// updateFlags carries the update command's flag values.
type updateFlags struct {
	exeMode     bool
	exePath     string
	noGUI       bool
	waitSeconds int
	autoRestart bool
}

// resolveRoot returns the install tree to update: the configured root, or
// the nearest ancestor of the working directory carrying a README.md.
func resolveRoot(cfg *config.Config) (string, error) {
	if cfg.ProjectRoot != "" {
		return cfg.ProjectRoot, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return update.FindProjectRoot(cwd)
}

// installedVersion reads the version marker from the install tree.
// Returns the empty string when the marker is absent or unreadable.
func installedVersion(root, versionFile string) string {
	data, err := os.ReadFile(filepath.Join(root, versionFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// newChecker builds a release checker from the config.
func newChecker(cfg *config.Config, currentVersion string) *release.Checker {
	checker := release.NewChecker(currentVersion, cfg.Owner, cfg.Repo).
		WithVersionFile(cfg.VersionFile)
	if cfg.APIBaseURL != "" {
		checker = checker.WithAPIBaseURL(cfg.APIBaseURL)
	}
	if cfg.RawBaseURL != "" {
		checker = checker.WithRawBaseURL(cfg.RawBaseURL)
	}
	return checker
}

// buildOptions maps the resolved config and flags onto orchestrator
// options. An explicit --exe path implies executable mode; executable
// mode without a path means the updater is the packaged binary and
// updates its own executable.
func buildOptions(cfg *config.Config, fl updateFlags) (update.Options, error) {
	if fl.exePath != "" {
		fl.exeMode = true
	}
	mode := update.SourceUpdate
	if fl.exeMode {
		mode = update.ExecutableUpdate
	}

	self, _ := os.Executable()

	var root string
	switch {
	case fl.exePath != "":
		root = filepath.Dir(fl.exePath)
	case fl.exeMode:
		root = filepath.Dir(self)
	default:
		var err error
		root, err = resolveRoot(cfg)
		if err != nil {
			return update.Options{}, err
		}
	}

	return update.Options{
		Mode:           mode,
		ProjectRoot:    root,
		ExecutablePath: fl.exePath,
		Frozen:         fl.exeMode && fl.exePath == "",
		SelfPath:       self,
		Owner:          cfg.Owner,
		Repo:           cfg.Repo,
		CurrentVersion: installedVersion(root, cfg.VersionFile),
		APIBaseURL:     cfg.APIBaseURL,
		RawBaseURL:     cfg.RawBaseURL,
		ArchiveBaseURL: cfg.ArchiveBaseURL,
		VersionFile:    cfg.VersionFile,
		AssetSuffix:    cfg.AssetSuffix,
		WatchPath:      cfg.WatchPath,
		RestartCommand: cfg.RestartCommand,
		ClosureWait:    cfg.ClosureWait(),
		PollInterval:   cfg.PollInterval(),
	}, nil
}

// runUpdate assembles the orchestrator for the given flags and drives it
// under a progress window when the terminal allows one, otherwise under
// the console surface.
func runUpdate(cfg *config.Config, fl updateFlags) error {
	opts, err := buildOptions(cfg, fl)
	if err != nil {
		return err
	}

	if !fl.noGUI && interactive.IsOutputTerminal() {
		return runUpdateInWindow(opts)
	}

	console := ui.NewConsole(os.Stderr)
	console.AutoRestart = fl.autoRestart
	opts.Surface = console
	return update.New(opts).Run()
}

// runUpdateInWindow runs the orchestrator on a worker goroutine while the
// progress window owns the terminal on this one. On failure the window
// stays open so the user can read the log before dismissing it.
func runUpdateInWindow(opts update.Options) error {
	win := ui.NewWindow("SpriteForge Updater")
	opts.Surface = win

	orch := update.New(opts)
	errCh := make(chan error, 1)
	go func() {
		errCh <- orch.Run()
	}()

	if err := win.Run(); err != nil {
		return err
	}

	select {
	case err := <-errCh:
		return err
	default:
		// Window dismissed while the update was still awaiting restart.
		return nil
	}
}
