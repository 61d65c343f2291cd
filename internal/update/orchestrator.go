package update

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spriteforge/updater/internal/archive"
	"github.com/spriteforge/updater/internal/fsutil"
	"github.com/spriteforge/updater/internal/release"
	"github.com/spriteforge/updater/internal/ui"
)

// State identifies the orchestrator's position in an update attempt.
type State int

const (
	StateIdle State = iota
	StateFetchingMetadata
	StateDownloading
	StateExtracting
	StateLocatingRoot
	StateInstalling
	StateAwaitingRestart
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetchingMetadata:
		return "fetching-metadata"
	case StateDownloading:
		return "downloading"
	case StateExtracting:
		return "extracting"
	case StateLocatingRoot:
		return "locating-root"
	case StateInstalling:
		return "installing"
	case StateAwaitingRestart:
		return "awaiting-restart"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CopyEntry is one item of a release that is carried into the install tree.
// Required entries missing from the archive abort the update; optional
// entries only produce a warning.
type CopyEntry struct {
	Name     string
	Required bool
}

// SourceCopyPlan lists the items a source-tree release must and may carry.
func SourceCopyPlan() []CopyEntry {
	return []CopyEntry{
		{Name: "assets", Required: true},
		{Name: "docs", Required: true},
		{Name: "tools", Required: true},
		{Name: "src", Required: true},
		{Name: "LICENSE", Required: true},
		{Name: "README.md", Required: true},
		{Name: "latestVersion.txt", Required: true},
		{Name: ".gitignore", Required: false},
		{Name: ".github", Required: false},
		{Name: "setup", Required: false},
	}
}

// Options carries the process facts and collaborators an update run needs.
// Ambient process state (frozen flag, executable path, exit) is passed in
// explicitly so tests can inject fakes.
type Options struct {
	Mode Mode

	// ProjectRoot is the install tree being updated. Detected by walking
	// up from the updater's own location when empty.
	ProjectRoot string

	// ExecutablePath is the live application binary (executable mode).
	// Defaults to this process's executable when Frozen is set.
	ExecutablePath string

	// Frozen marks the updater as running from a packaged binary.
	Frozen bool

	// SelfPath is the updater's own binary, backed up before a source
	// merge may overwrite it. Empty disables the self-backup.
	SelfPath string

	Owner          string
	Repo           string
	CurrentVersion string

	APIBaseURL     string // release metadata endpoint override
	RawBaseURL     string // raw file endpoint override
	ArchiveBaseURL string // default-branch archive endpoint override
	VersionFile    string
	AssetSuffix    string // packaged-release asset suffix, default ".7z"

	// WatchPath is polled for closure in source mode (the running app's
	// entry file). Empty skips the closure wait for source updates.
	WatchPath string

	// RestartCommand relaunches the application after a source update.
	RestartCommand []string

	Surface ui.Surface
	Guard   *fsutil.Guard
	Runner  CommandRunner

	// Extract unpacks an archive; defaults to format detection by
	// extension. Injectable so tests can substitute fixtures.
	Extract func(archivePath, destDir string) error

	LookPath     func(file string) (string, error)
	StartProcess func(name string, args ...string) error
	Exit         func(code int)

	ClosureWait  time.Duration
	PollInterval time.Duration
}

// Orchestrator sequences one update attempt end to end. It is not
// reentrant: the caller must not start a second run while one is active.
type Orchestrator struct {
	opts    Options
	goos    string
	checker *release.Checker
	fetcher *release.Fetcher
	merger  *fsutil.Merger
	stager  *Stager
	state   State
}

// New creates an Orchestrator, filling unset options with defaults.
func New(opts Options) *Orchestrator {
	if opts.Guard == nil {
		opts.Guard = fsutil.NewGuard()
	}
	if opts.Runner == nil {
		opts.Runner = execRunner{}
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	if opts.StartProcess == nil {
		opts.StartProcess = startDetached
	}
	if opts.Exit == nil {
		opts.Exit = os.Exit
	}
	if opts.AssetSuffix == "" {
		opts.AssetSuffix = ".7z"
	}
	if opts.VersionFile == "" {
		opts.VersionFile = "latestVersion.txt"
	}
	if opts.ArchiveBaseURL == "" {
		opts.ArchiveBaseURL = "https://github.com"
	}
	if opts.ClosureWait == 0 {
		opts.ClosureWait = 30 * time.Second
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.ExecutablePath == "" && opts.Frozen {
		if exe, err := os.Executable(); err == nil {
			opts.ExecutablePath = exe
		}
	}

	checker := release.NewChecker(opts.CurrentVersion, opts.Owner, opts.Repo).
		WithVersionFile(opts.VersionFile)
	if opts.APIBaseURL != "" {
		checker = checker.WithAPIBaseURL(opts.APIBaseURL)
	}
	if opts.RawBaseURL != "" {
		checker = checker.WithRawBaseURL(opts.RawBaseURL)
	}

	o := &Orchestrator{
		opts:    opts,
		goos:    runtime.GOOS,
		checker: checker,
		fetcher: release.NewFetcher(),
		merger:  fsutil.NewMerger(opts.Guard),
		stager:  NewStager(opts.Guard),
		state:   StateIdle,
	}
	if opts.Extract == nil {
		o.opts.Extract = extractByExtension
	}
	o.merger.Warn = func(format string, args ...any) {
		opts.Surface.Log(fmt.Sprintf(format, args...), ui.SeverityWarning)
	}
	return o
}

// State returns the orchestrator's current state.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes the update flow for the configured mode. Failures are
// logged at error severity, reported as a final failure on the surface,
// and returned to the caller; the session temp directory is removed on
// every path.
func (o *Orchestrator) Run() error {
	s, err := newSession(o.opts.Mode, o.opts.ProjectRoot)
	if err != nil {
		o.state = StateFailed
		return fmt.Errorf("create work directory: %w", err)
	}
	defer s.close()

	switch o.opts.Mode {
	case ExecutableUpdate:
		err = o.runExecutable(s)
	default:
		err = o.runSource(s)
	}

	if err != nil {
		o.state = StateFailed
		o.opts.Surface.Log(fmt.Sprintf("Update failed: %v", err), ui.SeverityError)
		s.advance(o.opts.Surface, s.percent, "Update failed!")
		return err
	}
	return nil
}

func (o *Orchestrator) log(sev ui.Severity, format string, args ...any) {
	o.opts.Surface.Log(fmt.Sprintf(format, args...), sev)
}

// runSource updates a source-tree install: git pull when the checkout
// supports it, otherwise release archive download and merge.
func (o *Orchestrator) runSource(s *session) error {
	o.log(ui.SeverityInfo, "Starting source update...")
	s.advance(o.opts.Surface, 5, "Finding project root...")

	root := o.opts.ProjectRoot
	if root == "" {
		var err error
		root, err = FindProjectRoot(filepath.Dir(o.opts.SelfPath))
		if err != nil {
			return err
		}
	}
	o.log(ui.SeverityInfo, "Project root: %s", root)

	selfBackup := o.backupSelf()

	o.waitForClosure(s, o.opts.WatchPath)

	if canPull(root, o.opts.LookPath) {
		return o.pullSource(s, root, selfBackup)
	}

	if err := o.mergeRelease(s, root); err != nil {
		return err
	}

	o.removeSelfBackup(selfBackup)
	s.advance(o.opts.Surface, 100, "Update complete!")
	o.log(ui.SeveritySuccess, "Source update completed successfully")
	o.enableRestart()
	return nil
}

// pullSource runs the in-place version-control pull path.
func (o *Orchestrator) pullSource(s *session, root, selfBackup string) error {
	o.log(ui.SeverityInfo, "Git checkout detected, running git pull...")
	o.state = StateInstalling
	s.advance(o.opts.Surface, 10, "Running git pull...")

	out, err := pull(o.opts.Runner, root)
	if out != "" {
		o.log(ui.SeverityInfo, "%s", out)
	}
	if err != nil {
		return err
	}

	o.removeSelfBackup(selfBackup)
	s.advance(o.opts.Surface, 100, "Update complete!")
	o.log(ui.SeveritySuccess, "Source updated successfully via git pull")
	o.enableRestart()
	return nil
}

// mergeRelease downloads the tagged release archive (falling back to the
// default branch archive when its layout is unrecognizable) and merges the
// required items into root.
func (o *Orchestrator) mergeRelease(s *session, root string) error {
	o.state = StateFetchingMetadata
	s.advance(o.opts.Surface, 15, "Fetching release information...")

	rel, err := o.checker.LatestRelease()
	if err != nil {
		return err
	}
	o.log(ui.SeverityInfo, "Found latest release: %s", rel.TagName)

	srcRoot, err := o.fetchAndLocate(s, rel.ZipballURL, "release.zip", archive.SourceSignature())
	if errors.Is(err, archive.ErrLayoutNotRecognized) {
		o.log(ui.SeverityWarning, "Release archive layout not recognized, trying default branch...")
		fallback := fmt.Sprintf("%s/%s/%s/archive/refs/heads/main.zip",
			o.opts.ArchiveBaseURL, o.opts.Owner, o.opts.Repo)
		srcRoot, err = o.fetchAndLocate(s, fallback, "main.zip", archive.SourceSignature())
	}
	if err != nil {
		return err
	}
	o.log(ui.SeveritySuccess, "Found release root: %s", srcRoot)

	o.state = StateInstalling
	s.advance(o.opts.Surface, 80, "Copying files...")
	return o.applyCopyPlan(srcRoot, root, SourceCopyPlan())
}

// fetchAndLocate downloads an archive into the session work directory,
// extracts it, and locates the release root matching sig.
func (o *Orchestrator) fetchAndLocate(s *session, url, name string, sig archive.Signature) (string, error) {
	o.state = StateDownloading
	s.advance(o.opts.Surface, 20, "Downloading archive...")
	dest := filepath.Join(s.workDir, name)

	err := o.fetcher.Fetch(url, dest, func(done, total int64) {
		if total > 0 {
			s.advance(o.opts.Surface, 20+int(done*40/total),
				fmt.Sprintf("Downloaded %.1f MB", float64(done)/1024/1024))
		}
	})
	if err != nil {
		return "", err
	}
	o.log(ui.SeveritySuccess, "Download complete: %s", name)

	o.state = StateExtracting
	s.advance(o.opts.Surface, 60, "Extracting archive...")
	extractDir := filepath.Join(s.workDir, strings.TrimSuffix(name, filepath.Ext(name)))
	if err := o.opts.Extract(dest, extractDir); err != nil {
		return "", fmt.Errorf("extract archive: %w", err)
	}

	o.state = StateLocatingRoot
	s.advance(o.opts.Surface, 70, "Detecting release structure...")
	return archive.Locate(extractDir, sig)
}

// applyCopyPlan copies each plan entry from srcRoot into destRoot.
func (o *Orchestrator) applyCopyPlan(srcRoot, destRoot string, plan []CopyEntry) error {
	for _, entry := range plan {
		srcPath := filepath.Join(srcRoot, entry.Name)
		destPath := filepath.Join(destRoot, entry.Name)

		info, err := os.Stat(srcPath)
		if err != nil {
			if entry.Required {
				return fmt.Errorf("required item %s missing from release", entry.Name)
			}
			o.log(ui.SeverityWarning, "Optional item %s not found in release", entry.Name)
			continue
		}

		o.log(ui.SeverityInfo, "Copying %s...", entry.Name)
		if info.IsDir() {
			err = o.merger.Merge(srcPath, destPath)
		} else {
			err = o.merger.CopyFile(srcPath, destPath)
		}
		if err != nil {
			return fmt.Errorf("copy %s: %w", entry.Name, err)
		}
	}
	return nil
}

// runExecutable updates a packaged install via the staged two-phase swap.
// Any failure before the replacement script is written leaves the live
// executable untouched; failures inside the script are handled by the
// script's own backup/restore logic after this process has exited.
func (o *Orchestrator) runExecutable(s *session) error {
	o.log(ui.SeverityInfo, "Starting executable update...")

	exePath := o.opts.ExecutablePath
	if exePath == "" {
		return errors.New("executable path unknown: set ExecutablePath or Frozen")
	}
	o.log(ui.SeverityInfo, "Current executable: %s", exePath)

	o.waitForClosure(s, exePath)

	o.state = StateFetchingMetadata
	s.advance(o.opts.Surface, 15, "Fetching release information...")
	rel, err := o.checker.LatestRelease()
	if err != nil {
		return err
	}
	o.log(ui.SeverityInfo, "Found latest release: %s", rel.TagName)

	asset, ok := rel.AssetBySuffix(o.opts.AssetSuffix)
	if !ok {
		return fmt.Errorf("no %s asset found in release %s", o.opts.AssetSuffix, rel.TagName)
	}
	o.log(ui.SeverityInfo, "Using asset: %s (%.2f MB)", asset.Name, float64(asset.Size)/1024/1024)

	pkgRoot, err := o.fetchAndLocate(s, asset.BrowserDownloadURL, asset.Name, archive.PackageSignature())
	if err != nil {
		return err
	}

	newExe, err := pickExecutable(pkgRoot, exePath)
	if err != nil {
		return err
	}
	o.log(ui.SeverityInfo, "New executable: %s", newExe)

	o.state = StateInstalling
	s.advance(o.opts.Surface, 80, "Staging new executable...")
	plan := NewInstallPlan(exePath, o.goos)
	if err := o.stager.Stage(newExe, plan); err != nil {
		return err
	}

	s.advance(o.opts.Surface, 90, "Creating replacement script...")
	if err := WriteScript(plan, o.goos); err != nil {
		// Leave nothing armed: a staged file without a script is inert,
		// but remove it so a later run starts clean.
		_ = os.Remove(plan.StagedPath)
		return err
	}

	s.advance(o.opts.Surface, 100, "Update ready!")
	o.log(ui.SeveritySuccess, "Update staged; the executable will be replaced on restart")

	o.state = StateAwaitingRestart
	hint := fmt.Sprintf("Update staged. Run %s to install the new version.", plan.ScriptPath)
	o.opts.Surface.EnableRestart(hint, func() {
		// The surface stays open on a spawn failure so the user sees the
		// error and can retry; the staged files remain in place.
		if err := o.opts.StartProcess(plan.ScriptPath); err != nil {
			o.log(ui.SeverityError, "Could not launch replacement script: %v", err)
			return
		}
		o.state = StateSucceeded
		o.opts.Surface.Close()
		o.opts.Exit(0)
	})
	return nil
}

// enableRestart arms the surface's restart control for source updates.
func (o *Orchestrator) enableRestart() {
	o.state = StateAwaitingRestart
	cmd := o.opts.RestartCommand
	o.opts.Surface.EnableRestart("Update complete. Restart the application to use the new version.", func() {
		if len(cmd) > 0 {
			if err := o.opts.StartProcess(cmd[0], cmd[1:]...); err != nil {
				o.log(ui.SeverityError, "Could not restart the application: %v", err)
				return
			}
		}
		o.state = StateSucceeded
		o.opts.Surface.Close()
		o.opts.Exit(0)
	})
}

// waitForClosure polls path for unlock, bounded by the closure-wait
// budget. A timeout is a warning, not a failure: the update proceeds
// best-effort.
func (o *Orchestrator) waitForClosure(s *session, path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}

	o.log(ui.SeverityInfo, "Waiting for application to close...")
	s.advance(o.opts.Surface, 5, "Waiting for application closure...")

	attempts := int(o.opts.ClosureWait / o.opts.PollInterval)
	if attempts < 1 {
		attempts = 1
	}
	if o.opts.Guard.WaitForUnlock(path, attempts, o.opts.PollInterval) {
		o.log(ui.SeveritySuccess, "Application appears to be closed")
		return
	}
	o.log(ui.SeverityWarning, "Timeout waiting for application closure, continuing anyway")
}

// backupSelf copies the updater's own binary aside so a merge that
// overwrites the running updater cannot strand it. Best effort.
func (o *Orchestrator) backupSelf() string {
	if o.opts.SelfPath == "" {
		return ""
	}
	backup := o.opts.SelfPath + ".backup"
	if err := fsutil.NewMerger(o.opts.Guard).CopyFile(o.opts.SelfPath, backup); err != nil {
		o.log(ui.SeverityWarning, "Could not back up updater: %v", err)
		return ""
	}
	o.log(ui.SeverityInfo, "Created updater backup: %s", backup)
	return backup
}

func (o *Orchestrator) removeSelfBackup(backup string) {
	if backup == "" {
		return
	}
	if err := os.Remove(backup); err != nil {
		o.log(ui.SeverityWarning, "Could not remove updater backup: %v", err)
	}
}

// pickExecutable chooses the new binary from anywhere under the located
// package root: the entry whose basename matches the live executable's
// wins, otherwise the first discovered executable.
func pickExecutable(pkgRoot, exePath string) (string, error) {
	exes := archive.FindExecutables(pkgRoot)
	if len(exes) == 0 {
		return "", errors.New("no executable found in release package")
	}

	want := strings.ToLower(filepath.Base(exePath))
	for _, name := range exes {
		if strings.ToLower(filepath.Base(name)) == want {
			return filepath.Join(pkgRoot, name), nil
		}
	}
	return filepath.Join(pkgRoot, exes[0]), nil
}

// FindProjectRoot walks up from startDir until it finds a directory
// containing README.md.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "README.md")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not determine project root (README.md not found)")
		}
		dir = parent
	}
}

// extractByExtension is the default Extract hook.
func extractByExtension(archivePath, destDir string) error {
	ex, err := archive.ForPath(archivePath)
	if err != nil {
		return err
	}
	return ex.ExtractAll(archivePath, destDir)
}

// startDetached launches a process without waiting for it. Batch scripts
// on Windows need the shell; shell scripts elsewhere get an explicit
// interpreter so the exec bit is irrelevant.
func startDetached(name string, args ...string) error {
	var cmd *exec.Cmd
	switch {
	case runtime.GOOS == "windows" && strings.HasSuffix(strings.ToLower(name), ".bat"):
		cmd = exec.Command("cmd", "/C", "start", "", name)
	case strings.HasSuffix(name, ".sh"):
		cmd = exec.Command("/bin/sh", name)
	default:
		cmd = exec.Command(name, args...)
	}
	return cmd.Start()
}
