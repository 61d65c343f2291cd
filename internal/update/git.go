package update

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandRunner runs external commands. It exists so the git-pull path can
// be mocked in tests.
type CommandRunner interface {
	RunInDir(dir, name string, args ...string) ([]byte, error)
}

// execRunner uses os/exec.
type execRunner struct{}

func (execRunner) RunInDir(dir, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// canPull reports whether the project root is a git checkout that should be
// updated with an in-place pull: the control-metadata directory, workflow
// directory, and ignore file must all be present and a git client must be
// on the path. Absence of any of these is not an error, just a fallback to
// the archive path.
func canPull(root string, lookPath func(string) (string, error)) bool {
	if _, err := lookPath("git"); err != nil {
		return false
	}
	gitDir, err := os.Stat(filepath.Join(root, ".git"))
	if err != nil || !gitDir.IsDir() {
		return false
	}
	githubDir, err := os.Stat(filepath.Join(root, ".github"))
	if err != nil || !githubDir.IsDir() {
		return false
	}
	ignore, err := os.Stat(filepath.Join(root, ".gitignore"))
	if err != nil || ignore.IsDir() {
		return false
	}
	return true
}

// pull runs git pull in root and returns the combined output.
func pull(runner CommandRunner, root string) (string, error) {
	out, err := runner.RunInDir(root, "git", "pull")
	text := strings.TrimSpace(string(out))
	if err != nil {
		return text, fmt.Errorf("git pull: %w", err)
	}
	return text, nil
}
