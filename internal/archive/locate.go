package archive

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// ErrLayoutNotRecognized indicates no directory in the extracted archive
// matched the expected release structure.
var ErrLayoutNotRecognized = errors.New("archive layout not recognized")

// Signature is the structural fingerprint that identifies a release root.
// Archive generators are outside this tool's control and often wrap the
// contents in a synthetic top-level directory, so roots are found by
// inspection rather than by path convention.
type Signature struct {
	Dirs       []string // child directories that must exist
	Files      []string // child files that must exist
	Executable bool     // additionally require at least one native executable
}

// SourceSignature fingerprints a source-tree release: a source directory
// and a README at the root.
func SourceSignature() Signature {
	return Signature{Dirs: []string{"src"}, Files: []string{"README.md"}}
}

// PackageSignature fingerprints a packaged executable release: an assets
// directory plus at least one executable.
func PackageSignature() Signature {
	return Signature{Dirs: []string{"assets"}, Executable: true}
}

// Matches reports whether dir satisfies the signature.
func (s Signature) Matches(dir string) bool {
	for _, d := range s.Dirs {
		info, err := os.Stat(filepath.Join(dir, d))
		if err != nil || !info.IsDir() {
			return false
		}
	}
	for _, f := range s.Files {
		info, err := os.Stat(filepath.Join(dir, f))
		if err != nil || info.IsDir() {
			return false
		}
	}
	if s.Executable && len(FindExecutables(dir)) == 0 {
		return false
	}
	return true
}

// Locate finds the release root inside extractDir. It first handles the
// common single-wrapper-directory case, then falls back to checking
// extractDir itself (flat archives) and each top-level directory in
// lexicographic order, so selection is deterministic across platforms.
func Locate(extractDir string, sig Signature) (string, error) {
	entries, err := os.ReadDir(extractDir)
	if err != nil {
		return "", err
	}

	if len(entries) == 1 && entries[0].IsDir() {
		candidate := filepath.Join(extractDir, entries[0].Name())
		if sig.Matches(candidate) {
			return candidate, nil
		}
	}

	if sig.Matches(extractDir) {
		return extractDir, nil
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)

	for _, name := range dirs {
		candidate := filepath.Join(extractDir, name)
		if sig.Matches(candidate) {
			return candidate, nil
		}
	}

	return "", ErrLayoutNotRecognized
}

// FindExecutables returns the native executables under dir as sorted
// paths relative to dir. The search descends into subdirectories, so
// packages that nest their binary under bin/ or similar are still found.
// On Windows an .exe suffix counts; elsewhere any regular file with an
// execute bit does.
func FindExecutables(dir string) []string {
	var names []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !isExecutable(d.Name(), info) {
			return nil
		}
		if rel, err := filepath.Rel(dir, path); err == nil {
			names = append(names, rel)
		}
		return nil
	})
	sort.Strings(names)
	return names
}

func isExecutable(name string, info fs.FileInfo) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(filepath.Ext(name), ".exe")
	}
	if strings.EqualFold(filepath.Ext(name), ".exe") {
		// Windows packages inspected on other platforms still count.
		return true
	}
	return info.Mode().Perm()&0111 != 0
}
