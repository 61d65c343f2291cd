package e2e

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const binaryName = "spriteforge-updater"

var binaryPath string

// TestMain builds the binary before running tests
func TestMain(m *testing.M) {
	cmd := exec.Command("go", "build", "-o", binaryName, "../../cmd/spriteforge-updater")
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	binaryPath, _ = filepath.Abs(binaryName)

	code := m.Run()

	os.Remove(binaryName)
	os.Exit(code)
}

// runUpdater executes the updater binary with the given arguments.
func runUpdater(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// releaseZip builds a source release archive with the standard wrapper.
func releaseZip(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"spriteforge-spriteforge-e2e0001/assets/sprite.png":   "png",
		"spriteforge-spriteforge-e2e0001/docs/guide.md":       "guide",
		"spriteforge-spriteforge-e2e0001/tools/convert.txt":   "tool",
		"spriteforge-spriteforge-e2e0001/src/main.py":         "print('2.0.0')",
		"spriteforge-spriteforge-e2e0001/LICENSE":             "license",
		"spriteforge-spriteforge-e2e0001/README.md":           "# SpriteForge",
		"spriteforge-spriteforge-e2e0001/latestVersion.txt":   "2.0.0\n",
	} {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// newReleaseServer serves the metadata, version marker, and zipball the
// updater needs for a full source update.
func newReleaseServer(t *testing.T) *httptest.Server {
	t.Helper()

	archive := releaseZip(t)
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/spriteforge/spriteforge/releases/latest":
			fmt.Fprintf(w, `{"tag_name": "v2.0.0", "zipball_url": "%s/zipball", "assets": []}`, srv.URL)
		case "/spriteforge/spriteforge/main/latestVersion.txt":
			fmt.Fprintln(w, "2.0.0")
		case "/zipball":
			_, _ = w.Write(archive)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeInstall lays out an old source install plus an updater config that
// points all endpoints at srv.
func writeInstall(t *testing.T, srv *httptest.Server) (root, configPath string) {
	t.Helper()

	root = t.TempDir()
	for path, content := range map[string]string{
		"latestVersion.txt": "1.9.0\n",
		"README.md":         "old readme",
		"src/main.py":       "print('1.9.0')",
		"assets/sprite.png": "old png",
		"docs/guide.md":     "old guide",
		"tools/convert.txt": "old tool",
		"LICENSE":           "license",
	} {
		full := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	configPath = filepath.Join(t.TempDir(), "updater.toml")
	config := fmt.Sprintf(`
owner = "spriteforge"
repo = "spriteforge"
project_root = %q
api_base_url = %q
raw_base_url = %q
archive_base_url = %q
`, root, srv.URL, srv.URL, srv.URL)
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	return root, configPath
}

func TestVersionCommand(t *testing.T) {
	stdout, stderr, err := runUpdater(t, "version")
	if err != nil {
		t.Fatalf("command failed: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(stdout, "spriteforge-updater version") {
		t.Errorf("unexpected output: %s", stdout)
	}
}

func TestCheckCommandJSON(t *testing.T) {
	srv := newReleaseServer(t)
	_, configPath := writeInstall(t, srv)

	stdout, stderr, err := runUpdater(t, "check", "--config", configPath, "-o", "json")
	if err != nil {
		t.Fatalf("command failed: %v\nstderr: %s", err, stderr)
	}

	var result struct {
		Available      bool   `json:"available"`
		CurrentVersion string `json:"current_version"`
		LatestVersion  string `json:"latest_version"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("invalid JSON output %q: %v", stdout, err)
	}
	if !result.Available {
		t.Error("expected an available update")
	}
	if result.CurrentVersion != "1.9.0" || result.LatestVersion != "2.0.0" {
		t.Errorf("unexpected versions: %+v", result)
	}
}

func TestCheckCommandUpToDate(t *testing.T) {
	srv := newReleaseServer(t)
	root, configPath := writeInstall(t, srv)

	if err := os.WriteFile(filepath.Join(root, "latestVersion.txt"), []byte("2.0.0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, err := runUpdater(t, "check", "--config", configPath)
	if err != nil {
		t.Fatalf("command failed: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(stdout, "Already up to date") {
		t.Errorf("unexpected output: %s", stdout)
	}
}

func TestUpdateCommandMergesSourceTree(t *testing.T) {
	srv := newReleaseServer(t)
	root, configPath := writeInstall(t, srv)

	_, stderr, err := runUpdater(t, "update", "--config", configPath, "--no-gui")
	if err != nil {
		t.Fatalf("command failed: %v\nstderr: %s", err, stderr)
	}

	for path, want := range map[string]string{
		"latestVersion.txt": "2.0.0\n",
		"src/main.py":       "print('2.0.0')",
	} {
		data, readErr := os.ReadFile(filepath.Join(root, path))
		if readErr != nil {
			t.Fatal(readErr)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", path, data, want)
		}
	}

	if !strings.Contains(stderr, "Restart the application") {
		t.Errorf("expected the manual restart instruction, stderr: %s", stderr)
	}
}

func TestUpdateCommandFailsCleanlyOnDeadEndpoint(t *testing.T) {
	srv := newReleaseServer(t)
	root, configPath := writeInstall(t, srv)
	srv.Close() // all endpoints gone

	_, _, err := runUpdater(t, "update", "--config", configPath, "--no-gui")
	if err == nil {
		t.Fatal("expected a failure exit")
	}

	// The install tree is untouched.
	data, readErr := os.ReadFile(filepath.Join(root, "latestVersion.txt"))
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(data) != "1.9.0\n" {
		t.Errorf("install modified by failed update: %q", data)
	}
}
