package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "updater.toml", `
owner = "spriteforge"
repo = "spriteforge"
asset_suffix = ".zip"
closure_wait_seconds = 60
restart_command = ["python", "src/main.py"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.AssetSuffix != ".zip" {
		t.Errorf("asset_suffix = %q", cfg.AssetSuffix)
	}
	if cfg.ClosureWaitSeconds != 60 {
		t.Errorf("closure_wait_seconds = %d", cfg.ClosureWaitSeconds)
	}
	if len(cfg.RestartCommand) != 2 || cfg.RestartCommand[0] != "python" {
		t.Errorf("restart_command = %v", cfg.RestartCommand)
	}
	// Unset keys keep their defaults.
	if cfg.VersionFile != "latestVersion.txt" {
		t.Errorf("version_file default lost: %q", cfg.VersionFile)
	}
	if cfg.PollIntervalSeconds != 2 {
		t.Errorf("poll_interval default lost: %d", cfg.PollIntervalSeconds)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "updater.yaml", `
owner: spriteforge
repo: spriteforge
watch_path: src/main.py
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.WatchPath != "src/main.py" {
		t.Errorf("watch_path = %q", cfg.WatchPath)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "updater.json", `{"owner": "spriteforge", "repo": "spriteforge", "api_base_url": "https://mirror.example.com"}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.APIBaseURL != "https://mirror.example.com" {
		t.Errorf("api_base_url = %q", cfg.APIBaseURL)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("SF_TEST_OWNER", "enviro")

	path := writeConfig(t, "updater.toml", `
owner = "${SF_TEST_OWNER}"
repo = "${SF_TEST_MISSING:-fallback}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Owner != "enviro" {
		t.Errorf("owner = %q", cfg.Owner)
	}
	if cfg.Repo != "fallback" {
		t.Errorf("repo = %q", cfg.Repo)
	}
}

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Format
	}{
		{"json object", `{"owner": "x"}`, FormatJSON},
		{"toml assignment", "owner = \"x\"\n", FormatTOML},
		{"yaml mapping", "owner: x\n", FormatYAML},
		{"empty", "", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sniffFormat([]byte(tt.content)); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindExplicitMissing(t *testing.T) {
	if _, err := Find(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected an error for an explicit missing path")
	}
}

func TestLoadExplicitConfigThroughResolve(t *testing.T) {
	path := writeConfig(t, "updater.toml", `
owner = "someone"
repo = "something"
`)

	cfg, err := Resolve(path)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.Owner != "someone" {
		t.Errorf("owner = %q", cfg.Owner)
	}
}
