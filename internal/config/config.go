// Package config handles updater configuration parsing and location
// resolution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the parsed updater configuration. Every field has a working
// default so a missing config file is not an error.
type Config struct {
	// Owner and Repo identify the release repository.
	Owner string `yaml:"owner" toml:"owner" json:"owner"`
	Repo  string `yaml:"repo" toml:"repo" json:"repo"`

	// VersionFile is the plain-text version marker on the default branch.
	VersionFile string `yaml:"version_file,omitempty" toml:"version_file,omitempty" json:"version_file,omitempty"`

	// AssetSuffix selects the packaged release asset by filename suffix.
	AssetSuffix string `yaml:"asset_suffix,omitempty" toml:"asset_suffix,omitempty" json:"asset_suffix,omitempty"`

	// Endpoint overrides, mainly for mirrors and tests.
	APIBaseURL     string `yaml:"api_base_url,omitempty" toml:"api_base_url,omitempty" json:"api_base_url,omitempty"`
	RawBaseURL     string `yaml:"raw_base_url,omitempty" toml:"raw_base_url,omitempty" json:"raw_base_url,omitempty"`
	ArchiveBaseURL string `yaml:"archive_base_url,omitempty" toml:"archive_base_url,omitempty" json:"archive_base_url,omitempty"`

	// ProjectRoot pins the install tree; detected when empty.
	ProjectRoot string `yaml:"project_root,omitempty" toml:"project_root,omitempty" json:"project_root,omitempty"`

	// WatchPath is the running application file polled for closure
	// before a source update.
	WatchPath string `yaml:"watch_path,omitempty" toml:"watch_path,omitempty" json:"watch_path,omitempty"`

	// RestartCommand relaunches the application after a source update.
	RestartCommand []string `yaml:"restart_command,omitempty" toml:"restart_command,omitempty" json:"restart_command,omitempty"`

	// ClosureWaitSeconds bounds the wait for the application to close.
	ClosureWaitSeconds int `yaml:"closure_wait_seconds,omitempty" toml:"closure_wait_seconds,omitempty" json:"closure_wait_seconds,omitempty"`

	// PollIntervalSeconds is the delay between closure-wait probes.
	PollIntervalSeconds int `yaml:"poll_interval_seconds,omitempty" toml:"poll_interval_seconds,omitempty" json:"poll_interval_seconds,omitempty"`
}

// Default returns the configuration for the stock SpriteForge install.
func Default() *Config {
	return &Config{
		Owner:               "spriteforge",
		Repo:                "spriteforge",
		VersionFile:         "latestVersion.txt",
		AssetSuffix:         ".7z",
		ClosureWaitSeconds:  30,
		PollIntervalSeconds: 2,
	}
}

// ClosureWait returns the closure-wait budget as a duration.
func (c *Config) ClosureWait() time.Duration {
	return time.Duration(c.ClosureWaitSeconds) * time.Second
}

// PollInterval returns the closure-wait poll delay as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Find searches for an updater config file in the standard locations.
// Returns the empty string when no config exists, which is not an error.
func Find(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv("SPRITEFORGE_UPDATER_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	var searchPaths []string

	// Beside the updater binary first: a packaged install ships its
	// config next to the executable.
	if exe, err := os.Executable(); err == nil {
		searchPaths = append(searchPaths, filepath.Dir(exe))
	}

	if cwd, err := os.Getwd(); err == nil {
		searchPaths = append(searchPaths, cwd)
	}

	if home, err := os.UserHomeDir(); err == nil {
		xdgConfig := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfig == "" {
			xdgConfig = filepath.Join(home, ".config")
		}
		searchPaths = append(searchPaths, filepath.Join(xdgConfig, "spriteforge"))
	}

	fileNames := []string{
		"updater.toml",
		"updater.yaml",
		"updater.yml",
		"updater.json",
		".spriteforge-updater.toml",
		".spriteforge-updater.yaml",
	}

	for _, dir := range searchPaths {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", nil
}

// Load reads and parses the config at path, layered over the defaults.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	cfg, err := parse(content, format)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Resolve finds and loads the config, returning defaults when no file
// exists in any standard location.
func Resolve(explicitPath string) (*Config, error) {
	path, err := Find(explicitPath)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
