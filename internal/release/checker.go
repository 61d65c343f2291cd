package release

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Checker queries the release-metadata endpoint and the plain-text version
// marker for a repository.
type Checker struct {
	currentVersion string
	owner          string
	repo           string
	versionFile    string
	client         *http.Client
	apiBaseURL     string // base URL for the release API (overridable for tests)
	rawBaseURL     string // base URL for raw file access (overridable for tests)
}

// NewChecker creates a checker for owner/repo with the given installed version.
func NewChecker(currentVersion, owner, repo string) *Checker {
	return &Checker{
		currentVersion: currentVersion,
		owner:          owner,
		repo:           repo,
		versionFile:    "latestVersion.txt",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		apiBaseURL: "https://api.github.com",
		rawBaseURL: "https://raw.githubusercontent.com",
	}
}

// WithAPIBaseURL overrides the release API base URL.
func (c *Checker) WithAPIBaseURL(url string) *Checker {
	c.apiBaseURL = url
	return c
}

// WithRawBaseURL overrides the raw file base URL.
func (c *Checker) WithRawBaseURL(url string) *Checker {
	c.rawBaseURL = url
	return c
}

// WithVersionFile overrides the version marker filename.
func (c *Checker) WithVersionFile(name string) *Checker {
	c.versionFile = name
	return c
}

// LatestRelease fetches the latest release metadata.
func (c *Checker) LatestRelease() (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.apiBaseURL, c.owner, c.repo)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch release metadata: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{URL: url, StatusCode: resp.StatusCode}
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decode release metadata: %w", err)
	}
	return &rel, nil
}

// LatestVersion fetches the plain-text version marker from the default
// branch and returns its trimmed contents.
func (c *Checker) LatestVersion() (string, error) {
	url := fmt.Sprintf("%s/%s/%s/main/%s", c.rawBaseURL, c.owner, c.repo, c.versionFile)

	resp, err := c.client.Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch version marker: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &RequestError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", fmt.Errorf("read version marker: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// Check compares the installed version to the latest marker. The comparison
// is a raw string ordering, not semantic-version aware: the project's
// version markers are dotted decimals of equal width, so lexicographic
// ordering matches release ordering.
func (c *Checker) Check() (*CheckResult, error) {
	latest, err := c.LatestVersion()
	if err != nil {
		return nil, err
	}

	current := NormalizeVersion(c.currentVersion)
	latest = NormalizeVersion(latest)

	return &CheckResult{
		Available:      latest > current,
		CurrentVersion: current,
		LatestVersion:  latest,
	}, nil
}

// NormalizeVersion removes the tag-style 'v' prefix if present.
func NormalizeVersion(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "v")
}
