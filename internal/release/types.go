// Package release discovers published releases and downloads their artifacts.
package release

import (
	"fmt"
	"strings"
)

// Asset is a downloadable artifact attached to a release.
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Release describes a published release of the application. Fetched fresh
// per update attempt and never cached across runs.
type Release struct {
	TagName    string  `json:"tag_name"`
	Name       string  `json:"name"`
	Assets     []Asset `json:"assets"`
	ZipballURL string  `json:"zipball_url"`
}

// AssetBySuffix returns the first asset whose name ends with suffix
// (case-insensitive).
func (r *Release) AssetBySuffix(suffix string) (Asset, bool) {
	for _, a := range r.Assets {
		if strings.HasSuffix(strings.ToLower(a.Name), strings.ToLower(suffix)) {
			return a, true
		}
	}
	return Asset{}, false
}

// CheckResult is the outcome of an update availability check.
type CheckResult struct {
	Available      bool   `json:"available" yaml:"available"`
	CurrentVersion string `json:"current_version" yaml:"current_version"`
	LatestVersion  string `json:"latest_version" yaml:"latest_version"`
}

// String renders the result for plain-text output.
func (c CheckResult) String() string {
	if !c.Available {
		return fmt.Sprintf("Already up to date (version %s)", c.CurrentVersion)
	}
	return fmt.Sprintf("Update available: %s -> %s", c.CurrentVersion, c.LatestVersion)
}

// RequestError reports a non-2xx response from a release endpoint.
type RequestError struct {
	URL        string
	StatusCode int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s returned status %d", e.URL, e.StatusCode)
}
