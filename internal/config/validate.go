package config

import (
	"fmt"
	"regexp"
	"strings"
)

// repoPartPattern validates owner and repo segments.
var repoPartPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the config for required fields and valid values.
func Validate(c *Config) error {
	var errors []string

	if c.Owner == "" {
		errors = append(errors, ValidationError{Field: "owner", Message: "owner is required"}.Error())
	} else if !repoPartPattern.MatchString(c.Owner) {
		errors = append(errors, ValidationError{Field: "owner", Message: fmt.Sprintf("invalid owner '%s'", c.Owner)}.Error())
	}

	if c.Repo == "" {
		errors = append(errors, ValidationError{Field: "repo", Message: "repo is required"}.Error())
	} else if !repoPartPattern.MatchString(c.Repo) {
		errors = append(errors, ValidationError{Field: "repo", Message: fmt.Sprintf("invalid repo '%s'", c.Repo)}.Error())
	}

	if c.AssetSuffix != "" && !strings.HasPrefix(c.AssetSuffix, ".") {
		errors = append(errors, ValidationError{Field: "asset_suffix", Message: "must start with a dot"}.Error())
	}

	if c.VersionFile != "" && strings.ContainsAny(c.VersionFile, `/\`) {
		errors = append(errors, ValidationError{Field: "version_file", Message: "must be a bare filename"}.Error())
	}

	if c.ClosureWaitSeconds < 0 {
		errors = append(errors, ValidationError{Field: "closure_wait_seconds", Message: "cannot be negative"}.Error())
	}

	if c.PollIntervalSeconds < 0 {
		errors = append(errors, ValidationError{Field: "poll_interval_seconds", Message: "cannot be negative"}.Error())
	}

	for _, url := range []struct{ field, value string }{
		{"api_base_url", c.APIBaseURL},
		{"raw_base_url", c.RawBaseURL},
		{"archive_base_url", c.ArchiveBaseURL},
	} {
		if url.value != "" && !strings.HasPrefix(url.value, "http://") && !strings.HasPrefix(url.value, "https://") {
			errors = append(errors, ValidationError{Field: url.field, Message: "must be an http(s) URL"}.Error())
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
