// Package update sequences release discovery, archive acquisition, and safe
// in-place installation for both source-tree and packaged-executable
// installs of the application.
package update

import "fmt"

// StagingError reports a failure to place the new executable beside the
// live one. Nothing live has been touched when it is returned.
type StagingError struct {
	Path string
	Err  error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging new executable at %s: %v", e.Path, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }

// ScriptError reports a failure to generate or write the replacement script.
type ScriptError struct {
	Path string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("generating replacement script %s: %v", e.Path, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }
