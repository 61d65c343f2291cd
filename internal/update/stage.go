package update

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spriteforge/updater/internal/fsutil"
)

// Stager places a new executable at the plan's staged path. Staging never
// touches the live executable: any failure here leaves the install intact.
type Stager struct {
	guard  *fsutil.Guard
	merger *fsutil.Merger
}

// NewStager creates a Stager using the given guard for lock handling.
func NewStager(guard *fsutil.Guard) *Stager {
	return &Stager{guard: guard, merger: fsutil.NewMerger(guard)}
}

// Stage copies newExe to plan.StagedPath, clearing a leftover staged file
// first, and verifies the result is present and non-empty.
func (st *Stager) Stage(newExe string, plan InstallPlan) error {
	if _, err := os.Stat(plan.StagedPath); err == nil && st.guard.IsLocked(plan.StagedPath) {
		if !st.guard.WaitForUnlock(plan.StagedPath, 5, 2*time.Second) {
			if err := os.Remove(plan.StagedPath); err != nil {
				return &StagingError{Path: plan.StagedPath, Err: fmt.Errorf("staged path is locked: %w", err)}
			}
		}
	}

	if err := st.merger.CopyFile(newExe, plan.StagedPath); err != nil {
		return &StagingError{Path: plan.StagedPath, Err: err}
	}

	info, err := os.Stat(plan.StagedPath)
	if err != nil {
		return &StagingError{Path: plan.StagedPath, Err: errors.New("staged file absent after copy")}
	}
	if info.Size() == 0 {
		_ = os.Remove(plan.StagedPath)
		return &StagingError{Path: plan.StagedPath, Err: errors.New("staged file is empty")}
	}

	return os.Chmod(plan.StagedPath, 0755)
}
