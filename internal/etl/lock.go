package etl

import (
	"fmt"
	"os"
	"time"

	"procsync/internal/common"
	"procsync/pkg/errors"
)

// RunLock is the advisory file lock serializing ETL runs. Exactly one run
// may hold write access to the analytics store at a time.
type RunLock struct {
	path     string
	acquired bool
}

// AcquireRunLock takes the advisory lock, failing immediately if another
// run holds it.
func AcquireRunLock(path string) (*RunLock, error) {
	cleaned, err := common.CleanPath(path)
	if err != nil {
		return nil, errors.ConfigError("Invalid lock file path", "etl.lock_file")
	}

	f, err := os.OpenFile(cleaned, os.O_CREATE|os.O_EXCL|os.O_WRONLY, common.FilePermissionSecure)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.New(errors.ErrCodeLockHeld, "Another ETL run holds the run lock").
				WithContext("lock_file", cleaned).
				WithSuggestions(
					"Wait for the running sync to finish",
					fmt.Sprintf("Remove %s manually if the previous run crashed", cleaned),
				)
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "Failed to create run lock")
	}

	fmt.Fprintf(f, "pid=%d acquired=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	f.Close()

	return &RunLock{path: cleaned, acquired: true}, nil
}

// Release removes the lock file. Safe to call more than once.
func (l *RunLock) Release() error {
	if !l.acquired {
		return nil
	}
	l.acquired = false
	return os.Remove(l.path)
}
