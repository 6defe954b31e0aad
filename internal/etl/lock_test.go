package etl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procsync/pkg/errors"
)

func TestAcquireRunLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procsync.lock")

	lock, err := AcquireRunLock(path)
	require.NoError(t, err)
	require.NotNil(t, lock)

	// The lock file records who holds it
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "pid=")

	require.NoError(t, lock.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireRunLockHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procsync.lock")

	first, err := AcquireRunLock(path)
	require.NoError(t, err)
	defer first.Release()

	second, err := AcquireRunLock(path)
	assert.Nil(t, second)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLockHeld, errors.GetErrorCode(err))
}

func TestRunLockReacquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procsync.lock")

	first, err := AcquireRunLock(path)
	require.NoError(t, err)
	require.NoError(t, first.Release())

	second, err := AcquireRunLock(path)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestRunLockReleaseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procsync.lock")

	lock, err := AcquireRunLock(path)
	require.NoError(t, err)

	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())
}
