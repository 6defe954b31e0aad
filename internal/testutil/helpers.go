package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"procsync/internal/source"
	"procsync/internal/warehouse"
)

// NewMockWarehouse returns a warehouse service backed by sqlmock
func NewMockWarehouse(t *testing.T) (*warehouse.Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return warehouse.NewServiceWithDB(db), mock
}

// NewMockSourceReader returns an operational reader backed by sqlmock
func NewMockSourceReader(t *testing.T) (*source.Reader, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return source.NewReaderWithDB(sqlx.NewDb(db, "sqlite3")), mock
}

// TempLockPath returns a lock file path inside a per-test temp directory
func TempLockPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "procsync.lock")
}

// WriteFile writes content to a file under dir, creating parents
func WriteFile(t *testing.T, dir, filename, content string) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directories: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}
