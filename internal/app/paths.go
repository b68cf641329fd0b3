package app

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDirName = "caltrack"
	dbFileName = "caltrack.db"
)

// DefaultDBPath is used when neither --db nor CALTRACK_DB is set.
func DefaultDBPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDirName, dbFileName), nil
}

func EnsureDBDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return nil
}

// ImageDir holds copies of photos passed to `detect --keep`.
func ImageDir(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "images")
}
