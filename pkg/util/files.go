package util

import (
	"errors"
	"io/fs"
	"os"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// TempFile creates a temporary file with a specific extension
func TempFile(dir, pattern, ext string) (*os.File, error) {
	return os.CreateTemp(dir, pattern+"*"+ext)
}

// IgnorableRemoveError reports whether a removal failure is an OS-level
// filesystem error (missing file, permission denied, busy file) that
// best-effort cleanup treats as success.
func IgnorableRemoveError(err error) bool {
	var pathErr *fs.PathError
	return errors.As(err, &pathErr)
}

// RemoveBestEffort deletes path, swallowing OS-level filesystem errors.
// It reports whether the file is known to be gone.
func RemoveBestEffort(path string) bool {
	err := os.Remove(path)
	if err == nil {
		return true
	}
	if IgnorableRemoveError(err) {
		return errors.Is(err, fs.ErrNotExist)
	}
	return false
}

// CleanupFiles removes multiple files, ignoring errors
func CleanupFiles(paths ...string) {
	for _, path := range paths {
		RemoveBestEffort(path)
	}
}
