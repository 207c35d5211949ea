package store

import (
	"fmt"
	"os"
	"time"
)

const (
	lockRetries    = 50
	lockRetryDelay = 100 * time.Millisecond
	// A lock file older than this is left over from a crashed process.
	lockStaleAfter = 30 * time.Second
)

// FileLock is an exclusive advisory lock on a path, held through a sidecar
// "<path>.lock" file so it works the same way on every platform.
type FileLock struct {
	lockFile *os.File
	lockPath string
}

// Lock acquires the lock for path, waiting up to lockRetries*lockRetryDelay
// for another process to release it.
func Lock(path string) (*FileLock, error) {
	lockPath := path + ".lock"

	for i := 0; i < lockRetries; i++ {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			// PID helps when debugging a stuck lock.
			fmt.Fprintf(lockFile, "%d", os.Getpid())
			return &FileLock{lockFile: lockFile, lockPath: lockPath}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire file lock: %w", err)
		}

		if info, statErr := os.Stat(lockPath); statErr == nil &&
			time.Since(info.ModTime()) > lockStaleAfter {
			if remErr := os.Remove(lockPath); remErr != nil && !os.IsNotExist(remErr) {
				return nil, fmt.Errorf("failed to remove stale lock file %s: %w", lockPath, remErr)
			}
			continue
		}

		time.Sleep(lockRetryDelay)
	}

	return nil, fmt.Errorf(
		"timeout waiting for file lock after %v",
		time.Duration(lockRetries)*lockRetryDelay,
	)
}

// Release drops the lock.
func (fl *FileLock) Release() error {
	if fl.lockFile != nil {
		fl.lockFile.Close()
	}
	return os.Remove(fl.lockPath)
}
