// Package store reads and writes the small YAML documents kept in the xtv
// config directory. Writes are atomic and serialized across processes.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/xtvctl/xtv/fault"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// ReadYAML decodes the document at path into v. found is false when the file
// does not exist; that is not an error.
func ReadYAML(path string, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fault.Wrap(fault.Persistence, "read "+path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return false, fault.Wrap(fault.Persistence, "parse "+path, err)
	}
	return true, nil
}

// WriteYAML replaces path with the YAML encoding of v. The write goes to a
// temp file renamed over path while holding the sidecar lock.
func WriteYAML(path string, v any) error {
	op := "write " + path

	data, err := yaml.Marshal(v)
	if err != nil {
		return fault.Wrap(fault.Persistence, op, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fault.Wrap(fault.Persistence, op, err)
	}

	lock, err := Lock(path)
	if err != nil {
		return fault.Wrap(fault.Persistence, op, err)
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			fmt.Fprintf(os.Stderr, "failed to release lock: %v\n", releaseErr)
		}
	}()

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, filePerm); err != nil {
		return fault.Wrap(fault.Persistence, op, fmt.Errorf("failed to write temp file: %w", err))
	}

	if err := os.Rename(tempFile, path); err != nil {
		if removeErr := os.Remove(tempFile); removeErr != nil {
			return fault.Wrap(fault.Persistence, op, fmt.Errorf(
				"failed to rename temp file: %v; additionally failed to remove temp file: %w",
				err,
				removeErr,
			))
		}
		return fault.Wrap(fault.Persistence, op, fmt.Errorf("failed to rename temp file: %w", err))
	}

	return nil
}

// Remove deletes path. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fault.Wrap(fault.Persistence, "remove "+path, err)
	}
	return nil
}
