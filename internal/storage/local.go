package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore keeps documents on the local filesystem.
type LocalStore struct{}

// NewLocalStore returns a filesystem store.
func NewLocalStore() *LocalStore {
	return &LocalStore{}
}

// Read returns the content of the file at location.
func (s *LocalStore) Read(_ context.Context, location string) ([]byte, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	return data, nil
}

// Write replaces the file at location atomically: the data goes to a
// temporary file in the same directory which is then renamed into place.
// Parent directories are created as needed.
func (s *LocalStore) Write(_ context.Context, location string, data []byte) error {
	dir := filepath.Dir(location)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(location)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	// Remove the temporary file on any failure below.
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", location, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", location, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", location, err)
	}
	if err := os.Rename(tmpName, location); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", location, err)
	}

	committed = true
	return nil
}

// Delete removes the file at location. A missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, location string) error {
	if err := os.Remove(location); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", location, err)
	}
	return nil
}
