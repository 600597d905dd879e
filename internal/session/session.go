// internal/session/session.go
package session

import (
	"os"
	"path/filepath"
)

// Store points at the persisted browser storage state for one channel.
// The file itself is opaque (written by Playwright); this package only
// manages its location and lifecycle so a manual login survives across
// runs.
type Store struct {
	Path string
}

// New normalizes the path to absolute and makes sure the parent directory
// exists.
func New(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, err
	}
	return &Store{Path: abs}, nil
}

// Exists reports whether a non-empty session state has been saved.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.Path)
	return err == nil && info.Size() > 0
}

// Clear removes the saved state, forcing a fresh login on the next run.
func (s *Store) Clear() error {
	err := os.Remove(s.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
