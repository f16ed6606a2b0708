// Package store keeps generated G-code documents on disk, keyed by UUID.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no artifact exists for an id
var ErrNotFound = errors.New("artifact not found")

// Store is a directory of G-code artifacts
type Store struct {
	Dir string
}

// New creates the directory if needed and returns a store rooted at dir
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// NewID returns a fresh artifact id
func NewID() string {
	return uuid.NewString()
}

// Filename returns the download name of an artifact
func Filename(id string) string {
	return "goslice_" + id + ".gcode"
}

// Path returns the file path of an artifact. Only UUIDs are accepted so that
// an id can never escape the store directory.
func (s *Store) Path(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return "", fmt.Errorf("invalid artifact id %q", id)
	}
	return filepath.Join(s.Dir, Filename(id)), nil
}

// Save writes the document produced by src under id
func (s *Store) Save(id string, src io.WriterTo) error {
	path, err := s.Path(id)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.Dir, ".goslice-*")
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := src.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}
	return nil
}

// Open returns the stored artifact. The caller closes it.
func (s *Store) Open(id string) (*os.File, error) {
	path, err := s.Path(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return f, nil
}
