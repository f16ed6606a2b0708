package preconditions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Check runs every check in order and stops at the first failure
func Check(checks ...Checker) error {
	for _, check := range checks {
		if err := check.Fn(); err != nil {
			return fmt.Errorf("%s: %w", check.Name, err)
		}
	}
	return nil
}

// Checker is a named precondition
type Checker struct {
	Name string
	Fn   func() error
}

// OutputDir checks that dir exists or can be created and accepts new files
func OutputDir(dir string) Checker {
	return Checker{Name: "Output directory", Fn: func() error { return checkWritableDir(dir) }}
}

// OutputFile checks that the directory of path accepts new files
func OutputFile(path string) Checker {
	return Checker{Name: "Output file", Fn: func() error { return checkWritableDir(filepath.Dir(path)) }}
}

// MeshFiles checks that every path is a readable regular file
func MeshFiles(paths ...string) Checker {
	return Checker{Name: "Mesh file", Fn: func() error { return ValidateFiles(paths) }}
}

func checkWritableDir(dir string) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".goslice-probe-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

// ValidateFiles checks if mesh files exist and are readable
func ValidateFiles(paths []string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("cannot access file %s: %w", path, err)
		}

		if info.IsDir() {
			return fmt.Errorf("%s is a directory, not a file", path)
		}

		if !IsMeshFile(path) {
			return fmt.Errorf("%s is not a mesh file (must end in .stl or .obj)", path)
		}

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("cannot read file %s: %w", path, err)
		}
		file.Close()
	}

	return nil
}

// IsMeshFile reports whether path has a mesh extension
func IsMeshFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".stl" || ext == ".obj"
}
