package project

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ManifestName marks the root of a project.
const ManifestName = "splice.toml"

var ErrNoManifest = errors.New(ManifestName + " not found")

// FindManifest returns the nearest splice.toml at or above startDir.
// ok is false when the filesystem root is reached without one.
func FindManifest(startDir string) (path string, ok bool, err error) {
	dir, err := filepath.Abs(cmp.Or(startDir, "."))
	if err != nil {
		return "", false, fmt.Errorf("resolve %q: %w", startDir, err)
	}
	for {
		path = filepath.Join(dir, ManifestName)
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			return path, true, nil
		case !errors.Is(statErr, fs.ErrNotExist):
			return "", false, statErr
		}
		up := filepath.Dir(dir)
		if up == dir {
			return "", false, nil
		}
		dir = up
	}
}

// FindProjectRoot is FindManifest reporting the directory instead of the file.
func FindProjectRoot(startDir string) (string, bool, error) {
	path, ok, err := FindManifest(startDir)
	if !ok {
		return "", false, err
	}
	return filepath.Dir(path), true, nil
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	if root == "" || path == "" {
		return false
	}
	rel, err := filepath.Rel(root, path)
	return err == nil && filepath.IsLocal(rel) || rel == "."
}
