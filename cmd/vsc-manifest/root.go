package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// rootMarkers identify a repository root.
var rootMarkers = []string{"Cargo.toml", "go.mod", ".git"}

var errNoRoot = errors.New("repository root not found")

// discoverRoot looks upward from the executable's directory, then from the
// working directory, for the first directory holding a root marker.
func discoverRoot() (string, error) {
	var starts []string
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		starts = append(starts, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		starts = append(starts, wd)
	}

	for _, start := range starts {
		if root, ok := findRoot(start); ok {
			return root, nil
		}
	}
	return "", fmt.Errorf("%w above %v (pass -root)", errNoRoot, starts)
}

// findRoot walks from dir towards the filesystem root.
func findRoot(dir string) (string, bool) {
	dir = filepath.Clean(dir)
	for {
		for _, m := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
