// Package tree enumerates the files of a source tree in a stable,
// host-independent order.
package tree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrDuplicatePath is returned when two on-disk names normalize to the same path.
	ErrDuplicatePath = errors.New("duplicate normalized path")
	// ErrInvalidPath is returned for names that cannot be represented as UTF-8 text.
	ErrInvalidPath = errors.New("path is not valid UTF-8")
)

// Exclusions lists what the enumerator never reports.
type Exclusions struct {
	// Dirs are directory base names pruned at any depth.
	Dirs []string `validate:"dive,required,excludesall=/"`
	// Files are exact relative paths (slash-separated) skipped after normalization.
	Files []string `validate:"dive,required"`
}

// Entry is one enumerated file.
type Entry struct {
	// Path is the normalized, slash-separated path relative to the root.
	Path string
	// Source is the host path used to read the file.
	Source string
}

// Normalize converts a host relative path into the manifest form:
// slash separators, cleaned, Unicode NFC. A backslash is a separator on every
// host, so a name like `we\ird.txt` made on Linux reads as `we/ird.txt`.
func Normalize(rel string) string {
	p := path.Clean(strings.ReplaceAll(filepath.ToSlash(rel), `\`, "/"))
	p = strings.TrimPrefix(p, "./")
	return norm.NFC.String(p)
}

// Enumerate walks root and returns every regular file not covered by ex,
// sorted ascending by Path. The order does not depend on traversal order.
func Enumerate(root string, ex Exclusions) ([]Entry, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	root = resolved

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	pruned := make(map[string]struct{}, len(ex.Dirs))
	for _, d := range ex.Dirs {
		pruned[d] = struct{}{}
	}
	skipped := make(map[string]struct{}, len(ex.Files))
	for _, f := range ex.Files {
		skipped[Normalize(f)] = struct{}{}
	}

	entries := []Entry{}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("walk %s: %w", p, walkErr)
		}
		if d.IsDir() {
			if p == root {
				return nil
			}
			if _, ok := pruned[d.Name()]; ok {
				return filepath.SkipDir
			}
			return nil
		}

		include, err := isTrackedFile(p, d)
		if err != nil || !include {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("relative path %s: %w", p, err)
		}
		if !utf8.ValidString(rel) {
			return fmt.Errorf("%w: %q", ErrInvalidPath, rel)
		}
		rel = Normalize(rel)
		if _, ok := skipped[rel]; ok {
			return nil
		}

		entries = append(entries, Entry{Path: rel, Source: p})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	for i := 1; i < len(entries); i++ {
		if entries[i].Path == entries[i-1].Path {
			return nil, fmt.Errorf("%w: %s (%s, %s)", ErrDuplicatePath,
				entries[i].Path, entries[i-1].Source, entries[i].Source)
		}
	}
	return entries, nil
}

// isTrackedFile reports whether a non-directory walk entry is recorded.
// Symlinks count when they resolve to a regular file; links to directories
// are not followed. A dangling link is an error.
func isTrackedFile(p string, d fs.DirEntry) (bool, error) {
	mode := d.Type()
	switch {
	case mode.IsRegular():
		return true, nil
	case mode&fs.ModeSymlink != 0:
		target, err := os.Stat(p)
		if err != nil {
			return false, fmt.Errorf("resolve symlink %s: %w", p, err)
		}
		return target.Mode().IsRegular(), nil
	default:
		return false, nil
	}
}
