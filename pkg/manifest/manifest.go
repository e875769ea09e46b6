// Package manifest assembles the VSC manifest: the computed file inventory
// merged with the authored benchmark document.
package manifest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/benchspec"
)

var (
	// ErrDuplicatePath is returned when two records share a path.
	ErrDuplicatePath = errors.New("duplicate file path")
	// ErrInvalidRecord is returned for records that break the FileRecord shape.
	ErrInvalidRecord = errors.New("invalid file record")
	// ErrUnsorted is returned by Validate when files are out of order.
	ErrUnsorted = errors.New("files not sorted by path")
)

// FileRecord describes one tracked file.
type FileRecord struct {
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
	SHA256 string `json:"sha256"`
}

// Validate checks the record shape: relative slash path, non-negative size,
// 64 lowercase hex characters.
func (r FileRecord) Validate() error {
	if r.Path == "" || strings.HasPrefix(r.Path, "/") || strings.Contains(r.Path, `\`) {
		return fmt.Errorf("%w: path %q", ErrInvalidRecord, r.Path)
	}
	if path.Clean(r.Path) != r.Path || r.Path == ".." || strings.HasPrefix(r.Path, "../") {
		return fmt.Errorf("%w: path %q is not canonical", ErrInvalidRecord, r.Path)
	}
	if r.Bytes < 0 {
		return fmt.Errorf("%w: %s: negative size %d", ErrInvalidRecord, r.Path, r.Bytes)
	}
	if len(r.SHA256) != 64 || strings.ToLower(r.SHA256) != r.SHA256 {
		return fmt.Errorf("%w: %s: sha256 must be 64 lowercase hex chars", ErrInvalidRecord, r.Path)
	}
	if _, err := hex.DecodeString(r.SHA256); err != nil {
		return fmt.Errorf("%w: %s: sha256: %v", ErrInvalidRecord, r.Path, err)
	}
	return nil
}

// Manifest is the full document written to disk. Field order here does not
// matter; the canonical encoding sorts keys.
type Manifest struct {
	Schema       string                           `json:"schema"`
	SpecID       string                           `json:"spec_id"`
	Version      string                           `json:"version"`
	Repo         string                           `json:"repo"`
	Entrypoints  map[string]benchspec.Entrypoint  `json:"entrypoints"`
	Determinism  benchspec.Determinism            `json:"determinism"`
	PinnedParams map[string]any                   `json:"pinned_params"`
	Expected     map[string]benchspec.Expectation `json:"expected"`
	Files        []FileRecord                     `json:"files"`
}

// Assemble merges records with the benchmark document. It does no I/O and
// leaves both inputs untouched; the returned files are sorted by path.
func Assemble(files []FileRecord, doc *benchspec.Document) (*Manifest, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", benchspec.ErrInvalidDocument)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	sorted := make([]FileRecord, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for i, r := range sorted {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if i > 0 && sorted[i-1].Path == r.Path {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, r.Path)
		}
	}

	return &Manifest{
		Schema:       doc.Schema,
		SpecID:       doc.SpecID,
		Version:      doc.Version,
		Repo:         doc.Repo,
		Entrypoints:  doc.Entrypoints,
		Determinism:  doc.Determinism,
		PinnedParams: doc.PinnedParams,
		Expected:     doc.Expected,
		Files:        sorted,
	}, nil
}

// Validate checks the files invariant: strictly ascending, well-formed records.
func (m *Manifest) Validate() error {
	for i, r := range m.Files {
		if err := r.Validate(); err != nil {
			return err
		}
		if i == 0 {
			continue
		}
		switch prev := m.Files[i-1].Path; {
		case prev == r.Path:
			return fmt.Errorf("%w: %s", ErrDuplicatePath, r.Path)
		case prev > r.Path:
			return fmt.Errorf("%w: %s before %s", ErrUnsorted, prev, r.Path)
		}
	}
	return nil
}
