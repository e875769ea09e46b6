package manifest

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Drift lists how a stored inventory differs from a fresh one.
type Drift struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

// Empty reports whether the inventories match.
func (d Drift) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// DecodeFiles extracts the file inventory from serialized manifest bytes.
func DecodeFiles(data []byte) ([]FileRecord, error) {
	var stored struct {
		Files []FileRecord `json:"files"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode manifest files: %w", err)
	}
	return stored.Files, nil
}

// Diff compares a stored inventory against the current one. A path whose
// size or digest differs is Changed.
func Diff(stored, current []FileRecord) Drift {
	old := make(map[string]FileRecord, len(stored))
	for _, r := range stored {
		old[r.Path] = r
	}

	var d Drift
	for _, r := range current {
		prev, ok := old[r.Path]
		if !ok {
			d.Added = append(d.Added, r.Path)
			continue
		}
		if prev != r {
			d.Changed = append(d.Changed, r.Path)
		}
		delete(old, r.Path)
	}
	for p := range old {
		d.Removed = append(d.Removed, p)
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	return d
}
