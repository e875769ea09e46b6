// Package digest persists a serialized manifest together with the SHA-256 of
// its on-disk bytes.
package digest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/hasher"
)

// ErrMalformedDigest is returned when a digest file is not 64 lowercase hex
// characters followed by a single newline.
var ErrMalformedDigest = errors.New("malformed digest file")

// Outputs names the two files a run produces.
type Outputs struct {
	Manifest string `validate:"required,nefield=Digest"`
	Digest   string `validate:"required"`
}

// Result describes what Write committed.
type Result struct {
	ManifestPath string
	DigestPath   string
	Bytes        int
	Digest       string
}

// Write stores data at out.Manifest, hashes the bytes read back from disk and
// stores that digest plus "\n" at out.Digest. Each file is replaced
// atomically; a failure after the manifest is committed leaves it in place.
func Write(data []byte, out Outputs) (*Result, error) {
	for _, p := range []string{out.Manifest, out.Digest} {
		//nolint:gosec // G301: output dir is part of the repository tree
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("create output dir for %s: %w", p, err)
		}
	}

	if err := writeAtomic(out.Manifest, data); err != nil {
		return nil, err
	}

	sum, err := hasher.HashFile(out.Manifest)
	if err != nil {
		return nil, fmt.Errorf("read back manifest: %w", err)
	}

	if err := writeAtomic(out.Digest, []byte(sum+"\n")); err != nil {
		return nil, err
	}

	return &Result{
		ManifestPath: out.Manifest,
		DigestPath:   out.Digest,
		Bytes:        len(data),
		Digest:       sum,
	}, nil
}

// Read returns the digest stored at path.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read digest %s: %w", path, err)
	}
	s := string(data)
	if !strings.HasSuffix(s, "\n") {
		return "", fmt.Errorf("%w: %s: missing trailing newline", ErrMalformedDigest, path)
	}
	s = strings.TrimSuffix(s, "\n")
	if len(s) != 64 || strings.Trim(s, "0123456789abcdef") != "" {
		return "", fmt.Errorf("%w: %s", ErrMalformedDigest, path)
	}
	return s, nil
}

// writeAtomic writes to a temp file next to path, then renames it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	//nolint:gosec // G302: manifest files are meant to be world-readable
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	committed = true
	return nil
}
