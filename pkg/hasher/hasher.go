// Package hasher computes streaming SHA-256 content digests for tracked files.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/manifest"
	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/tree"
)

// ChunkSize bounds the read buffer, so memory use does not grow with file size.
const ChunkSize = 1 << 20

// HashReader returns the lowercase hex SHA-256 of everything read from r.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	// Hide any WriterTo so every read uses the ChunkSize buffer.
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{r}, make([]byte, ChunkSize)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile streams the file at path through SHA-256.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sum, err := HashReader(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return sum, nil
}

// Record builds the manifest record for an enumerated file. The size comes
// from file metadata, not from the number of bytes hashed.
func Record(e tree.Entry) (manifest.FileRecord, error) {
	info, err := os.Stat(e.Source)
	if err != nil {
		return manifest.FileRecord{}, fmt.Errorf("stat %s: %w", e.Path, err)
	}

	sum, err := HashFile(e.Source)
	if err != nil {
		return manifest.FileRecord{}, fmt.Errorf("hash %s: %w", e.Path, err)
	}

	return manifest.FileRecord{
		Path:   e.Path,
		Bytes:  info.Size(),
		SHA256: sum,
	}, nil
}
