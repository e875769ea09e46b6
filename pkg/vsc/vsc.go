// Package vsc runs the manifest pipeline: enumerate the tree, hash every
// file, assemble the manifest, canonicalize it and persist it with its digest.
//
// Everything runs sequentially on the calling goroutine. Outputs are only
// touched after the whole manifest has been serialized, so a read failure
// leaves the previous run's files as they were.
package vsc

import (
	"fmt"
	"io"
	"time"

	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/benchspec"
	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/canonicalize"
	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/digest"
	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/hasher"
	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/manifest"
	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/tree"
)

// Summary is the human-readable outcome of Generate.
type Summary struct {
	ManifestPath string
	DigestPath   string
	Digest       string
	Files        int
}

// WriteTo prints the four summary lines.
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "wrote %s\nwrote %s\nsha256 %s\nn_files %d\n",
		s.ManifestPath, s.DigestPath, s.Digest, s.Files)
	return int64(n), err
}

// Build computes the manifest and its canonical bytes without writing anything.
func Build(opts Options, doc *benchspec.Document) (*manifest.Manifest, []byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	log := opts.logger()
	start := time.Now()

	entries, err := tree.Enumerate(opts.Root, opts.exclusions())
	if err != nil {
		return nil, nil, fmt.Errorf("enumerate: %w", err)
	}
	log.Debug("tree enumerated", "root", opts.Root, "files", len(entries))

	records := make([]manifest.FileRecord, 0, len(entries))
	for _, e := range entries {
		rec, err := hasher.Record(e)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("file hashed", "path", rec.Path, "bytes", rec.Bytes, "sha256", rec.SHA256)
		records = append(records, rec)
	}

	m, err := manifest.Assemble(records, doc)
	if err != nil {
		return nil, nil, fmt.Errorf("assemble: %w", err)
	}

	data, err := canonicalize.JCS(m)
	if err != nil {
		return nil, nil, fmt.Errorf("serialize manifest: %w", err)
	}

	log.Debug("manifest built", "files", len(m.Files), "bytes", len(data), "elapsed", time.Since(start))
	return m, data, nil
}

// Generate builds the manifest and writes both outputs.
func Generate(opts Options, doc *benchspec.Document) (*Summary, error) {
	m, data, err := Build(opts, doc)
	if err != nil {
		return nil, err
	}

	res, err := digest.Write(data, opts.Outputs)
	if err != nil {
		return nil, err
	}

	opts.logger().Info("manifest written",
		"manifest", res.ManifestPath,
		"bytes", res.Bytes,
		"sha256", res.Digest,
		"files", len(m.Files),
	)

	return &Summary{
		ManifestPath: res.ManifestPath,
		DigestPath:   res.DigestPath,
		Digest:       res.Digest,
		Files:        len(m.Files),
	}, nil
}
