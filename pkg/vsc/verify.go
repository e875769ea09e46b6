package vsc

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/benchspec"
	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/canonicalize"
	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/digest"
	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/manifest"
)

// Report is the result of checking stored outputs against the current tree.
type Report struct {
	ManifestPath string `json:"manifest_path"`
	DigestPath   string `json:"digest_path"`

	// StoredDigest is the content of the digest file.
	StoredDigest string `json:"stored_digest"`
	// OnDiskDigest is the hash of the manifest file as it is now.
	OnDiskDigest string `json:"on_disk_digest"`
	// CurrentDigest is the hash of a manifest rebuilt from the tree.
	CurrentDigest string `json:"current_digest"`

	DigestMatches   bool           `json:"digest_matches"`
	ManifestMatches bool           `json:"manifest_matches"`
	Drift           manifest.Drift `json:"drift"`
	Files           int            `json:"files"`
}

// Verified reports whether the outputs are self-consistent and up to date.
func (r *Report) Verified() bool {
	return r.DigestMatches && r.ManifestMatches
}

// WriteTo prints a short human-readable account of the check.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if r.Verified() {
		fmt.Fprintf(&buf, "ok %s\n", r.ManifestPath)
		fmt.Fprintf(&buf, "sha256 %s\n", r.StoredDigest)
		fmt.Fprintf(&buf, "n_files %d\n", r.Files)
		return buf.WriteTo(w)
	}

	if !r.DigestMatches {
		fmt.Fprintf(&buf, "digest mismatch: %s says %s, manifest hashes to %s\n",
			r.DigestPath, r.StoredDigest, r.OnDiskDigest)
	}
	if !r.ManifestMatches {
		fmt.Fprintf(&buf, "stale manifest: tree now hashes to %s\n", r.CurrentDigest)
		if r.Drift.Empty() {
			fmt.Fprintf(&buf, "  files unchanged, benchmark metadata differs\n")
		}
		for _, p := range r.Drift.Added {
			fmt.Fprintf(&buf, "  + %s\n", p)
		}
		for _, p := range r.Drift.Removed {
			fmt.Fprintf(&buf, "  - %s\n", p)
		}
		for _, p := range r.Drift.Changed {
			fmt.Fprintf(&buf, "  ~ %s\n", p)
		}
	}
	return buf.WriteTo(w)
}

// Verify rebuilds the manifest in memory and compares it with the stored
// outputs. Nothing is written. A missing or unreadable output is an error;
// a mismatch is reported through the Report.
func Verify(opts Options, doc *benchspec.Document) (*Report, error) {
	stored, err := os.ReadFile(opts.Outputs.Manifest)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	storedDigest, err := digest.Read(opts.Outputs.Digest)
	if err != nil {
		return nil, err
	}

	current, data, err := Build(opts, doc)
	if err != nil {
		return nil, err
	}

	r := &Report{
		ManifestPath:    opts.Outputs.Manifest,
		DigestPath:      opts.Outputs.Digest,
		StoredDigest:    storedDigest,
		OnDiskDigest:    canonicalize.HashBytes(stored),
		CurrentDigest:   canonicalize.HashBytes(data),
		ManifestMatches: bytes.Equal(stored, data),
		Files:           len(current.Files),
	}
	r.DigestMatches = r.StoredDigest == r.OnDiskDigest

	if !r.ManifestMatches {
		previous, err := manifest.DecodeFiles(stored)
		if err != nil {
			opts.logger().Warn("stored manifest unreadable, reporting every file as added", "error", err)
		}
		r.Drift = manifest.Diff(previous, current.Files)
	}

	opts.logger().Debug("verification finished",
		"digest_matches", r.DigestMatches,
		"manifest_matches", r.ManifestMatches,
		"added", len(r.Drift.Added),
		"removed", len(r.Drift.Removed),
		"changed", len(r.Drift.Changed),
	)
	return r, nil
}
