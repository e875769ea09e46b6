package vsc

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/digest"
	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/tree"
)

// Relative locations of the two outputs inside the repository.
const (
	ManifestRelPath = "vsc/manifest.json"
	DigestRelPath   = "vsc/manifest.sha256"
)

// ExcludedDirs are pruned wherever they appear: VCS metadata and build output.
var ExcludedDirs = []string{".git", "target"}

// Options is everything a run depends on besides the benchmark document.
type Options struct {
	Root       string `validate:"required"`
	Outputs    digest.Outputs
	Exclusions tree.Exclusions
	Logger     *slog.Logger `validate:"-"`
}

var optionsValidate = validator.New()

// Validate checks that the options name a root and two distinct outputs.
// Whether the root exists is left to the enumerator.
func (o Options) Validate() error {
	if err := optionsValidate.Struct(o); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// DefaultOptions returns the compiled-in layout for a repository at root.
// The outputs are always excluded from enumeration so the manifest never
// describes itself.
func DefaultOptions(root string) Options {
	return Options{
		Root: root,
		Outputs: digest.Outputs{
			Manifest: filepath.Join(root, filepath.FromSlash(ManifestRelPath)),
			Digest:   filepath.Join(root, filepath.FromSlash(DigestRelPath)),
		},
		Exclusions: tree.Exclusions{
			Dirs:  append([]string(nil), ExcludedDirs...),
			Files: []string{ManifestRelPath, DigestRelPath},
		},
	}
}

// exclusions returns o.Exclusions plus every output that lies inside Root,
// whatever Exclusions.Files says, so a run never records its own outputs.
func (o Options) exclusions() tree.Exclusions {
	ex := tree.Exclusions{
		Dirs:  o.Exclusions.Dirs,
		Files: append([]string(nil), o.Exclusions.Files...),
	}
	for _, out := range []string{o.Outputs.Manifest, o.Outputs.Digest} {
		rel, err := filepath.Rel(o.Root, out)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		ex.Files = append(ex.Files, rel)
	}
	return ex
}

func (o Options) logger() *slog.Logger {
	l := o.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", "vsc")
}
