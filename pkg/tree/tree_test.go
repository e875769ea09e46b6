package tree

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultExclusions = Exclusions{
	Dirs:  []string{".git", "target"},
	Files: []string{"vsc/manifest.json", "vsc/manifest.sha256"},
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func paths(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func TestEnumerate_ExcludesDirsAndOutputs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hi")
	writeFile(t, root, "sub/b.txt", "bye")
	writeFile(t, root, ".git/c.txt", "x")
	writeFile(t, root, ".git/objects/deep/d", "x")
	writeFile(t, root, "target/debug/bin", "x")
	writeFile(t, root, "nested/target/release/lib", "x")
	writeFile(t, root, "vsc/manifest.json", "{}")
	writeFile(t, root, "vsc/manifest.sha256", "0\n")
	writeFile(t, root, "vsc/notes.md", "kept")

	entries, err := Enumerate(root, defaultExclusions)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "sub/b.txt", "vsc/notes.md"}, paths(entries))

	for _, e := range entries {
		_, statErr := os.Stat(e.Source)
		assert.NoError(t, statErr, "source for %s must be readable", e.Path)
	}
}

func TestEnumerate_PrunedNameOnlyMatchesDirectories(t *testing.T) {
	root := t.TempDir()
	// A regular file named like an excluded directory is still tracked.
	writeFile(t, root, "target", "file, not dir")

	entries, err := Enumerate(root, defaultExclusions)
	require.NoError(t, err)
	assert.Equal(t, []string{"target"}, paths(entries))
}

func TestEnumerate_SortedByteWise(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"b", "C", "a/z", "a.b", "a_b", "Z/1", "a/A"} {
		writeFile(t, root, rel, rel)
	}

	entries, err := Enumerate(root, Exclusions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "Z/1", "a.b", "a/A", "a/z", "a_b", "b"}, paths(entries))
}

func TestEnumerate_EmptyRoot(t *testing.T) {
	entries, err := Enumerate(t.TempDir(), defaultExclusions)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestEnumerate_OnlyExcludedContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/HEAD", "ref")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "dir"), 0o755))

	entries, err := Enumerate(root, defaultExclusions)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEnumerate_MissingRoot(t *testing.T) {
	_, err := Enumerate(filepath.Join(t.TempDir(), "nope"), defaultExclusions)
	assert.Error(t, err)
}

func TestEnumerate_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "f", "x")

	_, err := Enumerate(filepath.Join(root, "f"), defaultExclusions)
	assert.Error(t, err)
}

func TestEnumerate_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	writeFile(t, root, "real/f.txt", "data")
	require.NoError(t, os.Symlink("real/f.txt", filepath.Join(root, "link.txt")))
	require.NoError(t, os.Symlink("real", filepath.Join(root, "linkdir")))

	entries, err := Enumerate(root, Exclusions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"link.txt", "real/f.txt"}, paths(entries))
}

func TestEnumerate_DanglingSymlinkFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	require.NoError(t, os.Symlink("missing", filepath.Join(root, "broken")))

	_, err := Enumerate(root, Exclusions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "vsc/manifest.json", Normalize("./vsc//manifest.json"))
	assert.Equal(t, "a/b", Normalize(filepath.Join("a", "b")))
	// "e" + combining acute accent composes to U+00E9.
	assert.Equal(t, "caf\u00e9.txt", Normalize("cafe\u0301.txt"))
	assert.Equal(t, "we/ird.txt", Normalize(`we\ird.txt`))
}

func TestEnumerate_BackslashInName(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("backslash is the host separator")
	}
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, `we\ird.txt`, "w")

	entries, err := Enumerate(root, Exclusions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "we/ird.txt"}, paths(entries))
	assert.Equal(t, `we\ird.txt`, filepath.Base(entries[1].Source))

	writeFile(t, root, "we/ird.txt", "x")
	_, err = Enumerate(root, Exclusions{})
	assert.ErrorIs(t, err, ErrDuplicatePath)
}

func TestEnumerate_ExactExclusionIsNormalized(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "vsc/manifest.json", "{}")
	writeFile(t, root, "keep", "k")

	entries, err := Enumerate(root, Exclusions{Files: []string{"./vsc//manifest.json"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, paths(entries))
}

func TestEnumerate_NormalizationCollision(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("needs a filesystem that keeps NFC and NFD names apart")
	}
	root := t.TempDir()
	writeFile(t, root, "café.txt", "nfd")
	writeFile(t, root, "café.txt", "nfc")

	_, err := Enumerate(root, Exclusions{})
	assert.ErrorIs(t, err, ErrDuplicatePath)
}

func TestEnumerate_DecomposedNameIsRecordedComposed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "café.txt", "nfd")

	entries, err := Enumerate(root, Exclusions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "café.txt", entries[0].Path)

	data, err := os.ReadFile(entries[0].Source)
	require.NoError(t, err)
	assert.Equal(t, "nfd", string(data))
}
