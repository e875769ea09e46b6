package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{"vsc-manifest"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_GenerateFourLines(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hi")
	writeFile(t, root, "sub/b.txt", "bye")
	writeFile(t, root, ".git/c.txt", "x")

	code, stdout, stderr := run("-root", root)
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "wrote "+filepath.Join(root, "vsc", "manifest.json"), lines[0])
	assert.Equal(t, "wrote "+filepath.Join(root, "vsc", "manifest.sha256"), lines[1])
	assert.Regexp(t, `^sha256 [0-9a-f]{64}$`, lines[2])
	assert.Equal(t, "n_files 2", lines[3])

	stored, err := os.ReadFile(filepath.Join(root, "vsc", "manifest.sha256"))
	require.NoError(t, err)
	assert.Equal(t, strings.TrimPrefix(lines[2], "sha256 ")+"\n", string(stored))
}

func TestRun_GenerateSubcommandMatchesDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hi")

	code, first, _ := run("-root", root)
	require.Equal(t, 0, code)
	code, second, _ := run("generate", "-root", root)
	require.Equal(t, 0, code)
	assert.Equal(t, first, second)
}

func TestRun_VerifyExitCodes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hi")

	code, _, _ := run("verify", "-root", root)
	assert.Equal(t, 2, code, "missing outputs is an error")

	code, _, _ = run("-root", root)
	require.Equal(t, 0, code)

	code, stdout, _ := run("verify", "-root", root)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "n_files 1")

	writeFile(t, root, "a.txt", "changed")
	code, stdout, _ = run("verify", "-root", root)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "~ a.txt")
}

func TestRun_VerboseLogsToStderrOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hi")

	code, stdout, stderr := run("-root", root, "-v")
	require.Equal(t, 0, code)
	assert.Contains(t, stderr, "file hashed")
	assert.NotContains(t, stdout, "file hashed")
}

func TestRun_Errors(t *testing.T) {
	code, _, stderr := run("bogus")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Unknown command")

	code, _, _ = run("-nope")
	assert.Equal(t, 2, code)

	code, _, _ = run("-root", t.TempDir(), "extra")
	assert.Equal(t, 2, code)

	code, _, stderr = run("-root", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Error:")

	code, stdout, _ := run("help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Usage:")
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Cargo.toml", "[package]")
	deep := filepath.Join(root, "target", "debug")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	got, ok := findRoot(deep)
	require.True(t, ok)
	assert.Equal(t, filepath.Clean(root), got)
}
