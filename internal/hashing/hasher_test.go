package hashing

import (
	"os"
	"path/filepath"
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

func TestHashTreeDeterministic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/index.js", "export const a = 1\n")
	writeFile(t, root, "src/util.js", "function b() {}\n")
	writeFile(t, root, "README.md", "docs\n")

	first, err := HashTree(root, Options{})
	require.NoError(t, err)
	second, err := HashTree(root, Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Digest, second.Digest)
	assert.Len(t, first.Digest, 64)
	assert.Equal(t, []string{"README.md", "src/index.js", "src/util.js"}, first.InputFiles)
}

func TestHashTreeContentSensitive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "one")
	before, err := HashTree(root, Options{})
	require.NoError(t, err)

	writeFile(t, root, "a.txt", "two")
	after, err := HashTree(root, Options{})
	require.NoError(t, err)

	assert.NotEqual(t, before.Digest, after.Digest)
}

func TestHashTreePathSensitive(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeFile(t, rootA, "a.txt", "same")
	writeFile(t, rootB, "b.txt", "same")

	ra, err := HashTree(rootA, Options{})
	require.NoError(t, err)
	rb, err := HashTree(rootB, Options{})
	require.NoError(t, err)

	assert.NotEqual(t, ra.Digest, rb.Digest, "identical bytes under different names must differ")
}

func TestHashTreeExclusionStability(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/index.js", "export const a = 1\n")
	opts := Options{Exclude: []string{"node_modules", ".DS_Store", ".relver"}}

	before, err := HashTree(root, opts)
	require.NoError(t, err)

	// Churn only excluded content.
	writeFile(t, root, "node_modules/dep/index.js", "whatever")
	writeFile(t, root, ".DS_Store", "finder junk")
	writeFile(t, root, ".relver/manifest.json", "{}")

	after, err := HashTree(root, opts)
	require.NoError(t, err)

	assert.Equal(t, before.Digest, after.Digest)
	assert.Equal(t, before.InputFiles, after.InputFiles)
}

func TestHashTreePinsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/index.js", "export const a = 1\n")

	pins := filepath.Join(t.TempDir(), "versions.pins")
	require.NoError(t, os.WriteFile(pins, []byte("libfoo=1.2.0\n"), 0o644))

	without, err := HashTree(root, Options{})
	require.NoError(t, err)
	withPins, err := HashTree(root, Options{PinsFile: pins})
	require.NoError(t, err)
	assert.NotEqual(t, without.Digest, withPins.Digest)

	// Changing pinned versions invalidates the hash.
	require.NoError(t, os.WriteFile(pins, []byte("libfoo=1.3.0\n"), 0o644))
	changed, err := HashTree(root, Options{PinsFile: pins})
	require.NoError(t, err)
	assert.NotEqual(t, withPins.Digest, changed.Digest)

	// A configured but absent pins file behaves like no pins file.
	missing, err := HashTree(root, Options{PinsFile: filepath.Join(t.TempDir(), "nope.pins")})
	require.NoError(t, err)
	assert.Equal(t, without.Digest, missing.Digest)
}

func TestHashTreeMissingRoot(t *testing.T) {
	_, err := HashTree(filepath.Join(t.TempDir(), "absent"), Options{})
	assert.Error(t, err)
}

func TestHashTreeUnreadableFileIsFatal(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are ignored when running as root")
	}
	root := t.TempDir()
	writeFile(t, root, "ok.txt", "fine")
	locked := filepath.Join(root, "locked.txt")
	require.NoError(t, os.WriteFile(locked, []byte("secret"), 0o000))

	_, err := HashTree(root, Options{})
	assert.Error(t, err, "unreadable file must propagate, not be skipped")
}
