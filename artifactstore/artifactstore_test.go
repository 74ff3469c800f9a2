package artifactstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T) string {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "libfoo.so"), []byte("binary"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("hello\n"), 0o644))
	return root
}

func TestTreeHashStableAcrossEquivalentTrees(t *testing.T) {
	a := buildTree(t)
	b := buildTree(t)

	hashA, err := TreeHash(a)
	require.NoError(t, err)
	hashB, err := TreeHash(b)
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB)
	assert.Len(t, hashA, 40)
}

func TestTreeHashChangesWithContent(t *testing.T) {
	a := buildTree(t)
	hashBefore, err := TreeHash(a)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(a, "README"), []byte("changed\n"), 0o644))
	hashAfter, err := TreeHash(a)
	require.NoError(t, err)

	assert.NotEqual(t, hashBefore, hashAfter)
}

func TestDedupKeyStableAcrossEquivalentTrees(t *testing.T) {
	a := buildTree(t)
	b := buildTree(t)

	keyA, err := DedupKey(a)
	require.NoError(t, err)
	keyB, err := DedupKey(b)
	require.NoError(t, err)

	assert.Equal(t, keyA, keyB)
}

func TestStorePutIsIdempotent(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	src := buildTree(t)
	hash1, path1, err := store.Put(src)
	require.NoError(t, err)

	hash2, path2, err := store.Put(src)
	require.NoError(t, err)

	assert.Equal(t, hash1, hash2)
	assert.Equal(t, path1, path2)

	has, err := store.Has(hash1)
	require.NoError(t, err)
	assert.True(t, has)

	data, err := os.ReadFile(filepath.Join(path1, "README"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestStoreHasReportsMissingArtifact(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	has, err := store.Has("0000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.False(t, has)
}
