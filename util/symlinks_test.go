package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymlinks(t *testing.T) {
	pwd, err := os.Getwd()
	assert.NoError(t, err)
	expected := []string{
		filepath.Join(pwd, "testdata/three"),
		filepath.Join(pwd, "testdata/sub/two"),
		filepath.Join(pwd, "testdata/one"),
		filepath.Join(pwd, "testdata/dest"),
	}
	actual, err := ResolveSymlinks("testdata/three")
	assert.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestSymlinkTreeMirrorsFilesAsRelativeSymlinks(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	require := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	require(os.MkdirAll(filepath.Join(src, "lib"), 0755))
	require(os.WriteFile(filepath.Join(src, "lib", "libfoo.so"), []byte("binary"), 0644))

	var conflicts []string
	created, err := SymlinkTree(src, dest, func(destPath, occupant string) {
		conflicts = append(conflicts, destPath)
	})
	assert.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.Contains(t, created, filepath.Join(dest, "lib", "libfoo.so"))

	info, err := os.Lstat(filepath.Join(dest, "lib", "libfoo.so"))
	assert.NoError(t, err)
	assert.NotEqual(t, os.FileMode(0), info.Mode()&os.ModeSymlink)

	data, err := os.ReadFile(filepath.Join(dest, "lib", "libfoo.so"))
	assert.NoError(t, err)
	assert.Equal(t, "binary", string(data))
}

func TestSymlinkTreeSkipsIdenticalExistingFile(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "a.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	var conflicts []string
	created, err := SymlinkTree(src, dest, func(destPath, occupant string) {
		conflicts = append(conflicts, destPath)
	})
	assert.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.Empty(t, created)
}

func TestSymlinkTreeWarnsOnConflictingFile(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "a.txt"), []byte("different"), 0644); err != nil {
		t.Fatal(err)
	}
	var conflicts []string
	_, err := SymlinkTree(src, dest, func(destPath, occupant string) {
		conflicts = append(conflicts, destPath)
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dest, "a.txt")}, conflicts)
}

func TestUnsymlinkRemovesOnlySymlinks(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.txt")
	link := filepath.Join(dir, "link.txt")
	if err := os.WriteFile(real, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(real, link); err != nil {
		t.Fatal(err)
	}
	assert.NoError(t, Unsymlink([]string{real, link}))
	_, err := os.Lstat(link)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Lstat(real)
	assert.NoError(t, err)
}
