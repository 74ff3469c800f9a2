package pack

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/sandboxctl/artifactstore"
	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/platform"
)

func testPlatform() platform.Platform {
	return platform.Platform{OS: platform.Linux, Arch: platform.X86_64, Libc: platform.Glibc}
}

func buildDestdir(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "libfoo.so"), []byte("payload"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("hi\n"), 0o644))
	return dir
}

func TestPackageProducesArchiveAndHashes(t *testing.T) {
	store, err := artifactstore.Open(t.TempDir())
	require.NoError(t, err)

	src := buildDestdir(t)
	outBase := filepath.Join(t.TempDir(), "mylib")

	res, err := Package(store, src, outBase, "1.2.3", testPlatform(), false)
	require.NoError(t, err)

	assert.FileExists(t, res.Path)
	assert.Len(t, res.TreeHash, 40)
	assert.Len(t, res.Sha256, 64)
	assert.Contains(t, res.Path, "mylib.v1.2.3.")

	f, err := os.Open(res.Path)
	require.NoError(t, err)
	defer f.Close()
	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gr)

	var names []string
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, hdr.Name)
	}
	assert.Contains(t, names, "README")
	assert.Contains(t, names, "lib/")
	assert.Contains(t, names, "lib/libfoo.so")
}

func TestPackageFailsWhenOutputExistsWithoutForce(t *testing.T) {
	store, err := artifactstore.Open(t.TempDir())
	require.NoError(t, err)

	src := buildDestdir(t)
	outBase := filepath.Join(t.TempDir(), "mylib")

	_, err = Package(store, src, outBase, "1.0.0", testPlatform(), false)
	require.NoError(t, err)

	_, err = Package(store, src, outBase, "1.0.0", testPlatform(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrOutputExists))
}

func TestPackageAllowsOverwriteWithForce(t *testing.T) {
	store, err := artifactstore.Open(t.TempDir())
	require.NoError(t, err)

	src := buildDestdir(t)
	outBase := filepath.Join(t.TempDir(), "mylib")

	_, err = Package(store, src, outBase, "1.0.0", testPlatform(), false)
	require.NoError(t, err)

	_, err = Package(store, src, outBase, "1.0.0", testPlatform(), true)
	require.NoError(t, err)
}

func TestCompressDirLeavesSubdirsAndSymlinksAlone(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("contents"), 0o644))
	require.NoError(t, os.Symlink("a.txt", filepath.Join(dir, "link")))

	require.NoError(t, CompressDir(dir, "gzip", 9, ".gz"))

	assert.FileExists(t, filepath.Join(dir, "a.txt.gz"))
	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
	assert.DirExists(t, filepath.Join(dir, "sub"))

	info, err := os.Lstat(filepath.Join(dir, "link"))
	require.NoError(t, err)
	assert.True(t, info.Mode()&os.ModeSymlink != 0)
}
