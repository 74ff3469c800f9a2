package depinstall

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/sandboxctl/ui"
)

type noopGraph struct{}

func (noopGraph) Dependencies(spec PackageSpec) ([]PackageSpec, error) { return nil, nil }

type fakeGlobalStore struct {
	root string
}

func (s fakeGlobalStore) EnsureInstalled(spec PackageSpec) (string, error) {
	dir := filepath.Join(s.root, spec.TreeHash)
	if err := os.MkdirAll(filepath.Join(dir, "lib"), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "lib", "libfoo.so"), []byte("binary"), 0644); err != nil {
		return "", err
	}
	return dir, nil
}

func testLogger() ui.Logger {
	u, _ := ui.NewForTesting()
	return u
}

func TestInstallerInstallCopiesAndSymlinks(t *testing.T) {
	prefix := t.TempDir()
	globalStore := t.TempDir()

	installer := NewInstaller(prefix, noopGraph{}, fakeGlobalStore{root: globalStore}, fakeStdlibResolver{}, NewDiffStore(filepath.Join(t.TempDir(), "diff.bolt.db")))

	result, err := installer.Install(testLogger(), "x86_64-linux-musl", "1.9.0", []PackageSpec{
		{Name: "zlib_jll", TreeHash: "abc123"},
	})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(result.ProjectDir, "manifest.json"))
	assert.DirExists(t, filepath.Join(result.ArtifactsDir, "abc123"))

	link := filepath.Join(result.DestDir, "lib", "libfoo.so")
	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotEqual(t, os.FileMode(0), info.Mode()&os.ModeSymlink)
}

func TestInstallerUninstallRemovesSymlinks(t *testing.T) {
	prefix := t.TempDir()
	globalStore := t.TempDir()
	diffPath := filepath.Join(t.TempDir(), "diff.bolt.db")

	installer := NewInstaller(prefix, noopGraph{}, fakeGlobalStore{root: globalStore}, fakeStdlibResolver{}, NewDiffStore(diffPath))
	result, err := installer.Install(testLogger(), "x86_64-linux-musl", "1.9.0", []PackageSpec{
		{Name: "zlib_jll", TreeHash: "abc123"},
	})
	require.NoError(t, err)

	link := filepath.Join(result.DestDir, "lib", "libfoo.so")
	require.NoError(t, installer.Uninstall("abc123"))

	_, err = os.Lstat(link)
	assert.True(t, os.IsNotExist(err))
}

func TestInstallerResolvesStdlibAndForcesRedownload(t *testing.T) {
	prefix := t.TempDir()
	globalStore := t.TempDir()
	resolver := fakeStdlibResolver{hashes: map[string]string{"zlib_jll@1.9.0": "resolved-hash"}}

	installer := NewInstaller(prefix, noopGraph{}, fakeGlobalStore{root: globalStore}, resolver, NewDiffStore(filepath.Join(t.TempDir(), "diff.bolt.db")))
	result, err := installer.Install(testLogger(), "x86_64-linux-musl", "1.9.0", []PackageSpec{
		{Name: "zlib_jll"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"zlib_jll"}, result.ForceRedownload)
	assert.Equal(t, "resolved-hash", result.Resolved[0].TreeHash)
}
