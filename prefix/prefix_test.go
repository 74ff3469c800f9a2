package prefix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/sandboxctl/platform"
)

func testTarget() platform.Platform {
	return platform.Platform{OS: platform.Linux, Arch: platform.AArch64, Libc: platform.Glibc}
}

func TestNewCreatesTopLevelLayout(t *testing.T) {
	p, err := New(t.TempDir())
	require.NoError(t, err)

	assert.DirExists(t, p.Srcdir())
	assert.DirExists(t, p.Metadir())
	assert.DirExists(t, p.Mounts())
}

func TestEnsureTripletCreatesPerTripletSubtree(t *testing.T) {
	p, err := New(t.TempDir())
	require.NoError(t, err)
	target := testTarget()

	require.NoError(t, p.EnsureTriplet(target))

	assert.DirExists(t, p.Destdir(target))
	assert.DirExists(t, p.Artifacts(target))
	assert.DirExists(t, p.Project(target))
}

func TestLinkDestdirPointsAtTargetTriplet(t *testing.T) {
	p, err := New(t.TempDir())
	require.NoError(t, err)
	target := testTarget()

	require.NoError(t, p.LinkDestdir(target))

	link := filepath.Join(p.Root, "destdir")
	resolved, err := filepath.EvalSymlinks(link)
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(p.Destdir(target))
	require.NoError(t, err)
	assert.Equal(t, expected, resolved)
}

func TestLinkDestdirReplacesExistingLink(t *testing.T) {
	p, err := New(t.TempDir())
	require.NoError(t, err)

	other := platform.Platform{OS: platform.Linux, Arch: platform.X86_64, Libc: platform.Glibc}
	require.NoError(t, p.LinkDestdir(other))
	require.NoError(t, p.LinkDestdir(testTarget()))

	link := filepath.Join(p.Root, "destdir")
	resolved, err := filepath.EvalSymlinks(link)
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(p.Destdir(testTarget()))
	require.NoError(t, err)
	assert.Equal(t, expected, resolved)
}

func TestCleanupRemovesRoot(t *testing.T) {
	root := t.TempDir()
	p, err := New(root)
	require.NoError(t, err)

	require.NoError(t, p.Cleanup())
	_, err = os.Stat(root)
	assert.True(t, os.IsNotExist(err))
}
