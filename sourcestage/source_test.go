package sourcestage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/sandboxctl/ui"
)

func testTask() *ui.Task {
	u, _ := ui.NewForTesting()
	return u.Task("test")
}

func TestFileSetupCopiesAndNonces(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "input.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0644))

	ws := NewWorkspace(t.TempDir())
	f := File{Path: src, Target: "input.txt"}
	dest, err := f.Setup(testTask(), ws)
	require.NoError(t, err)

	assert.NotEqual(t, filepath.Join(ws.SrcDir, "input.txt"), dest)
	assert.True(t, len(filepath.Base(dest)) > len("input.txt"))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFileSetupHashMismatchFails(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "input.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0644))

	ws := NewWorkspace(t.TempDir())
	f := File{Path: src, Target: "input.txt", Hash: "deadbeef"}
	_, err := f.Setup(testTask(), ws)
	assert.Error(t, err)
}

func TestDirectorySetupCopiesTree(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "sub", "a.txt"), []byte("x"), 0644))

	ws := NewWorkspace(t.TempDir())
	d := Directory{Path: srcDir, Target: "proj"}
	dest, err := d.Setup(testTask(), ws)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dest, "sub", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestPatchSetupWritesUnderPatchesDir(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	p := Patch{Name: "fix-cross-build.patch", Payload: []byte("diff --git a b")}
	dest, err := p.Setup(testTask(), ws)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(ws.SrcDir, "patches", "fix-cross-build.patch"), dest)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "diff --git a b", string(data))
}

func TestGitTargetNameStripsDotGit(t *testing.T) {
	assert.Equal(t, "repo", gitTargetName("https://example.invalid/repo.git", ""))
}

func TestGitTargetNamePrefersExplicitTarget(t *testing.T) {
	assert.Equal(t, "myname", gitTargetName("https://example.invalid/repo.git", "myname"))
}
