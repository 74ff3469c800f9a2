package mount

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgeline/sandboxctl/shard"
	"github.com/forgeline/sandboxctl/ui"
)

type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	return nil, f.err
}

func testLogger() ui.Logger {
	u, _ := ui.NewForTesting()
	return u
}

func TestMountUnpackedShardIsNoOp(t *testing.T) {
	dir := t.TempDir()
	m := NewMounter(dir, DriverUserNamespace, "", false, false)
	m.Runner = &fakeRunner{}
	s := shard.CompilerShard{Name: shard.Go, ArchiveKind: shard.Unpacked, ArtifactName: "go.v1.21.0.x86_64-linux-musl.tar"}
	path, err := m.Mount(context.Background(), testLogger(), s, "/store/go")
	assert.NoError(t, err)
	assert.Equal(t, "/store/go", path)
}

func TestMountOtherDriverIsNoOp(t *testing.T) {
	dir := t.TempDir()
	m := NewMounter(dir, DriverOther, "", false, false)
	m.Runner = &fakeRunner{}
	s := shard.CompilerShard{Name: shard.GCCBootstrap, ArchiveKind: shard.Squashfs, ArtifactName: "gcc.squashfs"}
	path, err := m.Mount(context.Background(), testLogger(), s, "/store/gcc")
	assert.NoError(t, err)
	assert.Equal(t, "/store/gcc", path)
}

func TestUnmountNonMountedIsNoOp(t *testing.T) {
	dir := t.TempDir()
	m := NewMounter(dir, DriverUserNamespace, "", false, false)
	m.Runner = &fakeRunner{}
	s := shard.CompilerShard{Name: shard.GCCBootstrap, ArchiveKind: shard.Squashfs, ArtifactName: "gcc.squashfs"}
	err := m.Unmount(context.Background(), testLogger(), s, true)
	assert.NoError(t, err)
}

func TestRequireEULANonInteractiveFatal(t *testing.T) {
	dir := t.TempDir()
	m := NewMounter(dir, DriverOther, dir, false, false)
	s := shard.CompilerShard{ArtifactName: "sdk.squashfs"}
	err := m.requireEULA(s)
	assert.Error(t, err)
}

func TestAcceptEULAPersistsSentinel(t *testing.T) {
	dir := t.TempDir()
	m := NewMounter(dir, DriverOther, dir, false, false)
	assert.NoError(t, m.AcceptEULA())
	s := shard.CompilerShard{ArtifactName: "sdk.squashfs"}
	assert.NoError(t, m.requireEULA(s))
}

func TestRequireEULAAutoAccept(t *testing.T) {
	dir := t.TempDir()
	m := NewMounter(dir, DriverOther, dir, true, false)
	s := shard.CompilerShard{ArtifactName: "sdk.squashfs"}
	assert.NoError(t, m.requireEULA(s))
}
