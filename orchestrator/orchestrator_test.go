package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/sandboxctl/artifactstore"
	"github.com/forgeline/sandboxctl/depinstall"
	"github.com/forgeline/sandboxctl/envars"
	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/mount"
	"github.com/forgeline/sandboxctl/platform"
	"github.com/forgeline/sandboxctl/runner"
	"github.com/forgeline/sandboxctl/shard"
	"github.com/forgeline/sandboxctl/sourcestage"
	"github.com/forgeline/sandboxctl/ui"
)

type fakeShardStore struct {
	names map[string]string
}

func (f *fakeShardStore) Names() ([]string, error) {
	out := make([]string, 0, len(f.names))
	for n := range f.names {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeShardStore) Path(name string) (string, error) {
	p, ok := f.names[name]
	if !ok {
		return "", errors.New("not found")
	}
	return p, nil
}

type noopGraph struct{}

func (noopGraph) Dependencies(spec depinstall.PackageSpec) ([]depinstall.PackageSpec, error) {
	return nil, nil
}

type fakeGlobalStore struct{ root string }

func (s fakeGlobalStore) EnsureInstalled(spec depinstall.PackageSpec) (string, error) {
	dir := filepath.Join(s.root, spec.TreeHash)
	if err := os.MkdirAll(filepath.Join(dir, "lib"), 0o755); err != nil {
		return "", err
	}
	return dir, os.WriteFile(filepath.Join(dir, "lib", "libfoo.a"), []byte("x"), 0o644)
}

type noopStdlib struct{}

func (noopStdlib) ResolveTreeHash(spec depinstall.PackageSpec, juliaVersion string) (string, error) {
	return "", errors.New("not needed in this test")
}

type recordingRunner struct {
	cmd    []string
	env    envars.Envars
	mounts []runner.Mount
}

func (r *recordingRunner) Run(ctx context.Context, cmd []string, env envars.Envars, mounts []runner.Mount) error {
	r.cmd, r.env, r.mounts = cmd, env, mounts
	return nil
}

func testOrchestrator(t *testing.T, shardStoreRoot string) (*Orchestrator, *recordingRunner) {
	shardStore := &fakeShardStore{names: map[string]string{
		"Rootfs.v1.0.0.x86_64-linux-musl.tar":          filepath.Join(shardStoreRoot, "rootfs"),
		"PlatformSupport.v1.0.0.x86_64-linux-musl.tar": filepath.Join(shardStoreRoot, "platform"),
	}}
	for _, dir := range shardStore.names {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	catalog := shard.NewCatalog(shardStore, "")
	selector := shard.NewSelector(catalog)

	mounter := mount.NewMounter(t.TempDir(), mount.DriverOther, t.TempDir(), true, false)

	artifacts, err := artifactstore.Open(t.TempDir())
	require.NoError(t, err)

	rr := &recordingRunner{}
	o := &Orchestrator{
		Catalog:   catalog,
		Selector:  selector,
		Mounter:   mounter,
		Graph:     noopGraph{},
		Store:     fakeGlobalStore{root: t.TempDir()},
		Stdlib:    noopStdlib{},
		Diff:      depinstall.NewDiffStore(""),
		Artifacts: artifacts,
		Runner:    rr,
	}
	return o, rr
}

func TestBuildSequencesStagesAndReturnsPackage(t *testing.T) {
	o, rr := testOrchestrator(t, t.TempDir())

	srcFile := filepath.Join(t.TempDir(), "main.c")
	require.NoError(t, os.WriteFile(srcFile, []byte("int main(){return 0;}"), 0o644))

	req := Request{
		ShardRequest: shard.Request{Bootstrap: []shard.Kind{shard.Rootfs, shard.PlatformSupport}},
		Sources: []sourcestage.Source{
			sourcestage.File{Path: srcFile, Target: "main.c"},
		},
		Dependencies: nil,
		Cmd:          []string{"true"},
		Env:          envars.Envars{"PATH": os.Getenv("PATH")},
		Version:      "1.0.0",
		OutputBase:   filepath.Join(t.TempDir(), "out"),
	}
	req.ShardRequest.Target = platform.Platform{OS: platform.Linux, Arch: platform.X86_64, Libc: platform.Musl}

	result, err := o.Build(context.Background(), testLogger(), t.TempDir(), req)
	require.NoError(t, err)

	assert.FileExists(t, result.Package.Path)
	assert.Equal(t, []string{"true"}, rr.cmd)
}

func testLogger() ui.Logger {
	u, _ := ui.NewForTesting()
	return u.Task("test")
}
