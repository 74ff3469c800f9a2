package shard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgeline/sandboxctl/errors"
)

type fakeStore struct {
	names map[string]string
}

func (f *fakeStore) Names() ([]string, error) {
	names := make([]string, 0, len(f.names))
	for n := range f.names {
		names = append(names, n)
	}
	return names, nil
}

func (f *fakeStore) Path(name string) (string, error) {
	p, ok := f.names[name]
	if !ok {
		return "", errors.New("not found")
	}
	return p, nil
}

func testStore() *fakeStore {
	return &fakeStore{names: map[string]string{
		"Rootfs.v1.0.0.x86_64-linux-musl.squashfs":                            "/store/rootfs",
		"PlatformSupport-aarch64-linux-glibc.v1.0.0.x86_64-linux-musl.squashfs": "/store/ps-aarch64",
		"GCCBootstrap-aarch64-linux-glibc.v11.1.0.x86_64-linux-musl.squashfs":   "/store/gcc-11.1.0-aarch64",
		"GCCBootstrap-aarch64-linux-glibc.v9.1.0.x86_64-linux-musl.squashfs":    "/store/gcc-9.1.0-aarch64",
		"GCCBootstrap-x86_64-linux-musl.v11.1.0.x86_64-linux-musl.squashfs":     "/store/gcc-11.1.0-host",
		"GCCBootstrap-x86_64-linux-musl.v9.1.0.x86_64-linux-musl.squashfs":      "/store/gcc-9.1.0-host",
		"LLVMBootstrap.v14.0.0.x86_64-linux-musl.squashfs":                      "/store/llvm",
		"not-a-shard-readme.txt":                                                "/store/readme",
	}}
}

func TestCatalogAllSkipsUnmatched(t *testing.T) {
	c := NewCatalog(testStore(), "")
	shards, err := c.All()
	assert.NoError(t, err)
	assert.Len(t, shards, 7)
}

func TestCatalogPathMissing(t *testing.T) {
	c := NewCatalog(testStore(), "")
	_, err := c.Path(CompilerShard{ArtifactName: "nope"})
	assert.True(t, errors.Is(err, errors.ErrShardUnregistered))
}

func TestCatalogPathResolves(t *testing.T) {
	c := NewCatalog(testStore(), "")
	path, err := c.Path(CompilerShard{ArtifactName: "Rootfs.v1.0.0.x86_64-linux-musl.squashfs"})
	assert.NoError(t, err)
	assert.Equal(t, "/store/rootfs", path)
}

func TestCatalogCachesAcrossCalls(t *testing.T) {
	store := testStore()
	c := NewCatalog(store, "")
	first, err := c.All()
	assert.NoError(t, err)
	delete(store.names, "LLVMBootstrap.v14.0.0.x86_64-linux-musl.squashfs")
	second, err := c.All()
	assert.NoError(t, err)
	assert.Equal(t, len(first), len(second))
}
