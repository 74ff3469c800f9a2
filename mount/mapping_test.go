package mount

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgeline/sandboxctl/platform"
	"github.com/forgeline/sandboxctl/shard"
)

func mustParse(t *testing.T, s string) platform.Platform {
	t.Helper()
	p, err := platform.Parse(s)
	assert.NoError(t, err)
	return p
}

func TestMountPathUnpackedIsEmpty(t *testing.T) {
	s := shard.CompilerShard{ArchiveKind: shard.Unpacked, ArtifactName: "x"}
	assert.Equal(t, "", MountPath("/build", s))
}

func TestMountPathSquashfs(t *testing.T) {
	s := shard.CompilerShard{ArchiveKind: shard.Squashfs, ArtifactName: "GCCBootstrap.v11.1.0.x86_64-linux-musl.squashfs"}
	assert.Equal(t, "/build/.mounts/GCCBootstrap.v11.1.0.x86_64-linux-musl.squashfs", MountPath("/build", s))
}

func TestMapTargetRootfs(t *testing.T) {
	s := shard.CompilerShard{Name: shard.Rootfs, Host: mustParse(t, "x86_64-linux-musl")}
	assert.Equal(t, "/", MapTarget(s))
}

func TestMapTargetRustToolchainCoLocated(t *testing.T) {
	host := mustParse(t, "x86_64-linux-glibc")
	target := mustParse(t, "aarch64-linux-glibc")
	s := shard.CompilerShard{Name: shard.RustToolchain, Version: "1.70.0", Host: host, Target: &target}
	assert.Equal(t, "/opt/x86_64-linux-glibc/RustToolchain-1.70.0-aarch64-linux-glibc", MapTarget(s))
}

func TestMapTargetDefault(t *testing.T) {
	host := mustParse(t, "x86_64-linux-musl")
	target := mustParse(t, "aarch64-linux-glibc")
	s := shard.CompilerShard{Name: shard.GCCBootstrap, Version: "11.1.0", Host: host, Target: &target}
	assert.Equal(t, "/opt/aarch64-linux-glibc/GCCBootstrap-11.1.0", MapTarget(s))
}

func TestShardMappingsOmitsRootfsAndReverses(t *testing.T) {
	host := mustParse(t, "x86_64-linux-musl")
	rootfs := shard.CompilerShard{Name: shard.Rootfs, Host: host}
	a := shard.CompilerShard{Name: shard.GCCBootstrap, Version: "11.1.0", Host: host, ArchiveKind: shard.Squashfs, ArtifactName: "gcc.squashfs"}
	b := shard.CompilerShard{Name: shard.Go, Version: "1.21.0", Host: host}

	mappings := ShardMappings("/build", []shard.CompilerShard{rootfs, a, b})
	assert.Len(t, mappings, 2)
	assert.Equal(t, MapTarget(b), mappings[0].SandboxPath)
	assert.Equal(t, MapTarget(a), mappings[1].SandboxPath)
}
