package mount

import (
	"fmt"
	"path/filepath"

	"github.com/forgeline/sandboxctl/shard"
)

// MountPath computes the destination a shard is materialised at on the
// host filesystem. Squashfs archives are loop-mounted under a per-build
// ".mounts" directory; unpacked shards are bound straight from the
// artifact store with no intermediate mount point.
func MountPath(buildRoot string, s shard.CompilerShard) string {
	if s.ArchiveKind == shard.Squashfs {
		return filepath.Join(buildRoot, ".mounts", s.ArtifactName)
	}
	return ""
}

// MapTarget computes the path a shard should appear at inside the sandbox
// filesystem.
func MapTarget(s shard.CompilerShard) string {
	switch s.Name {
	case shard.Rootfs:
		return "/"
	case shard.RustToolchain:
		host := s.Host.AAtriplet()
		target := host
		if s.Target != nil {
			target = s.Target.AAtriplet()
		}
		return fmt.Sprintf("/opt/%s/%s-%s-%s", host, s.Name, s.Version, target)
	default:
		triplet := s.Host.AAtriplet()
		if s.Target != nil {
			triplet = s.Target.AAtriplet()
		}
		return fmt.Sprintf("/opt/%s/%s-%s", triplet, s.Name, s.Version)
	}
}

// Mapping is one (mountPath, sandboxPath) binding the sandbox driver layers
// into the build root.
type Mapping struct {
	MountPath   string
	SandboxPath string
}

// ShardMappings returns the ordered list of mappings for shards, omitting
// Rootfs (the sandbox's own root) and reversed from input order: the
// sandbox driver layers mounts back-to-front, so the first shard selected
// must end up applied last.
func ShardMappings(buildRoot string, shards []shard.CompilerShard) []Mapping {
	var out []Mapping
	for _, s := range shards {
		if s.Name == shard.Rootfs {
			continue
		}
		out = append(out, Mapping{
			MountPath:   MountPath(buildRoot, s),
			SandboxPath: MapTarget(s),
		})
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
