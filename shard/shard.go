// Package shard implements the compiler-shard catalog and selector: it
// enumerates the toolchain fragments available in the content-addressed
// artifact store and, given a target platform and a set of requested
// compilers, chooses the minimal set of shards a build needs mounted.
package shard

import "github.com/forgeline/sandboxctl/platform"

// Kind is the closed vocabulary of shard names.
type Kind string

const (
	Rootfs          Kind = "Rootfs"
	PlatformSupport Kind = "PlatformSupport"
	GCCBootstrap    Kind = "GCCBootstrap"
	LLVMBootstrap   Kind = "LLVMBootstrap"
	RustBase        Kind = "RustBase"
	RustToolchain   Kind = "RustToolchain"
	Go              Kind = "Go"
)

// ArchiveKind is how a shard's artifact is materialised onto disk.
type ArchiveKind string

const (
	Unpacked ArchiveKind = "unpacked"
	Squashfs ArchiveKind = "squashfs"
)

// CompilerShard is one entry in the catalog: a named toolchain fragment
// built for a host platform, optionally for a particular cross target.
// Host and target are stored in ABI-agnostic form — ABI decisions are made
// at selection time, never baked into the shard's identity.
type CompilerShard struct {
	Name Kind
	// Version is the artifact's version with any leading "v" stripped, so
	// it compares directly against gccdb.GCCBuild/LLVMBuild version
	// strings.
	Version     string
	Host        platform.Platform
	Target      *platform.Platform
	ArchiveKind ArchiveKind

	// ArtifactName is the filename the catalog parsed this shard from,
	// e.g. "GCCBootstrap-aarch64-linux-glibc.v11.1.0.x86_64-linux-musl.squashfs". It is
	// the key used to resolve a storage path in the content-addressed
	// artifact store.
	ArtifactName string
}

// targetOrHostAAtriplet returns the aatriplet of Target if set, else of
// Host.
func (s CompilerShard) targetOrHostAAtriplet() string {
	if s.Target != nil {
		return s.Target.AAtriplet()
	}
	return s.Host.AAtriplet()
}
