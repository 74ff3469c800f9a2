// Package toolchain emits the per-frontend build files (CMake toolchain
// files, a Meson cross/native file, a Bazel cc_toolchain, and a Cargo
// config.toml) that route a build's configure step at the pinned
// cross-compiler grid under /opt/bin.
package toolchain

import (
	"github.com/forgeline/sandboxctl/platform"
)

// Compiler is the C/C++ toolchain family a Request targets.
type Compiler string

const (
	GCC   Compiler = "gcc"
	Clang Compiler = "clang"
)

// Role distinguishes a toolchain file meant to build host tools (role
// "host") from one meant to cross-compile for the build's actual target.
type Role string

const (
	RoleHost   Role = "host"
	RoleTarget Role = "target"
)

// Request describes one (platform, role) pair a toolchain file grid is
// emitted for.
type Request struct {
	Host        platform.Platform
	Target      platform.Platform
	ClangUseLld bool
	CCEnv       string // the caller's $CC, inspected for "ccache"
	UnameR      string // host's `uname -r`, for CMAKE_HOST_SYSTEM_VERSION
	OutDir      string
}

// roleplatform returns the Platform a Role actually names tools for: host
// files always describe the host; target files describe the target.
func (r Request) roleplatform(role Role) platform.Platform {
	if role == RoleHost {
		return r.Host
	}
	return r.Target
}
