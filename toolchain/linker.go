package toolchain

import (
	"github.com/forgeline/sandboxctl/platform"
)

// linkerPath picks the linker binary for compiler on dir/aat: GCC
// toolchains always use the aatriplet-prefixed ld; Clang toolchains use
// that too unless clangUseLld is set, in which case lld (ld64.lld on
// MacOS, ld.lld elsewhere).
func linkerPath(dir, aat string, p platform.Platform, compiler Compiler, clangUseLld bool) string {
	if compiler == GCC || !clangUseLld {
		return toolPath(dir, aat, "ld")
	}
	if p.OS == platform.MacOS {
		return bareToolPath(dir, "ld64.lld")
	}
	return bareToolPath(dir, "ld.lld")
}

// preferredCompiler is the compiler family a role's toolchain symlink
// points at when the caller hasn't pinned one explicitly: Clang on
// FreeBSD/MacOS, GCC everywhere else.
func preferredCompiler(p platform.Platform) Compiler {
	if p.OS == platform.FreeBSD || p.OS == platform.MacOS {
		return Clang
	}
	return GCC
}

// compilerSuffix names the per-compiler file variant a role/frontend pair
// is split into before being symlinked to its preferred one.
func compilerSuffix(c Compiler) string {
	return string(c)
}
