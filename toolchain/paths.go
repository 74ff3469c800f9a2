package toolchain

import (
	"fmt"
	"strings"

	"github.com/forgeline/sandboxctl/platform"
)

// sysroot is the cross sysroot every frontend points its compiler/linker
// search paths at: /opt/<aatriplet>/<aatriplet>/sys-root.
func sysroot(aat string) string {
	return fmt.Sprintf("/opt/%s/%s/sys-root", aat, aat)
}

// toolPath is /opt/bin/<dir>/<aat>-<tool>, the pinned location of every
// compiler-grid binary. dir is the full triplet for CMake/Meson; for
// Bazel it's the full triplet of the platform the cc_toolchain targets.
func toolPath(dir, aat, tool string) string {
	return fmt.Sprintf("/opt/bin/%s/%s-%s", dir, aat, tool)
}

// bareToolPath is /opt/bin/<dir>/<tool>, used for linker binaries whose
// name isn't aatriplet-prefixed (ld.lld, ld64.lld).
func bareToolPath(dir, tool string) string {
	return fmt.Sprintf("/opt/bin/%s/%s", dir, tool)
}

// cpuFamily maps a Platform's architecture onto Meson's cpu_family vocabulary.
func cpuFamily(a platform.Arch) string {
	switch {
	case a == platform.PowerPC64LE:
		return "ppc64"
	case a == platform.I686:
		return "x86"
	case a == platform.ARMv7L || a == platform.AArch64:
		return "arm"
	default:
		return a.String()
	}
}

// needsExeWrapper reports whether Meson needs qemu/an exe wrapper to run
// target binaries on the musl-x86_64 host: the musl host can run
// i686-linux-gnu and x86_64-linux-{gnu,musl} binaries directly; everything
// else needs one.
func needsExeWrapper(host, target platform.Platform) bool {
	if platform.Match(host, target) {
		return false
	}
	if host.OS != platform.Linux || host.Arch != platform.X86_64 || host.Libc != platform.Musl {
		return true
	}
	switch {
	case target.Arch == platform.I686 && target.OS == platform.Linux && target.Libc == platform.Glibc:
		return false
	case target.Arch == platform.X86_64 && target.OS == platform.Linux:
		return false
	default:
		return true
	}
}

// rustTarget derives the Rust target triple from the ABI-agnostic form of
// p: rustc's target names don't carry this tree's ABI-tag/extension suffixes.
func rustTarget(p platform.Platform) string {
	p = p.AbiAgnostic()
	arch := p.Arch.String()
	if p.Arch == platform.ARMv7L {
		arch = "armv7"
	}
	osName := map[platform.OS]string{
		platform.Linux:   "unknown-linux",
		platform.MacOS:   "apple-darwin",
		platform.FreeBSD: "unknown-freebsd",
		platform.Windows: "pc-windows-msvc",
	}[p.OS]
	if p.OS == platform.MacOS {
		return arch + "-" + osName
	}
	if p.OS != platform.Linux {
		return arch + "-" + osName
	}
	libc := "gnu"
	if p.Libc == platform.Musl {
		libc = "musl"
	}
	if p.CallABI == platform.Eabihf {
		libc += "eabihf"
	}
	return strings.Join([]string{arch, osName, libc}, "-")
}
