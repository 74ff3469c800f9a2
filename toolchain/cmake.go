package toolchain

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/forgeline/sandboxctl/platform"
)

var cmakeSystemName = map[platform.OS]string{
	platform.Linux:   "Linux",
	platform.MacOS:   "Darwin",
	platform.FreeBSD: "FreeBSD",
	platform.Windows: "Windows",
}

// renderCMake writes the CMake toolchain file for role/compiler: host
// files never set CMAKE_SYSTEM_{NAME,PROCESSOR} (their absence is CMake's
// own signal that this is not a cross build); target files always do.
func renderCMake(req Request, role Role, compiler Compiler) string {
	host := req.Host.Resolve()
	target := req.roleplatform(role).Resolve()
	aat := target.AAtriplet()
	triplet := target.Triplet()

	var b bytes.Buffer
	fmt.Fprintf(&b, "set(CMAKE_HOST_SYSTEM_NAME %q)\n", cmakeSystemName[host.OS])
	fmt.Fprintf(&b, "set(CMAKE_HOST_SYSTEM_PROCESSOR %q)\n", host.Arch.String())
	if req.UnameR != "" {
		fmt.Fprintf(&b, "set(CMAKE_HOST_SYSTEM_VERSION %q)\n", req.UnameR)
	}
	b.WriteString("\n")

	if role == RoleTarget {
		fmt.Fprintf(&b, "set(CMAKE_SYSTEM_NAME %q)\n", cmakeSystemName[target.OS])
		fmt.Fprintf(&b, "set(CMAKE_SYSTEM_PROCESSOR %q)\n", target.Arch.String())
		b.WriteString("\n")
	}

	root := sysroot(aat)
	fmt.Fprintf(&b, "set(CMAKE_SYSROOT %q)\n", root)
	if target.OS == platform.MacOS {
		fmt.Fprintf(&b, "set(CMAKE_SYSTEM_FRAMEWORK_PATH %q %q)\n",
			root+"/System/Library/PrivateFrameworks", root+"/System/Library/Frameworks")
		fmt.Fprintf(&b, "set(DARWIN_MAJOR_VERSION %q)\n", darwinVersion(target, 0))
		fmt.Fprintf(&b, "set(DARWIN_MINOR_VERSION %q)\n", darwinVersion(target, 1))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "set(CMAKE_C_COMPILER %q)\n", toolPath(triplet, aat, string(compiler)))
	fmt.Fprintf(&b, "set(CMAKE_CXX_COMPILER %q)\n", toolPath(triplet, aat, cxxName(compiler)))
	fmt.Fprintf(&b, "set(CMAKE_Fortran_COMPILER %q)\n", toolPath(triplet, aat, "gfortran"))
	fmt.Fprintf(&b, "set(CMAKE_LINKER %q)\n", linkerPath(triplet, aat, target, compiler, req.ClangUseLld))
	fmt.Fprintf(&b, "set(CMAKE_AR %q)\n", toolPath(triplet, aat, "ar"))
	fmt.Fprintf(&b, "set(CMAKE_NM %q)\n", toolPath(triplet, aat, "nm"))
	fmt.Fprintf(&b, "set(CMAKE_RANLIB %q)\n", toolPath(triplet, aat, "ranlib"))
	fmt.Fprintf(&b, "set(CMAKE_OBJCOPY %q)\n", toolPath(triplet, aat, "objcopy"))

	if strings.Contains(req.CCEnv, "ccache") {
		b.WriteString("\n")
		b.WriteString("set(CMAKE_C_COMPILER_LAUNCHER \"ccache\")\n")
		b.WriteString("set(CMAKE_CXX_COMPILER_LAUNCHER \"ccache\")\n")
	}
	return b.String()
}

func cxxName(c Compiler) string {
	if c == Clang {
		return "clang++"
	}
	return "g++"
}

// darwinVersion splits a MacOS platform's "march"-style os-version
// extension (e.g. "20.3") into major (part 0) or minor (part 1); absent a
// version extension, it returns "0".
func darwinVersion(p platform.Platform, part int) string {
	v, ok := p.Extension("darwin_version")
	if !ok {
		return "0"
	}
	fields := strings.SplitN(v, ".", 2)
	if part >= len(fields) {
		return "0"
	}
	return fields[part]
}
