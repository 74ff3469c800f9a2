package toolchain

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/forgeline/sandboxctl/platform"
)

// renderMeson writes a Meson cross/native INI file for role/compiler.
func renderMeson(req Request, role Role, compiler Compiler) string {
	host := req.Host.Resolve()
	target := req.roleplatform(role).Resolve()
	aat := target.AAtriplet()
	triplet := target.Triplet()

	var b bytes.Buffer
	b.WriteString("[binaries]\n")
	fmt.Fprintf(&b, "c = '%s'\n", toolPath(triplet, aat, string(compiler)))
	fmt.Fprintf(&b, "cpp = '%s'\n", toolPath(triplet, aat, cxxName(compiler)))
	fmt.Fprintf(&b, "fortran = '%s'\n", toolPath(triplet, aat, "gfortran"))
	fmt.Fprintf(&b, "ld = '%s'\n", linkerPath(triplet, aat, target, compiler, req.ClangUseLld))
	fmt.Fprintf(&b, "ar = '%s'\n", toolPath(triplet, aat, "ar"))
	fmt.Fprintf(&b, "strip = '%s'\n", toolPath(triplet, aat, "strip"))
	if strings.Contains(req.CCEnv, "ccache") {
		fmt.Fprintf(&b, "c_ld = 'ccache'\n")
	}
	b.WriteString("\n[built-in options]\n")
	fmt.Fprintf(&b, "c_args = []\n")
	fmt.Fprintf(&b, "cpp_args = []\n")

	b.WriteString("\n[properties]\n")
	fmt.Fprintf(&b, "sys_root = '%s'\n", sysroot(aat))
	fmt.Fprintf(&b, "needs_exe_wrapper = %s\n", boolWord(needsExeWrapper(host, target)))

	b.WriteString("\n[build_machine]\n")
	writeMesonMachine(&b, host)

	b.WriteString("\n[host_machine]\n")
	writeMesonMachine(&b, target)

	return b.String()
}

func writeMesonMachine(b *bytes.Buffer, p platform.Platform) {
	fmt.Fprintf(b, "system = '%s'\n", p.OS.String())
	fmt.Fprintf(b, "cpu_family = '%s'\n", cpuFamily(p.Arch))
	fmt.Fprintf(b, "cpu = '%s'\n", p.Arch.String())
	fmt.Fprintf(b, "endian = 'little'\n")
}

func boolWord(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
