package toolchain

import (
	"bytes"
	"fmt"
)

// renderBazel writes a cc_toolchain invocation pinning the full tool grid
// under /opt/bin/<fullTriplet>/.
func renderBazel(req Request, role Role, compiler Compiler) string {
	target := req.roleplatform(role).Resolve()
	aat := target.AAtriplet()
	triplet := target.Triplet()
	root := sysroot(aat)

	var b bytes.Buffer
	fmt.Fprintf(&b, "cc_toolchain(\n")
	fmt.Fprintf(&b, "    name = %q,\n", "cc-toolchain-"+triplet)
	fmt.Fprintf(&b, "    toolchain_identifier = %q,\n", triplet+"-"+string(compiler))
	fmt.Fprintf(&b, "    tool_paths = {\n")
	for _, t := range []string{"gcc", "cpp", "ar", "ld", "nm", "objcopy", "objdump", "strip"} {
		path := toolPath(triplet, aat, toolAlias(t, compiler))
		if t == "ld" {
			path = linkerPath(triplet, aat, target, compiler, req.ClangUseLld)
		}
		fmt.Fprintf(&b, "        %q: %q,\n", t, path)
	}
	fmt.Fprintf(&b, "    },\n")
	fmt.Fprintf(&b, "    builtin_sysroot = %q,\n", root)
	fmt.Fprintf(&b, "    cxx_builtin_include_directories = [\n")
	for _, dir := range []string{"/include/c++/v1", "/usr/include/c++", "/usr/include"} {
		fmt.Fprintf(&b, "        %q,\n", root+dir)
	}
	fmt.Fprintf(&b, "    ],\n")
	fmt.Fprintf(&b, ")\n")
	return b.String()
}

// toolAlias maps Bazel's fixed tool_paths keys to the actual binary name
// under the pinned aatriplet prefix.
func toolAlias(key string, compiler Compiler) string {
	switch key {
	case "gcc":
		return string(compiler)
	case "cpp":
		return cxxName(compiler)
	default:
		return key
	}
}
