package toolchain

import (
	"bytes"
	"fmt"
)

// renderCargo writes a Cargo config.toml [target.<rust-triple>] entry
// pinning the linker to the aatriplet cc wrapper, for every target in
// targets.
func renderCargo(targets []Request) string {
	var b bytes.Buffer
	for _, req := range targets {
		triple := rustTarget(req.Target)
		aat := req.Target.Resolve().AAtriplet()
		fmt.Fprintf(&b, "[target.%s]\n", triple)
		fmt.Fprintf(&b, "linker = %q\n\n", aat+"-cc")
	}
	return b.String()
}
