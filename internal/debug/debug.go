// Package debug holds process-wide debug flags parsed from the
// SANDBOXCTL_DEBUG environment variable, an HCL fragment of bare boolean
// attributes (eg. "errortrace, keepworkspaces").
package debug

import (
	"fmt"
	"os"

	"github.com/alecthomas/hcl"
)

// Flags controls verbose/diagnostic behaviour that should never be enabled
// by default in a build service.
var Flags struct {
	// ErrorTrace includes file:line provenance in error messages.
	ErrorTrace bool `hcl:"errortrace,optional" help:"Include file:line in error messages."`
	// KeepWorkspaces skips deletion of the build prefix on successful teardown.
	KeepWorkspaces bool `hcl:"keepworkspaces,optional" help:"Don't remove the build prefix after the build completes."`
	// ForceUnmountFailures makes Unmount failures fatal instead of logged-and-swallowed.
	ForceUnmountFailures bool `hcl:"forceunmountfailures,optional" help:"Treat unmount failures as fatal."`
}

func init() {
	envar := os.Getenv("SANDBOXCTL_DEBUG")
	err := hcl.Unmarshal([]byte(envar), &Flags, hcl.BareBooleanAttributes(true))
	if err != nil {
		baseErr := err
		schema, serr := hcl.Schema(&Flags)
		if serr != nil {
			panic(serr)
		}
		schemaBytes, merr := hcl.MarshalAST(schema)
		if merr != nil {
			panic(merr)
		}
		fmt.Fprintf(os.Stderr, "invalid SANDBOXCTL_DEBUG=%q: %s\n\nschema:\n\n%s\n", envar, baseErr, string(schemaBytes))
		os.Exit(1)
	}
}
