// Package runner defines the contract the orchestrator drives a build
// command through, and a local same-host implementation of it.
package runner

import (
	"context"

	"github.com/forgeline/sandboxctl/envars"
)

// Mount describes one filesystem the sandbox should have available while
// the command runs; it mirrors what C4 has already mounted, so a runner
// can bind it into whatever isolation mechanism it uses.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// Runner executes a build command inside a sandboxed environment. The
// concrete sandboxing mechanism (userns, privileged bind mounts, a
// container) is the runner's concern; the orchestrator only depends on
// this contract.
type Runner interface {
	Run(ctx context.Context, cmd []string, env envars.Envars, mounts []Mount) error
}
