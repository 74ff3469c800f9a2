package runner

import (
	"context"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/forgeline/sandboxctl/envars"
	"github.com/forgeline/sandboxctl/errors"
)

// Local runs a build command directly on the host, inside a working
// directory that's expected to already be the sandbox root (bind-mounted
// or chrooted into place by whatever privilege-escalation path C4 used).
// It is adapted from the teacher's restricted-builtin shell interpreter,
// but unlike that interpreter it must execute real cross-compiler
// binaries rather than emulate a handful of POSIX utilities, so it uses
// mvdan.cc/sh's default exec handler (which shells out to $PATH) instead
// of a builtin allowlist — build-script-level command restriction is
// buildscript.Validate's job, upstream of Run.
type Local struct {
	Dir string
}

// Run shell-quotes each element of cmd and joins them into a single shell
// command line, so cmd runs as one argument vector, and executes it with
// env substituted for the process environment. Cancelling ctx interrupts
// the running command via mvdan.cc/sh's default exec handler, which kills
// it if it has not exited within the handler's kill timeout.
// The mounts argument is informational only: by the time Run is called,
// whatever filesystems it names are already live at their targets.
func (l Local) Run(ctx context.Context, cmd []string, env envars.Envars, mounts []Mount) error {
	line := shellquote.Join(cmd...)
	node, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil {
		return errors.Wrapf(err, "parsing command %q", line)
	}

	r, err := interp.New(
		interp.Dir(l.Dir),
		interp.StdIO(os.Stdin, os.Stdout, os.Stderr),
		interp.Env(expand.ListEnviron(env.System()...)),
		interp.Params("-e"),
	)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := r.Run(ctx, node); err != nil {
		return errors.Wrapf(err, "running %q", line)
	}
	return nil
}
