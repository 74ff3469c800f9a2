package buildscript

import (
	"mvdan.cc/sh/v3/shell"

	"github.com/forgeline/sandboxctl/errors"
)

// ExpandEnv expands $VAR/${VAR} references in text against env. Used to
// turn a raw BuildScript line into the fully expanded command for an error
// message, rather than showing the caller the unexpanded source.
func ExpandEnv(text string, env map[string]string) (string, error) {
	out, err := shell.Expand(text, func(name string) string {
		return env[name]
	})
	if err != nil {
		return "", errors.Wrapf(err, "expanding %q", text)
	}
	return out, nil
}
