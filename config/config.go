// Package config builds the single immutable Config value every other
// package is threaded: spec.md §9's "process-wide state" design note
// ("storage_cache, runner_override, use_squashfs, automatic_apple should be
// a single immutable Config value built once from the environment and
// passed explicitly down the call graph").
package config

import (
	"os"

	"github.com/forgeline/sandboxctl/internal/system"
	"github.com/forgeline/sandboxctl/ui"
)

// Runner is the sandbox executor a build targets.
type Runner string

const (
	RunnerUnset      Runner = ""
	RunnerUserNS     Runner = "userns"
	RunnerPrivileged Runner = "privileged"
	RunnerDocker     Runner = "docker"
)

// Config is the immutable process-wide configuration, built once from
// os.Environ() and passed explicitly from there on — never read from the
// environment again deeper in the call graph.
type Config struct {
	StorageDir      string
	AutomaticApple  bool
	Runner          Runner
	UseSquashfs     bool
	AllowEcryptfs   bool
	UseCcache       bool
}

// Load builds a Config from the current environment, warning (via log) and
// resetting to empty on an unrecognised RUNNER value, matching spec.md §6.
func Load(log ui.Logger) Config {
	c := Config{
		StorageDir:     os.Getenv("STORAGE_DIR"),
		AutomaticApple: os.Getenv("AUTOMATIC_APPLE") == "true",
		AllowEcryptfs:  os.Getenv("ALLOW_ECRYPTFS") != "",
		UseCcache:      os.Getenv("USE_CCACHE") != "",
	}
	if c.StorageDir == "" {
		if dir, err := system.UserCacheDir(); err == nil {
			c.StorageDir = dir + "/sandboxctl"
		} else {
			log.Warnf("resolving default storage dir: %s", err)
		}
	}
	c.Runner = parseRunner(log, os.Getenv("RUNNER"))
	c.UseSquashfs = parseUseSquashfs(os.Getenv("USE_SQUASHFS"), c.Runner)
	return c
}

func parseRunner(log ui.Logger, s string) Runner {
	switch Runner(s) {
	case RunnerUnset, RunnerUserNS, RunnerPrivileged, RunnerDocker:
		return Runner(s)
	default:
		log.Warnf("unrecognised RUNNER %q, ignoring", s)
		return RunnerUnset
	}
}

// parseUseSquashfs resolves USE_SQUASHFS against its default: on under CI
// or the privileged runner, off under Docker.
func parseUseSquashfs(s string, runner Runner) bool {
	switch s {
	case "true":
		return true
	case "false":
		return false
	default:
		if runner == RunnerDocker {
			return false
		}
		return os.Getenv("CI") != "" || runner == RunnerPrivileged
	}
}
