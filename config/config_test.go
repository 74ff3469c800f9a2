package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgeline/sandboxctl/ui"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"STORAGE_DIR", "AUTOMATIC_APPLE", "RUNNER", "USE_SQUASHFS", "ALLOW_ECRYPTFS", "USE_CCACHE", "CI"} {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	log, _ := ui.NewForTesting()
	c := Load(log)
	assert.Equal(t, RunnerUnset, c.Runner)
	assert.False(t, c.UseSquashfs)
	assert.False(t, c.AutomaticApple)
}

func TestLoadUnrecognisedRunnerWarnsAndResets(t *testing.T) {
	clearEnv(t)
	os.Setenv("RUNNER", "bogus")
	log, buf := ui.NewForTesting()
	c := Load(log)
	assert.Equal(t, RunnerUnset, c.Runner)
	assert.Contains(t, buf.String(), "bogus")
}

func TestUseSquashfsDefaultsOnUnderCI(t *testing.T) {
	clearEnv(t)
	os.Setenv("CI", "true")
	log, _ := ui.NewForTesting()
	c := Load(log)
	assert.True(t, c.UseSquashfs)
}

func TestUseSquashfsOffUnderDocker(t *testing.T) {
	clearEnv(t)
	os.Setenv("CI", "true")
	os.Setenv("RUNNER", "docker")
	log, _ := ui.NewForTesting()
	c := Load(log)
	assert.False(t, c.UseSquashfs)
}

func TestUseSquashfsExplicitOverride(t *testing.T) {
	clearEnv(t)
	os.Setenv("RUNNER", "docker")
	os.Setenv("USE_SQUASHFS", "true")
	log, _ := ui.NewForTesting()
	c := Load(log)
	assert.True(t, c.UseSquashfs)
}
