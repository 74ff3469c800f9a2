package buildscript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "build.sh")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestValidateFlagsDisallowedCommand(t *testing.T) {
	path := writeScript(t, "#!/bin/sh\nsudo rm -rf /\n")
	script, err := Parse(path)
	require.NoError(t, err)

	violations := script.Validate(DefaultAllowedCommands())
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "sudo")
}

func TestValidateAllowsLocalFunctions(t *testing.T) {
	path := writeScript(t, "build() {\n  cmake --build .\n}\nbuild\n")
	script, err := Parse(path)
	require.NoError(t, err)

	violations := script.Validate(DefaultAllowedCommands())
	assert.Empty(t, violations)
}

func TestValidateAllowsDefaultCommands(t *testing.T) {
	path := writeScript(t, "cmake --build . && make install\n")
	script, err := Parse(path)
	require.NoError(t, err)

	violations := script.Validate(DefaultAllowedCommands())
	assert.Empty(t, violations)
}

func TestExpandEnvSubstitutesVariables(t *testing.T) {
	out, err := ExpandEnv("$CC -o out ${SRCDIR}/main.c", map[string]string{
		"CC":     "aarch64-linux-gnu-gcc",
		"SRCDIR": "/build/src",
	})
	require.NoError(t, err)
	assert.Equal(t, "aarch64-linux-gnu-gcc -o out /build/src/main.c", out)
}
