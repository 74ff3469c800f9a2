package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRunExecutesCommandWithEnv(t *testing.T) {
	dir := t.TempDir()
	local := Local{Dir: dir}

	err := local.Run(context.Background(), []string{"sh", "-c", "echo $GREETING > out.txt"}, map[string]string{
		"GREETING": "hello",
		"PATH":     os.Getenv("PATH"),
	}, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestLocalRunPropagatesFailure(t *testing.T) {
	local := Local{Dir: t.TempDir()}
	err := local.Run(context.Background(), []string{"false"}, map[string]string{"PATH": os.Getenv("PATH")}, nil)
	assert.Error(t, err)
}
