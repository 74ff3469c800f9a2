package depinstall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStdlibResolver struct {
	hashes map[string]string
}

func (r fakeStdlibResolver) ResolveTreeHash(spec PackageSpec, juliaVersion string) (string, error) {
	return r.hashes[spec.Name+"@"+juliaVersion], nil
}

func TestResolveStdlibFillsMissingHashes(t *testing.T) {
	resolver := fakeStdlibResolver{hashes: map[string]string{"zlib_jll@1.9.0": "deadbeef"}}
	resolved, forced, err := resolveStdlib(resolver, "1.9.0", []PackageSpec{
		{Name: "zlib_jll"},
		{Name: "libfoo_jll", TreeHash: "already-set"},
	})
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", resolved[0].TreeHash)
	assert.Equal(t, "1.9.0", resolved[0].JuliaVersion)
	assert.Equal(t, "already-set", resolved[1].TreeHash)
	assert.Equal(t, []string{"zlib_jll"}, forced)
}

func TestResolveStdlibNoForceWhenAllPinned(t *testing.T) {
	resolver := fakeStdlibResolver{}
	_, forced, err := resolveStdlib(resolver, "1.9.0", []PackageSpec{{Name: "a", TreeHash: "x"}})
	require.NoError(t, err)
	assert.Empty(t, forced)
}
