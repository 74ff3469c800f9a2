package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTripletRoundTrip(t *testing.T) {
	cases := []string{
		"any",
		"x86_64-linux-musl",
		"x86_64-linux-glibc",
		"armv7l-linux-musleabihf",
		"aarch64-macos",
		"x86_64-linux-musl-libgfortran5-cxx11",
		"x86_64-linux-musl-march+avx2",
		"x86_64-linux-musl-libgfortran3-cxx03-cuda+11.2-march+avx512",
	}
	for _, triplet := range cases {
		triplet := triplet
		t.Run(triplet, func(t *testing.T) {
			p, err := Parse(triplet)
			assert.NoError(t, err)
			assert.Equal(t, triplet, p.Triplet())
		})
	}
}

func TestParseInvalidTriplet(t *testing.T) {
	_, err := Parse("not a triplet!!")
	assert.Error(t, err)
}

func TestAAtriplet(t *testing.T) {
	p, err := Parse("armv7l-linux-musleabihf")
	assert.NoError(t, err)
	assert.Equal(t, "arm-linux-musleabihf", p.AAtriplet())
}

func TestMatchReflexiveAndSymmetric(t *testing.T) {
	a, err := Parse("x86_64-linux-musl-libgfortran5")
	assert.NoError(t, err)
	b, err := Parse("x86_64-linux-musl-cxx11")
	assert.NoError(t, err)

	assert.True(t, Match(a, a))
	assert.True(t, Match(b, b))
	assert.Equal(t, Match(a, b), Match(b, a))
}

func TestMatchIgnoresUnspecifiedFields(t *testing.T) {
	a, err := Parse("x86_64-linux-musl")
	assert.NoError(t, err)
	b, err := Parse("x86_64-linux-musl-libgfortran5")
	assert.NoError(t, err)
	assert.True(t, Match(a, b))
}

func TestMatchConflictingFieldsFail(t *testing.T) {
	a, err := Parse("x86_64-linux-glibc")
	assert.NoError(t, err)
	b, err := Parse("x86_64-linux-musl")
	assert.NoError(t, err)
	assert.False(t, Match(a, b))
}

func TestExpandMicroarchitectures(t *testing.T) {
	p, err := Parse("x86_64-linux-musl")
	assert.NoError(t, err)
	expanded := ExpandMicroarchitectures(p)
	assert.Equal(t, 4, len(expanded))
	for _, e := range expanded {
		march, ok := e.march()
		assert.True(t, ok)
		assert.True(t, validMicroarchitecture(X86_64, march))
		assert.Equal(t, p.AbiAgnostic().withExtension("march", march).AAtriplet(), e.AAtriplet())
	}

	already, err := Parse("x86_64-linux-musl-march+avx")
	assert.NoError(t, err)
	assert.Equal(t, []Platform{already}, ExpandMicroarchitectures(already))

	noMarch, err := Parse("i686-linux-musl")
	assert.NoError(t, err)
	assert.Equal(t, []Platform{noMarch}, ExpandMicroarchitectures(noMarch))
}

func TestExpandGfortran(t *testing.T) {
	p, err := Parse("x86_64-linux-musl")
	assert.NoError(t, err)
	expanded := ExpandGfortran(p)
	assert.Equal(t, 3, len(expanded))
}

func TestExpandCxxstringSkipsMacOS(t *testing.T) {
	p, err := Parse("aarch64-macos")
	assert.NoError(t, err)
	assert.Equal(t, []Platform{p}, ExpandCxxstring(p))
}

func TestExtend(t *testing.T) {
	p, err := Parse("x86_64-linux-musl")
	assert.NoError(t, err)

	withMarch, err := p.Extend("march", "avx2")
	assert.NoError(t, err)
	assert.Equal(t, "avx2", withMarch.Extensions["march"])

	// Idempotent.
	again, err := withMarch.Extend("march", "avx2")
	assert.NoError(t, err)
	assert.Equal(t, withMarch, again)

	_, err = withMarch.Extend("march", "avx512")
	assert.Error(t, err)

	_, err = p.Extend("foo", "a+b")
	assert.Error(t, err)
}

func TestAbiAgnosticClearsAbi(t *testing.T) {
	p, err := Parse("x86_64-linux-musl-libgfortran5-cxx11")
	assert.NoError(t, err)
	agnostic := p.AbiAgnostic()
	assert.Equal(t, CompilerABI{}, agnostic.ABI)
	assert.Equal(t, p.Arch, agnostic.Arch)
}

func TestReplaceLibgfortranVersion(t *testing.T) {
	p, err := Parse("x86_64-linux-musl-libgfortran3")
	assert.NoError(t, err)
	replaced := p.ReplaceLibgfortranVersion(5)
	assert.Equal(t, 5, replaced.ABI.LibgfortranVersion)
	assert.Equal(t, 3, p.ABI.LibgfortranVersion) // original untouched
}

func TestExtendedPlatformKeyAbi(t *testing.T) {
	p, err := Parse("x86_64-linux-musl")
	assert.NoError(t, err)
	extended := ExtendedPlatformKeyAbi(p, map[CPUFeature]bool{FeatureAVX512: true, FeatureAVX2: true})
	march, _ := extended.march()
	assert.Equal(t, "avx512", march)

	nonX86, err := Parse("aarch64-linux-musl")
	assert.NoError(t, err)
	assert.Equal(t, nonX86, ExtendedPlatformKeyAbi(nonX86, map[CPUFeature]bool{FeatureAVX512: true}))
}
