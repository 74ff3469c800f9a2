package platform

// microarchitectures lists the supported march extension values per
// architecture, in coarseness order (base arch first).
var microarchitectures = map[Arch][]string{
	X86_64:      {"x86_64", "avx", "avx2", "avx512"},
	AArch64:     {"armv8", "carmel", "thunderx2"},
	ARMv7L:      {"armv7l", "neon", "vfp4"},
	I686:        nil,
	PowerPC64LE: nil,
}

func validMicroarchitecture(arch Arch, march string) bool {
	for _, m := range microarchitectures[arch] {
		if m == march {
			return true
		}
	}
	return false
}

// ExpandMicroarchitectures returns one Platform per supported
// microarchitecture for p's architecture. If p already carries a march
// extension, it returns [p] unchanged. If p's architecture has no known
// microarchitectures, it also returns [p].
func ExpandMicroarchitectures(p Platform) []Platform {
	if _, ok := p.march(); ok {
		return []Platform{p}
	}
	marches := microarchitectures[p.Arch]
	if len(marches) == 0 {
		return []Platform{p}
	}
	out := make([]Platform, 0, len(marches))
	for _, march := range marches {
		out = append(out, p.withExtension("march", march))
	}
	return out
}

// libgfortranVersions are the libgfortran SONAME versions a GCC build may
// produce.
var libgfortranVersions = []int{3, 4, 5}

// ExpandGfortran returns one Platform per supported libgfortran version
// when p does not already specify one. Otherwise it returns [p].
func ExpandGfortran(p Platform) []Platform {
	if p.ABI.LibgfortranVersion != 0 {
		return []Platform{p}
	}
	out := make([]Platform, 0, len(libgfortranVersions))
	for _, v := range libgfortranVersions {
		c := p
		c.ABI.LibgfortranVersion = v
		out = append(out, c)
	}
	return out
}

// ExpandCxxstring returns one Platform per supported C++ string ABI when p
// does not already specify one. By default it skips FreeBSD/MacOS, which
// only ever produce one C++ string ABI.
func ExpandCxxstring(p Platform) []Platform {
	if p.ABI.CxxStringABI != CxxStringABINone {
		return []Platform{p}
	}
	if p.OS == FreeBSD || p.OS == MacOS {
		return []Platform{p}
	}
	out := make([]Platform, 0, 2)
	for _, abi := range []CxxStringABI{Cxx03, Cxx11} {
		c := p
		c.ABI.CxxStringABI = abi
		out = append(out, c)
	}
	return out
}

// CPUFeature is a single detected host CPU feature flag, e.g. "avx512f".
type CPUFeature string

// Recognised x86_64 CPU feature flags, coarsest-requirement first.
const (
	FeatureAVX    CPUFeature = "avx"
	FeatureAVX2   CPUFeature = "avx2"
	FeatureAVX512 CPUFeature = "avx512f"
)

// ExtendedPlatformKeyAbi classifies a host's CPU feature set into the
// coarsest march that still fits, and returns p extended with that march.
// If p's architecture is not x86_64, p is returned unextended.
func ExtendedPlatformKeyAbi(p Platform, cpuFeatures map[CPUFeature]bool) Platform {
	if p.Arch != X86_64 {
		return p
	}
	switch {
	case cpuFeatures[FeatureAVX512]:
		return p.withExtension("march", "avx512")
	case cpuFeatures[FeatureAVX2]:
		return p.withExtension("march", "avx2")
	case cpuFeatures[FeatureAVX]:
		return p.withExtension("march", "avx")
	default:
		return p.withExtension("march", "x86_64")
	}
}
