package platform

// Match returns true when every field specified on both sides agrees. A
// field unspecified on one side never forces a mismatch. For extensions, a
// key present on both sides must match; a key present on only one side is
// ignored.
//
// Match is reflexive (Match(p, p) is always true) and symmetric
// (Match(a, b) == Match(b, a)).
func Match(a, b Platform) bool {
	a, b = a.Resolve(), b.Resolve()
	if a.OS != b.OS {
		return false
	}
	if !archMatch(a.Arch, b.Arch) {
		return false
	}
	if !libcMatch(a.Libc, b.Libc) {
		return false
	}
	if !callABIMatch(a.CallABI, b.CallABI) {
		return false
	}
	if !abiMatch(a.ABI, b.ABI) {
		return false
	}
	return extensionsMatch(a.Extensions, b.Extensions)
}

func archMatch(a, b Arch) bool {
	return a == UnknownArch || b == UnknownArch || a == b
}

func libcMatch(a, b Libc) bool {
	return a == LibcNone || b == LibcNone || a == b
}

func callABIMatch(a, b CallABI) bool {
	return a == CallABINone || b == CallABINone || a == b
}

func abiMatch(a, b CompilerABI) bool {
	if a.LibgfortranVersion != 0 && b.LibgfortranVersion != 0 && a.LibgfortranVersion != b.LibgfortranVersion {
		return false
	}
	if a.LibstdcxxVersion != 0 && b.LibstdcxxVersion != 0 && a.LibstdcxxVersion != b.LibstdcxxVersion {
		return false
	}
	if a.CxxStringABI != CxxStringABINone && b.CxxStringABI != CxxStringABINone && a.CxxStringABI != b.CxxStringABI {
		return false
	}
	return true
}

func extensionsMatch(a, b map[string]string) bool {
	for k, v := range a {
		if ov, ok := b[k]; ok && ov != v {
			return false
		}
	}
	return true
}
