package platform

import "strings"

// AAtriplet renders the "arch-os[-libc[eabihf]]" prefix of the full
// triplet: the part that ABI tags and extensions are appended to.
// armv7l normalises to "arm" here, matching the convention real-world
// autoconf triplets use.
func (p Platform) AAtriplet() string {
	if p.OS == Any {
		return "any"
	}
	parts := []string{p.Arch.aaArch(), p.OS.String()}
	if libcPart := p.libcSuffix(); libcPart != "" {
		parts = append(parts, libcPart)
	}
	return strings.Join(parts, "-")
}

// libcSuffix renders the combined libc+call-ABI word, e.g. "musleabihf",
// or "" if neither is set.
func (p Platform) libcSuffix() string {
	s := p.Libc.String()
	s += p.CallABI.String()
	return s
}

// Triplet renders the full wire-format triplet: arch-os[-libc[eabihf]],
// followed by ABI tags (libgfortranN, cxxNN), followed by sorted extension
// key+value pairs. AnyPlatform triplets to the literal string "any".
//
// Unlike AAtriplet, Triplet keeps the literal architecture spelling
// (armv7l, not arm).
func (p Platform) Triplet() string {
	if p.OS == Any {
		return "any"
	}
	parts := []string{p.Arch.String(), p.OS.String()}
	if libcPart := p.libcSuffix(); libcPart != "" {
		parts = append(parts, libcPart)
	}
	if p.ABI.LibgfortranVersion != 0 {
		parts = append(parts, "libgfortran"+itoa(p.ABI.LibgfortranVersion))
	}
	if p.ABI.CxxStringABI != CxxStringABINone {
		parts = append(parts, p.ABI.CxxStringABI.String())
	}
	for _, key := range p.sortedExtensionKeys() {
		parts = append(parts, key+"+"+p.Extensions[key])
	}
	return strings.Join(parts, "-")
}

// String implements fmt.Stringer as the full triplet.
func (p Platform) String() string {
	return p.Triplet()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
