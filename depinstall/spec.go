package depinstall

import "strings"

// PackageSpec names a single dependency a build requests, either pinned by
// Version, by TreeHash, or (for a stdlib-provided _jll) by neither until
// resolveStdlib fills TreeHash in.
type PackageSpec struct {
	Name         string
	Version      string
	TreeHash     string
	JuliaVersion string // set once resolved via the stdlib bypass path
}

func (p PackageSpec) isJLL() bool {
	return strings.HasSuffix(p.Name, "_jll")
}

// collapseTreeHash drops Version on any spec that also carries a TreeHash:
// "tree hash wins" per the closure and install steps that follow, which
// always identify a dependency by TreeHash when one is present.
func collapseTreeHash(specs []PackageSpec) []PackageSpec {
	out := make([]PackageSpec, len(specs))
	for i, s := range specs {
		if s.Version != "" && s.TreeHash != "" {
			s.Version = ""
		}
		out[i] = s
	}
	return out
}
