package depinstall

import "github.com/forgeline/sandboxctl/errors"

// StdlibResolver looks up the concrete tree hash for a dependency that
// arrived without one because it came in as a stdlib entry for a given
// julia_version, bypassing the normal resolver (which would otherwise
// collapse distinct "+buildN" suffixes into one version).
type StdlibResolver interface {
	ResolveTreeHash(spec PackageSpec, juliaVersion string) (treeHash string, err error)
}

// resolveStdlib fills in TreeHash for every spec missing one. Every spec it
// touches is returned a second time in forceRedownload: the caller must
// re-fetch that dependency's sources/artifacts with julia_version=nil
// rather than trusting a stale global-store copy.
func resolveStdlib(resolver StdlibResolver, juliaVersion string, specs []PackageSpec) (resolved []PackageSpec, forceRedownload []string, err error) {
	resolved = make([]PackageSpec, len(specs))
	for i, s := range specs {
		if s.TreeHash != "" {
			resolved[i] = s
			continue
		}
		hash, err := resolver.ResolveTreeHash(s, juliaVersion)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "resolving stdlib tree hash for %s", s.Name)
		}
		s.TreeHash = hash
		s.JuliaVersion = juliaVersion
		resolved[i] = s
		forceRedownload = append(forceRedownload, s.Name)
	}
	return resolved, forceRedownload, nil
}
