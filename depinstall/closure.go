package depinstall

import (
	"sort"

	"github.com/forgeline/sandboxctl/errors"
)

// DependencyGraph resolves the direct dependencies of one spec. Its
// concrete implementation talks to the package registry; C6 is built
// against this narrow contract rather than a concrete registry client.
type DependencyGraph interface {
	Dependencies(spec PackageSpec) ([]PackageSpec, error)
}

// resolveClosure unions, until fixpoint, the dependencies of every spec
// whose name ends "_jll" into the working set.
func resolveClosure(graph DependencyGraph, specs []PackageSpec) ([]PackageSpec, error) {
	seen := make(map[string]PackageSpec, len(specs))
	for _, s := range specs {
		seen[s.Name] = s
	}
	for {
		grew := false
		for _, s := range seen {
			if !s.isJLL() {
				continue
			}
			deps, err := graph.Dependencies(s)
			if err != nil {
				return nil, errors.Wrapf(err, "resolving dependencies of %s", s.Name)
			}
			for _, d := range deps {
				if _, ok := seen[d.Name]; !ok {
					seen[d.Name] = d
					grew = true
				}
			}
		}
		if !grew {
			break
		}
	}
	out := make([]PackageSpec, 0, len(seen))
	for _, s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
