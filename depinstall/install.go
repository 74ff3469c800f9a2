package depinstall

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"

	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/ui"
	"github.com/forgeline/sandboxctl/util"
)

// Installer instantiates a private per-build package environment and
// materialises its dependencies' artifacts into a build's destdir.
type Installer struct {
	Prefix string
	Graph  DependencyGraph
	Store  GlobalStore
	Stdlib StdlibResolver
	Diff   *DiffStore
}

// NewInstaller constructs an Installer rooted at prefix.
func NewInstaller(prefix string, graph DependencyGraph, store GlobalStore, stdlib StdlibResolver, diff *DiffStore) *Installer {
	return &Installer{Prefix: prefix, Graph: graph, Store: store, Stdlib: stdlib, Diff: diff}
}

// Result describes where Install placed things.
type Result struct {
	ProjectDir      string
	ArtifactsDir    string
	DestDir         string
	Resolved        []PackageSpec
	ForceRedownload []string
}

// Install resolves specs' full dependency closure, instantiates
// <prefix>/<triplet>/.project, copies each dependency's artifact tree from
// the global store into <prefix>/<triplet>/artifacts/<hash>, and
// symlink-trees each into <prefix>/<triplet>/destdir.
func (in *Installer) Install(log ui.Logger, triplet, juliaVersion string, specs []PackageSpec) (Result, error) {
	specs = collapseTreeHash(specs)

	closure, err := resolveClosure(in.Graph, specs)
	if err != nil {
		return Result{}, err
	}

	resolved, forceRedownload, err := resolveStdlib(in.Stdlib, juliaVersion, closure)
	if err != nil {
		return Result{}, err
	}

	projectDir := filepath.Join(in.Prefix, triplet, ".project")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return Result{}, errors.Wrapf(err, "creating %s", projectDir)
	}
	if err := writeManifest(projectDir, resolved); err != nil {
		return Result{}, err
	}

	artifactsDir := filepath.Join(in.Prefix, triplet, "artifacts")
	destDir := filepath.Join(in.Prefix, triplet, "destdir")

	for _, s := range resolved {
		src, err := in.Store.EnsureInstalled(s)
		if err != nil {
			return Result{}, errors.Wrapf(err, "installing %s", s.Name)
		}
		if err := in.copyAndLink(log, s, src, artifactsDir, destDir); err != nil {
			return Result{}, err
		}
	}

	return Result{
		ProjectDir:      projectDir,
		ArtifactsDir:    artifactsDir,
		DestDir:         destDir,
		Resolved:        resolved,
		ForceRedownload: forceRedownload,
	}, nil
}

// copyAndLink cp -R's src into artifactsDir/<hash> (a fresh per-build copy,
// never a symlink back to the global store) and then symlink-trees that
// copy into destDir.
func (in *Installer) copyAndLink(log ui.Logger, s PackageSpec, src, artifactsDir, destDir string) error {
	dest := filepath.Join(artifactsDir, s.TreeHash)
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return errors.WithStack(err)
		}
		if err := copy.Copy(src, dest); err != nil {
			return errors.Wrapf(err, "copying %s artifacts", s.Name)
		}
	}

	created, err := util.SymlinkTree(dest, destDir, func(destPath, occupant string) {
		log.Warnf("%s: already provided by artifact %s, not overwriting for %s", destPath, occupant, s.Name)
	})
	if err != nil {
		return errors.Wrapf(err, "symlinking %s", s.Name)
	}
	return in.Diff.Record(s.TreeHash, created)
}

// Uninstall reverses the symlink step for hash: every destdir symlink
// SymlinkTree created while installing it is removed. Real directories are
// left for the audit step.
func (in *Installer) Uninstall(hash string) error {
	paths, err := in.Diff.Paths(hash)
	if err != nil {
		return err
	}
	if err := util.Unsymlink(paths); err != nil {
		return err
	}
	return in.Diff.Forget(hash)
}

// writeManifest records the resolved specs under .project as JSON. A
// machine-only manifest like this doesn't need a human-authored config
// format (alecthomas/hcl, used elsewhere for operator-facing config, would
// be overkill for a file nothing but this package ever reads).
func writeManifest(projectDir string, specs []PackageSpec) error {
	data, err := json.MarshalIndent(specs, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(filepath.Join(projectDir, "manifest.json"), data, 0644))
}
