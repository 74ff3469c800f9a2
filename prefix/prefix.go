// Package prefix manages the on-disk build-prefix layout every module in
// this repository stages its work under.
package prefix

import (
	"os"
	"path/filepath"

	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/platform"
)

// Prefix is the root directory a single build owns: one srcdir, one
// metadir, a destdir per triplet it touches, and the global artifacts/
// .project/.mounts subtrees spec.md §6 names.
type Prefix struct {
	Root string
}

// New creates the fixed top-level layout under root: srcdir/, metadir/,
// and .mounts/. Per-triplet subtrees are created lazily by Destdir/
// Artifacts/Project as a build actually touches each triplet.
func New(root string) (*Prefix, error) {
	p := &Prefix{Root: root}
	for _, dir := range []string{p.Srcdir(), p.Metadir(), p.Mounts()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return p, nil
}

// Srcdir holds staged sources and their patches.
func (p *Prefix) Srcdir() string { return filepath.Join(p.Root, "srcdir") }

// Metadir holds build metadata.
func (p *Prefix) Metadir() string { return filepath.Join(p.Root, "metadir") }

// Mounts holds per-shard squashfs mountpoints.
func (p *Prefix) Mounts() string { return filepath.Join(p.Root, ".mounts") }

// TripletDir is the per-triplet subtree root, e.g. P/<triplet>/.
func (p *Prefix) TripletDir(t platform.Platform) string {
	return filepath.Join(p.Root, t.Triplet())
}

// Destdir is the install-staging directory for triplet t. EnsureTriplet
// creates it along with its artifacts/ and .project/ siblings.
func (p *Prefix) Destdir(t platform.Platform) string {
	return filepath.Join(p.TripletDir(t), "destdir")
}

// Artifacts is where per-build copies of t's dependencies land, one
// subdirectory per tree hash.
func (p *Prefix) Artifacts(t platform.Platform) string {
	return filepath.Join(p.TripletDir(t), "artifacts")
}

// Project is t's private package environment (manifest + lockfile).
func (p *Prefix) Project(t platform.Platform) string {
	return filepath.Join(p.TripletDir(t), ".project")
}

// EnsureTriplet creates destdir/artifacts/.project under t's subtree.
func (p *Prefix) EnsureTriplet(t platform.Platform) error {
	for _, dir := range []string{p.Destdir(t), p.Artifacts(t), p.Project(t)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// LinkDestdir (re)creates the stable P/destdir -> P/<target-triplet>/destdir
// symlink spec.md §6 describes, pointing the build's conventional output
// path at whichever triplet is the build's target.
func (p *Prefix) LinkDestdir(target platform.Platform) error {
	if err := p.EnsureTriplet(target); err != nil {
		return err
	}
	link := filepath.Join(p.Root, "destdir")
	rel, err := filepath.Rel(p.Root, p.Destdir(target))
	if err != nil {
		return errors.WithStack(err)
	}
	if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Symlink(rel, link))
}

// Cleanup removes the prefix tree entirely. Callers are responsible for
// having already unmounted any shard mountpoints and removed any
// symlink-tree installs under it first.
func (p *Prefix) Cleanup() error {
	return errors.WithStack(os.RemoveAll(p.Root))
}
