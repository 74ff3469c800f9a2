package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/forgeline/sandboxctl/depinstall"
	"github.com/forgeline/sandboxctl/envars"
	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/platform"
	"github.com/forgeline/sandboxctl/sourcestage"
	"github.com/forgeline/sandboxctl/util"
)

// fsShardStore treats a flat directory of already-unpacked or squashfs'd
// shard artifacts as the content-addressed shard store C2 is built
// against; the real registry/downloader that populates such a directory
// is out of scope.
type fsShardStore struct{ dir string }

func (s *fsShardStore) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (s *fsShardStore) Path(name string) (string, error) {
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", errors.Wrapf(err, "shard artifact %s not present under %s", name, s.dir)
	}
	return util.RealPath(path), nil
}

// fsGlobalStore resolves a dependency's tree hash directly to
// "<dir>/<hash>", assuming whatever populated that directory (an
// out-of-scope downloader) already verified the content. It never builds
// anything itself.
type fsGlobalStore struct{ dir string }

func (s *fsGlobalStore) EnsureInstalled(spec depinstall.PackageSpec) (string, error) {
	if spec.TreeHash == "" {
		return "", errors.Errorf("%s: no tree hash to resolve in the local artifact directory", spec.Name)
	}
	path := filepath.Join(s.dir, spec.TreeHash)
	if _, err := os.Stat(path); err != nil {
		return "", errors.Wrapf(err, "artifact %s not present under %s", spec.TreeHash, s.dir)
	}
	return util.RealPath(path), nil
}

// flatDependencyGraph treats the CLI's --dep flags as an already-closed
// dependency set: none of them has further dependencies from this
// collaborator's point of view. A real package registry client would
// replace this.
type flatDependencyGraph struct{}

func (flatDependencyGraph) Dependencies(depinstall.PackageSpec) ([]depinstall.PackageSpec, error) {
	return nil, nil
}

// unsupportedStdlibResolver rejects any spec arriving without a tree hash;
// the CLI has no registry client to resolve one against a Julia stdlib
// version table.
type unsupportedStdlibResolver struct{}

func (unsupportedStdlibResolver) ResolveTreeHash(spec depinstall.PackageSpec, juliaVersion string) (string, error) {
	return "", errors.Errorf("%s: no registry client configured to resolve a Julia stdlib tree hash", spec.Name)
}

func platformForTriplet(s string) (platform.Platform, error) {
	return platform.Parse(s)
}

func systemEnv() envars.Envars {
	return envars.Parse(os.Environ())
}

// parseSources turns each --source argument into a sourcestage.Source: a
// directory becomes a Directory source, a git URL (scheme://..., with an
// optional "#ref") becomes a Git source, anything else is treated as a
// file or archive by extension.
func parseSources(args []string) ([]sourcestage.Source, error) {
	var out []sourcestage.Source
	for _, arg := range args {
		src, err := parseSource(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func parseSource(arg string) (sourcestage.Source, error) {
	if strings.Contains(arg, "://") {
		path, ref := splitRef(arg)
		return sourcestage.Git{Path: path, Commit: ref}, nil
	}
	info, err := os.Stat(arg)
	if err != nil {
		return nil, errors.Wrapf(err, "staging source %s", arg)
	}
	if info.IsDir() {
		return sourcestage.Directory{Path: arg, FollowSymlinks: false}, nil
	}
	if isArchiveExt(arg) {
		return sourcestage.Archive{Path: arg}, nil
	}
	return sourcestage.File{Path: arg, Target: filepath.Base(arg)}, nil
}

func splitRef(arg string) (path, ref string) {
	if i := strings.LastIndex(arg, "#"); i >= 0 {
		return arg[:i], arg[i+1:]
	}
	return arg, ""
}

func isArchiveExt(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tbz2", ".tar.xz", ".tar.zst", ".zip", ".7z", ".deb", ".rpm"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// parseDeps turns each --dep argument (name@version or name#treehash)
// into a depinstall.PackageSpec.
func parseDeps(args []string) ([]depinstall.PackageSpec, error) {
	var out []depinstall.PackageSpec
	for _, arg := range args {
		if i := strings.LastIndex(arg, "#"); i >= 0 {
			out = append(out, depinstall.PackageSpec{Name: arg[:i], TreeHash: arg[i+1:]})
			continue
		}
		if i := strings.LastIndex(arg, "@"); i >= 0 {
			out = append(out, depinstall.PackageSpec{Name: arg[:i], Version: arg[i+1:]})
			continue
		}
		return nil, errors.Errorf("%s: expected name@version or name#treehash", arg)
	}
	return out, nil
}
