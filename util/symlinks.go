package util

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/forgeline/sandboxctl/errors"
)

// ResolveSymlinks returns all symlinks in a chain, including the final file, as absolute paths.
func ResolveSymlinks(path string) (links []string, err error) {
	path, err = filepath.Abs(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	links = append(links, path)
	var link string
	for i := 0; i < 20; i++ {
		if info, err := os.Lstat(path); err != nil {
			return nil, errors.Wrap(err, path)
		} else if info.Mode()&os.ModeSymlink == 0 {
			break
		}
		dir := filepath.Dir(path)
		link, err = os.Readlink(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if filepath.IsAbs(link) {
			path = link
		} else {
			path = filepath.Join(dir, link)
		}
		links = append(links, path)
	}
	return links, nil
}

// SymlinkTree mirrors srcRoot into destRoot: directories are created with
// mkdir (a symlinked directory in srcRoot is recreated as the identical
// symlink in destRoot, without descending into it), and every regular file
// becomes a relative symlink back to srcRoot. A destPath that already
// exists and matches the source by size and sha256 is left alone silently;
// any other occupant is reported to onConflict with the artifact hash
// (climbed via realpath) currently occupying that path, and otherwise left
// untouched. Returns every symlink SymlinkTree itself created (not the
// directories it made), for later reversal by Unsymlink.
func SymlinkTree(srcRoot, destRoot string, onConflict func(destPath, occupant string)) ([]string, error) {
	var created []string
	err := filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return errors.WithStack(err)
		}
		if rel == "." {
			return nil
		}
		dest := filepath.Join(destRoot, rel)

		if d.Type()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return errors.WithStack(err)
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return errors.WithStack(err)
			}
			if _, err := os.Lstat(dest); err == nil {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if err := os.Symlink(target, dest); err != nil {
				return errors.WithStack(err)
			}
			created = append(created, dest)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return errors.WithStack(os.MkdirAll(dest, 0755))
		}

		exists, conflict, err := conflictAt(dest, path)
		if err != nil {
			return err
		}
		if exists {
			if conflict && onConflict != nil {
				occupant, _ := climbToArtifactHash(dest)
				onConflict(dest, occupant)
			}
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return errors.WithStack(err)
		}
		relTarget, err := filepath.Rel(filepath.Dir(dest), path)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := os.Symlink(relTarget, dest); err != nil {
			return errors.WithStack(err)
		}
		created = append(created, dest)
		return nil
	})
	return created, errors.WithStack(err)
}

// conflictAt reports whether dest exists, and if so whether it differs
// from src by size or sha256 (a "conflict" worth warning about, as opposed
// to an identical artifact already linked in by another dependency).
func conflictAt(dest, src string) (exists, conflict bool, err error) {
	destInfo, err := os.Stat(dest)
	if os.IsNotExist(err) {
		return false, false, nil
	}
	if err != nil {
		return false, false, errors.WithStack(err)
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return true, true, nil
	}
	if destInfo.Size() != srcInfo.Size() {
		return true, true, nil
	}
	destHash, err1 := Sha256LocalFile(dest)
	srcHash, err2 := Sha256LocalFile(src)
	if err1 != nil || err2 != nil || destHash != srcHash {
		return true, true, nil
	}
	return true, false, nil
}

// climbToArtifactHash resolves path's realpath and climbs it looking for
// the hash component of a ".../artifacts/<hash>/..." ancestor.
func climbToArtifactHash(path string) (string, error) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	marker := string(filepath.Separator) + "artifacts" + string(filepath.Separator)
	idx := strings.LastIndex(real, marker)
	if idx < 0 {
		return real, nil
	}
	rest := real[idx+len(marker):]
	parts := strings.SplitN(rest, string(filepath.Separator), 2)
	return parts[0], nil
}

// Unsymlink removes every path in paths that is still a symlink, leaving
// anything else (a real directory, a file another process raced in)
// untouched for a later audit step to reconcile.
func Unsymlink(paths []string) error {
	for _, p := range paths {
		info, err := os.Lstat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return errors.WithStack(err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			continue
		}
		if err := os.Remove(p); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
