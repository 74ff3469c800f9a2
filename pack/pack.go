// Package pack snapshots a finished install prefix into a content-addressed
// tarball, the final step of a build.
package pack

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/forgeline/sandboxctl/artifactstore"
	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/platform"
)

// Result is what a completed Package call produced.
type Result struct {
	Path     string
	Sha256   string
	TreeHash string
}

// Package snapshots srcDir (a build's destdir) into the process-wide
// content-addressed artifact store, then archives that snapshot to
// "<outBase>.v<version>.<triplet>.tar.gz", returning the archive path, its
// sha256, and the artifact's tree hash.
func Package(store *artifactstore.Store, srcDir, outBase, version string, p platform.Platform, force bool) (Result, error) {
	outPath := fmt.Sprintf("%s.v%s.%s.tar.gz", outBase, version, p.Triplet())

	if !force {
		if _, err := os.Stat(outPath); err == nil {
			return Result{}, errors.Wrapf(errors.ErrOutputExists, "%s", outPath)
		} else if !os.IsNotExist(err) {
			return Result{}, errors.WithStack(err)
		}
	}

	info, err := os.Stat(srcDir)
	if err != nil {
		return Result{}, errors.WithStack(err)
	}

	treeHash, snapshotPath, err := store.Put(srcDir)
	if err != nil {
		return Result{}, errors.Wrapf(err, "snapshotting %s", srcDir)
	}
	if err := os.Chmod(snapshotPath, info.Mode()); err != nil {
		return Result{}, errors.WithStack(err)
	}

	sum, err := archiveDir(snapshotPath, outPath)
	if err != nil {
		return Result{}, errors.Wrapf(err, "archiving %s", snapshotPath)
	}

	return Result{Path: outPath, Sha256: sum, TreeHash: treeHash}, nil
}

func archiveDir(root, outPath string) (string, error) {
	tmp := outPath + ".tmp"
	f, err := os.Create(tmp) // nolint: gosec
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer f.Close() // nolint: gosec, errcheck

	h := sha256.New()
	gw, err := gzip.NewWriterLevel(io.MultiWriter(f, h), gzip.BestCompression)
	if err != nil {
		return "", errors.WithStack(err)
	}
	tw := tar.NewWriter(gw)

	if err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.WithStack(err)
		}
		if rel == "." {
			return nil
		}
		return writeTarEntry(tw, path, rel, info)
	}); err != nil {
		return "", err
	}

	if err := tw.Close(); err != nil {
		return "", errors.WithStack(err)
	}
	if err := gw.Close(); err != nil {
		return "", errors.WithStack(err)
	}
	if err := f.Close(); err != nil {
		return "", errors.WithStack(err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		return "", errors.WithStack(err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeTarEntry(tw *tar.Writer, path, rel string, info os.FileInfo) error {
	var link string
	if info.Mode()&os.ModeSymlink != 0 {
		var err error
		link, err = os.Readlink(path)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return errors.WithStack(err)
	}
	hdr.Name = rel
	if info.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return errors.WithStack(err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	r, err := os.Open(path) // nolint: gosec
	if err != nil {
		return errors.WithStack(err)
	}
	defer r.Close() // nolint: gosec, errcheck
	_, err = io.Copy(tw, r)
	return errors.WithStack(err)
}
