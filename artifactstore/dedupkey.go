package artifactstore

import (
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"

	"github.com/forgeline/sandboxctl/errors"
)

// DedupKey computes a cheap internal fingerprint of dir. Store does not
// call it; it is a standalone helper. Unlike TreeHash
// this is not a wire format: it streams file contents through blake2b-256
// in directory order rather than reproducing git's tree-object recursion,
// so it's unsuitable for anything that needs to match an external hash.
func DedupKey(dir string) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if err := walkForDedup(dir, h); err != nil {
		return "", errors.Wrapf(err, "computing dedup key for %s", dir)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func walkForDedup(root string, h io.Writer) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.WithStack(err)
		}
		if _, err := io.WriteString(h, rel+"\x00"); err != nil {
			return errors.WithStack(err)
		}

		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return errors.WithStack(err)
			}
			_, err = io.WriteString(h, target)
			return errors.WithStack(err)
		}

		f, err := os.Open(path)
		if err != nil {
			return errors.WithStack(err)
		}
		defer f.Close() // nolint: gosec
		_, err = io.Copy(h, f)
		return errors.WithStack(err)
	})
}
