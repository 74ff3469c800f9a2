// Package artifactstore computes content hashes for install-prefix trees
// and maintains the process-wide content-addressed store artifacts are
// copied into and out of.
package artifactstore

import (
	"crypto/sha1" // nolint: gosec
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/forgeline/sandboxctl/errors"
)

// entry modes, matching git's tree-object mode encoding.
const (
	modeRegular    = "100644"
	modeExecutable = "100755"
	modeSymlink    = "120000"
	modeDirectory  = "40000"
)

// TreeHash computes a git-tree-sha1-compatible content hash of dir: the
// same recursive "hash directory entries, sorted by name, into a tree
// object" algorithm git itself uses (directories sort as if their name
// ended in "/", as in git), so the result is byte-identical to
// `git hash-object -t tree` on an equivalent tree. This is the wire-format
// identifier artifacts are keyed by; it is not meant to be fast.
func TreeHash(dir string) (string, error) {
	sum, err := hashTree(dir)
	if err != nil {
		return "", errors.Wrapf(err, "hashing tree %s", dir)
	}
	return hex.EncodeToString(sum), nil
}

func hashTree(dir string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sortName := func(e fs.DirEntry) string {
		if e.IsDir() {
			return e.Name() + "/"
		}
		return e.Name()
	}
	sort.Slice(entries, func(i, j int) bool { return sortName(entries[i]) < sortName(entries[j]) })

	var body []byte
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		info, err := e.Info()
		if err != nil {
			return nil, errors.WithStack(err)
		}

		var mode string
		var sum []byte
		switch {
		case e.IsDir():
			mode = modeDirectory
			sum, err = hashTree(path)
		case info.Mode()&fs.ModeSymlink != 0:
			mode = modeSymlink
			sum, err = hashSymlink(path)
		case info.Mode()&0o111 != 0:
			mode = modeExecutable
			sum, err = hashBlob(path)
		default:
			mode = modeRegular
			sum, err = hashBlob(path)
		}
		if err != nil {
			return nil, err
		}

		body = append(body, []byte(fmt.Sprintf("%s %s\x00", mode, e.Name()))...)
		body = append(body, sum...)
	}
	return gitObjectSum("tree", body), nil
}

func hashBlob(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return gitObjectSum("blob", data), nil
}

func hashSymlink(path string) ([]byte, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return gitObjectSum("blob", []byte(target)), nil
}

func gitObjectSum(kind string, body []byte) []byte {
	h := sha1.New() // nolint: gosec
	fmt.Fprintf(h, "%s %d\x00", kind, len(body))
	h.Write(body)
	return h.Sum(nil)
}
