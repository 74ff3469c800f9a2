package artifactstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/otiai10/copy"

	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/internal/lock"
)

// Store is the process-wide content-addressed artifact store: a single
// writer per tree hash, tolerant of concurrent callers racing to produce
// the same hash (the spec's "idempotent and tolerant of concurrent
// writers" shared-resource policy). Put copies a tree in, never
// hardlinking it.
type Store struct {
	root string

	mu      sync.Mutex
	writing map[string]*sync.Mutex
}

// Open returns a Store rooted at root, creating it if necessary.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	return &Store{root: root, writing: map[string]*sync.Mutex{}}, nil
}

// Path returns the on-disk path an artifact with the given tree hash would
// occupy, whether or not it has been installed yet.
func (s *Store) Path(hash string) string {
	return filepath.Join(s.root, hash)
}

// Has reports whether hash is already present in the store.
func (s *Store) Has(hash string) (bool, error) {
	_, err := os.Stat(s.Path(hash))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.WithStack(err)
}

// Put copies srcDir into the store keyed by its tree hash, returning the
// hash and its store path. If an entry for the computed hash already
// exists, srcDir is left untouched and the existing entry is reused —
// this is what makes concurrent producers of the same content safe:
// whichever caller wins the race, every caller observes a complete tree.
func (s *Store) Put(srcDir string) (hash, path string, err error) {
	hash, err = TreeHash(srcDir)
	if err != nil {
		return "", "", err
	}

	inProc := s.lockFor(hash)
	inProc.Lock()
	defer inProc.Unlock()

	dest := s.Path(hash)

	release, err := lock.Acquire(context.Background(), dest+".lock", "writing artifact "+hash)
	if err != nil {
		return "", "", errors.Wrapf(err, "locking artifact %s", hash)
	}
	defer release() // nolint: errcheck

	if ok, err := s.Has(hash); err != nil {
		return "", "", err
	} else if ok {
		return hash, dest, nil
	}

	tmp := dest + ".tmp"
	if err := os.RemoveAll(tmp); err != nil {
		return "", "", errors.WithStack(err)
	}
	if err := copy.Copy(srcDir, tmp); err != nil {
		return "", "", errors.Wrapf(err, "staging artifact %s", hash)
	}
	if err := os.Rename(tmp, dest); err != nil {
		// Another writer may have already renamed an equivalent tree into
		// place; that's fine, the content is identical by construction.
		if ok, hasErr := s.Has(hash); hasErr == nil && ok {
			return hash, dest, os.RemoveAll(tmp)
		}
		return "", "", errors.Wrapf(err, "installing artifact %s", hash)
	}
	return hash, dest, nil
}

func (s *Store) lockFor(hash string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.writing[hash]
	if !ok {
		m = &sync.Mutex{}
		s.writing[hash] = m
	}
	return m
}
