package depinstall

import (
	"encoding/json"
	"os"

	bolt "go.etcd.io/bbolt"

	"github.com/forgeline/sandboxctl/errors"
)

const diffBucket = "symlink-diffs"

// DiffStore persists, per artifact tree hash, the destdir symlink paths
// created for it while installing that artifact — so Uninstall can reverse
// the symlink step even after the artifact tree itself has since been
// copied away or garbage collected from the per-build artifacts dir. Same
// open-view/update-close-per-call bbolt idiom as the shard catalog's cache.
type DiffStore struct {
	path string
}

// NewDiffStore roots a DiffStore at dbPath. An empty dbPath disables
// persistence — Record/Paths/Forget all become no-ops — for callers (tests,
// one-shot installs) that don't need Uninstall to work across processes.
func NewDiffStore(dbPath string) *DiffStore {
	return &DiffStore{path: dbPath}
}

// Record stores the destdir paths created for hash.
func (d *DiffStore) Record(hash string, paths []string) error {
	if d.path == "" || len(paths) == 0 {
		return nil
	}
	db, err := bolt.Open(d.path, 0600, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	defer db.Close()
	data, err := json.Marshal(paths)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(diffBucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(hash), data)
	}))
}

// Paths returns the destdir paths previously recorded for hash.
func (d *DiffStore) Paths(hash string) ([]string, error) {
	if d.path == "" {
		return nil, nil
	}
	db, err := bolt.Open(d.path, 0600, &bolt.Options{ReadOnly: true})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer db.Close()
	var paths []string
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(diffBucket))
		if b == nil {
			return nil
		}
		data := b.Get([]byte(hash))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &paths)
	})
	return paths, errors.WithStack(err)
}

// Forget drops hash's recorded paths.
func (d *DiffStore) Forget(hash string) error {
	if d.path == "" {
		return nil
	}
	db, err := bolt.Open(d.path, 0600, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	defer db.Close()
	return errors.WithStack(db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(diffBucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(hash))
	}))
}
