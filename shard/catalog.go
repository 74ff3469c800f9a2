package shard

import (
	"regexp"
	"strings"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/platform"
)

// shardNameRe decodes an artifact filename into its shard fields. Entries
// that don't match are silently skipped — the artifact store holds things
// other than compiler shards too.
var shardNameRe = regexp.MustCompile(
	`^(?P<name>[^-]+)(-(?P<target>.+))?\.(?P<version>v[\d.]+(?:-[^.]+)?)\.(?P<host>[^0-9].+-.+)\.(?P<ext>\w+)$`,
)

// Store resolves a shard's artifact name to a path in the content-addressed
// artifact store, or an absolute directory for unpacked shards. It is the
// collaborator C2 is built against; its concrete implementation (hashing,
// download, GC) is out of scope here.
type Store interface {
	// Names returns every artifact name currently present in the store.
	Names() ([]string, error)
	// Path resolves an artifact name to its on-disk path. Returns
	// ErrShardArtifactMissing if the name is not present.
	Path(name string) (string, error)
}

// Catalog is the process-wide cache of decoded CompilerShard entries, keyed
// by the underlying artifact Store.
type Catalog struct {
	store Store
	dbDir string

	once   sync.Once
	mu     sync.RWMutex
	shards []CompilerShard
	loadErr error
}

// NewCatalog constructs a Catalog over store. dbDir, if non-empty, is a
// directory that may hold a bbolt cache database surviving across process
// invocations; pass "" to cache in-memory only for the process lifetime.
func NewCatalog(store Store, dbDir string) *Catalog {
	return &Catalog{store: store, dbDir: dbDir}
}

// All returns every decoded shard in the catalog, loading and caching it on
// first use.
func (c *Catalog) All() ([]CompilerShard, error) {
	c.once.Do(c.load)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	out := make([]CompilerShard, len(c.shards))
	copy(out, c.shards)
	return out, nil
}

// Path resolves a shard's storage location via the underlying Store,
// wrapping a miss with ErrShardUnregistered.
func (c *Catalog) Path(s CompilerShard) (string, error) {
	path, err := c.store.Path(s.ArtifactName)
	if err != nil {
		return "", errors.Wrapf(errors.ErrShardUnregistered, "%s: %s", s.ArtifactName, err)
	}
	return path, nil
}

func (c *Catalog) load() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.loadFromCache(); ok {
		c.shards = cached
		return
	}

	names, err := c.store.Names()
	if err != nil {
		c.loadErr = errors.Wrap(err, "listing artifact store")
		return
	}
	shards := make([]CompilerShard, 0, len(names))
	for _, name := range names {
		s, ok := decodeShardName(name)
		if !ok {
			continue
		}
		shards = append(shards, s)
	}
	c.shards = shards
	c.saveToCache(shards)
}

func decodeShardName(name string) (CompilerShard, bool) {
	m := shardNameRe.FindStringSubmatch(name)
	if m == nil {
		return CompilerShard{}, false
	}
	groups := map[string]string{}
	for i, g := range shardNameRe.SubexpNames() {
		if g != "" {
			groups[g] = m[i]
		}
	}

	host, err := platform.Parse(groups["host"])
	if err != nil {
		return CompilerShard{}, false
	}

	s := CompilerShard{
		Name:         Kind(groups["name"]),
		Version:      strings.TrimPrefix(groups["version"], "v"),
		Host:         host.AbiAgnostic(),
		ArtifactName: name,
		ArchiveKind:  archiveKindFromExt(groups["ext"]),
	}
	if t := groups["target"]; t != "" {
		target, err := platform.Parse(t)
		if err != nil {
			return CompilerShard{}, false
		}
		target = target.AbiAgnostic()
		s.Target = &target
	}
	return s, true
}

func archiveKindFromExt(ext string) ArchiveKind {
	switch ext {
	case "squashfs", "sqfs":
		return Squashfs
	default:
		return Unpacked
	}
}

const cacheBucket = "shards"

func (c *Catalog) cachePath() string {
	if c.dbDir == "" {
		return ""
	}
	return c.dbDir + "/shard-catalog.bolt.db"
}

func (c *Catalog) loadFromCache() ([]CompilerShard, bool) {
	path := c.cachePath()
	if path == "" {
		return nil, false
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{ReadOnly: true})
	if err != nil {
		return nil, false
	}
	defer db.Close()

	var names []string
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(cacheBucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil || len(names) == 0 {
		return nil, false
	}
	shards := make([]CompilerShard, 0, len(names))
	for _, name := range names {
		if s, ok := decodeShardName(name); ok {
			shards = append(shards, s)
		}
	}
	return shards, true
}

func (c *Catalog) saveToCache(shards []CompilerShard) {
	path := c.cachePath()
	if path == "" {
		return
	}
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return
	}
	defer db.Close()
	_ = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(cacheBucket))
		if err != nil {
			return err
		}
		for _, s := range shards {
			if err := b.Put([]byte(s.ArtifactName), []byte{1}); err != nil {
				return err
			}
		}
		return nil
	})
}
