// Package cache remembers what was generated for each unit so incremental
// batch runs can skip unchanged sources.
package cache

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/minio/highwayhash"
	"go.etcd.io/bbolt"
)

var (
	bucketName = []byte("units")
	hashKey    = []byte("ompcfg-highwayhash-fingerprint-k")
)

// Version is stored with each entry; entries from another version are stale.
const Version = "1"

// Fingerprint returns the 64-bit HighwayHash of source as 16 hex digits.
func Fingerprint(source string) string {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		// hashKey is a fixed 32-byte key.
		panic(err)
	}
	h.Write([]byte(source))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h.Sum64())
	return hex.EncodeToString(buf[:])
}

// Entry is what was generated for one unit.
type Entry struct {
	Unit        string    `json:"unit"`
	Fingerprint string    `json:"fingerprint"`
	Archetype   string    `json:"archetype"`
	Output      string    `json:"output"`
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Store is a bbolt-backed entry table keyed by unit name.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the entry for unit, or ok=false.
func (s *Store) Get(unit string) (Entry, bool, error) {
	var (
		e     Entry
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketName).Get([]byte(unit))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("read cache entry %s: %w", unit, err)
	}
	return e, found, nil
}

// Put stores e under e.Unit, stamping version and time when unset.
func (s *Store) Put(e Entry) error {
	if e.Unit == "" {
		return errors.New("cache entry without unit")
	}
	if e.Version == "" {
		e.Version = Version
	}
	if e.GeneratedAt.IsZero() {
		e.GeneratedAt = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(e.Unit), data)
	})
}

// Delete removes unit's entry.
func (s *Store) Delete(unit string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(unit))
	})
}

// Units lists every stored unit name in key order.
func (s *Store) Units() ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}

// Fresh reports whether unit was generated from source by this version.
func (s *Store) Fresh(unit, source string) (bool, error) {
	e, ok, err := s.Get(unit)
	if err != nil || !ok {
		return false, err
	}
	return e.Version == Version && e.Fingerprint == Fingerprint(source), nil
}

// Plan sorts units into new, changed and unchanged against the store, and
// lists stored units that are no longer present.
type Plan struct {
	New       []string `json:"new"`
	Changed   []string `json:"changed"`
	Unchanged []string `json:"unchanged"`
	Deleted   []string `json:"deleted"`
}

// Analyze builds a plan for sources, keyed by unit name.
func (s *Store) Analyze(sources map[string]string) (*Plan, error) {
	p := &Plan{}
	for unit, src := range sources {
		e, ok, err := s.Get(unit)
		if err != nil {
			return nil, err
		}
		switch {
		case !ok:
			p.New = append(p.New, unit)
		case e.Version != Version || e.Fingerprint != Fingerprint(src):
			p.Changed = append(p.Changed, unit)
		default:
			p.Unchanged = append(p.Unchanged, unit)
		}
	}

	stored, err := s.Units()
	if err != nil {
		return nil, err
	}
	for _, unit := range stored {
		if _, ok := sources[unit]; !ok {
			p.Deleted = append(p.Deleted, unit)
		}
	}

	sort.Strings(p.New)
	sort.Strings(p.Changed)
	sort.Strings(p.Unchanged)
	return p, nil
}
