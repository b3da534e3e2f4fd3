package placement

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/1broseidon/winplace/internal/platform"
)

const boltBucket = "placements"

// BoltBackend persists the placement map in a bbolt database, one bucket
// entry per key with a JSON-encoded rectangle as the value.
type BoltBackend struct {
	db *bbolt.DB
}

var _ Backend = (*BoltBackend)(nil)

// OpenBolt opens (creating if needed) a bbolt database at path.
func OpenBolt(path string) (*BoltBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create placements directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open placements db %q: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create placements bucket: %w", err)
	}

	return &BoltBackend{db: db}, nil
}

// Close closes the underlying database.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}

func (b *BoltBackend) Load() (Map, error) {
	out := Map{}

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %q not found", boltBucket)
		}
		return bucket.ForEach(func(k, v []byte) error {
			var rec rectRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to parse placement %q: %w", string(k), err)
			}
			out[string(k)] = platform.Rect{X: rec.X, Y: rec.Y, Width: rec.Width, Height: rec.Height}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Save replaces the bucket contents with m. Recreating the bucket keeps
// full-map save semantics: keys absent from m do not linger.
func (b *BoltBackend) Save(m Map) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(boltBucket)); err != nil && err != bbolt.ErrBucketNotFound {
			return fmt.Errorf("failed to reset placements bucket: %w", err)
		}
		bucket, err := tx.CreateBucket([]byte(boltBucket))
		if err != nil {
			return fmt.Errorf("failed to create placements bucket: %w", err)
		}
		for k, rec := range toRecords(m) {
			buf, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to encode placement %q: %w", k, err)
			}
			if err := bucket.Put([]byte(k), buf); err != nil {
				return err
			}
		}
		return nil
	})
}
