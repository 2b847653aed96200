package services

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/devirz/open-router-chat/internal/models"
)

// BoltCatalog stores a fetched copy of the model catalog in a BoltDB file, together with the
// time it was fetched. Chat history is deliberately not persisted; the catalog is the only
// thing worth keeping across page loads and restarts.
type BoltCatalog struct {
	db *bolt.DB
}

var (
	catalogBucket     = []byte("catalog")
	catalogModelsKey  = []byte("models")
	catalogFetchedKey = []byte("fetchedAt")
)

// NewBoltCatalog opens (or creates, with 0600 permissions) the catalog database at path and
// initializes its bucket.
func NewBoltCatalog(path string) (BoltCatalog, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltCatalog{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(catalogBucket)
		return err
	})

	return BoltCatalog{db: db}, err
}

// Get returns the cached catalog and the time it was stored. A cache miss returns an empty
// catalog with a zero time and no error.
func (b BoltCatalog) Get() ([]models.Model, time.Time, error) {
	var (
		catalog   []models.Model
		fetchedAt time.Time
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(catalogBucket)
		if bkt == nil {
			return nil
		}

		v := bkt.Get(catalogModelsKey)
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &catalog); err != nil {
			return fmt.Errorf("failed to unmarshal catalog: %w", err)
		}

		if ts := bkt.Get(catalogFetchedKey); ts != nil {
			parsed, err := time.Parse(time.RFC3339, string(ts))
			if err != nil {
				return fmt.Errorf("failed to parse fetch time: %w", err)
			}
			fetchedAt = parsed
		}
		return nil
	})
	if err != nil {
		return nil, time.Time{}, err
	}
	return catalog, fetchedAt, nil
}

// Put replaces the cached catalog and stamps it with the current time.
func (b BoltCatalog) Put(catalog []models.Model) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(catalogBucket)
		if bkt == nil {
			return nil
		}

		v, err := json.Marshal(catalog)
		if err != nil {
			return fmt.Errorf("failed to marshal catalog: %w", err)
		}
		if err := bkt.Put(catalogModelsKey, v); err != nil {
			return err
		}
		return bkt.Put(catalogFetchedKey, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

// Close closes the underlying database.
func (b BoltCatalog) Close() error {
	return b.db.Close()
}
