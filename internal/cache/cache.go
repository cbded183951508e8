// Package cache keeps the day's dividend universe (dividends, reference
// quotes, expirations) in a bbolt file so repeated runs on the same day skip
// the expensive calendar and expiration calls.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/jwaldner/divvyarb/internal/models"
)

const universeBucket = "universe"

type Cache struct {
	db *bolt.DB
}

// Open opens or creates the cache file at path.
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(universeBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating %s bucket: %w", universeBucket, err)
	}

	return &Cache{db: db}, nil
}

func key(date time.Time) []byte {
	return []byte(date.Format(models.DateLayout))
}

// Load returns the snapshot stored for date, if any.
func (c *Cache) Load(date time.Time) (*models.UniverseSnapshot, bool, error) {
	var snap *models.UniverseSnapshot

	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(universeBucket))
		if b == nil {
			return nil
		}
		data := b.Get(key(date))
		if data == nil {
			return nil
		}
		snap = &models.UniverseSnapshot{}
		return json.Unmarshal(data, snap)
	})
	if err != nil {
		return nil, false, fmt.Errorf("loading cached universe: %w", err)
	}

	return snap, snap != nil, nil
}

// Save stores snap under its date and drops every earlier day.
func (c *Cache) Save(snap *models.UniverseSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding universe: %w", err)
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(universeBucket))
		if err != nil {
			return err
		}

		// Keys are YYYY-MM-DD so byte order is date order.
		var stale [][]byte
		cur := b.Cursor()
		for k, _ := cur.First(); k != nil && string(k) < snap.Date; k, _ = cur.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		return b.Put([]byte(snap.Date), data)
	})
}

// Dates lists the cached days in ascending order.
func (c *Cache) Dates() ([]string, error) {
	var dates []string
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(universeBucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			dates = append(dates, string(k))
			return nil
		})
	})
	return dates, err
}

// Clear deletes all cached days and returns how many there were.
func (c *Cache) Clear() (int, error) {
	var n int
	err := c.db.Update(func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(universeBucket)); b != nil {
			n = b.Stats().KeyN
			if err := tx.DeleteBucket([]byte(universeBucket)); err != nil {
				return fmt.Errorf("failed to delete %s bucket: %w", universeBucket, err)
			}
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(universeBucket)); err != nil {
			return fmt.Errorf("failed to recreate %s bucket: %w", universeBucket, err)
		}
		return nil
	})
	return n, err
}

func (c *Cache) Close() error {
	return c.db.Close()
}
