package fileloader

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketDownloads = "downloads"

// Cache keeps downloaded bodies keyed by URL.
type Cache struct {
	db *bolt.DB
}

// OpenCache opens or creates a cache database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketDownloads))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns a copy of the cached body for key.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketDownloads)).Get([]byte(key)); v != nil {
			// v is only valid for the life of the transaction.
			out = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

// Put stores a body.
func (c *Cache) Put(key string, data []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketDownloads)).Put([]byte(key), data)
	})
}

// Delete removes a body. Deleting a missing key is not an error.
func (c *Cache) Delete(key string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketDownloads)).Delete([]byte(key))
	})
}

// Keys lists cached URLs in byte order.
func (c *Cache) Keys() ([]string, error) {
	var keys []string
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketDownloads)).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}
