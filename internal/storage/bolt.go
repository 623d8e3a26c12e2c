package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const blobBucket = "blobs"

// boltStore implements a BlobStore backed by BoltDB.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed BlobStore.
func openBolt(path string) (*boltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, secureDirMode); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, secureFileMode, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(blobBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) Get(key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(blobBucket))
		if bucket == nil {
			return fmt.Errorf("blob bucket missing")
		}
		// bbolt values are only valid inside the transaction
		if v := bucket.Get([]byte(key)); v != nil {
			value = string(v)
			ok = true
		}
		return nil
	})
	return value, ok, err
}

func (b *boltStore) Set(key, value string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(blobBucket))
		if bucket == nil {
			return fmt.Errorf("blob bucket missing")
		}
		return bucket.Put([]byte(key), []byte(value))
	})
}

func (b *boltStore) Delete(key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(blobBucket))
		if bucket == nil {
			return fmt.Errorf("blob bucket missing")
		}
		return bucket.Delete([]byte(key))
	})
}
