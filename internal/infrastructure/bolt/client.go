package bolt

import (
	"os"
	"path/filepath"
	"time"

	boltlib "go.etcd.io/bbolt"
)

// Bucket names for the local store.
var (
	BucketCart  = []byte("cart")
	BucketPrefs = []byte("prefs")
)

// Open initializes the local BoltDB file and ensures all buckets exist.
func Open(path string) (*boltlib.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := boltlib.Open(path, 0o600, &boltlib.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *boltlib.Tx) error {
		for _, bucket := range [][]byte{BucketCart, BucketPrefs} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
