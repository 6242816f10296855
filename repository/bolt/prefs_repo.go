package bolt

import (
	"context"

	boltlib "go.etcd.io/bbolt"

	boltInfra "github.com/ketabplus/frontend/internal/infrastructure/bolt"
	"github.com/ketabplus/frontend/repository"
)

type prefsRepository struct {
	db     *boltlib.DB
	bucket []byte
}

// NewPreferenceRepository creates a BoltDB-backed preference store.
// Preferences are process-wide and intentionally outside the session
// manager's logout purge.
func NewPreferenceRepository(db *boltlib.DB) repository.PreferenceRepository {
	return &prefsRepository{
		db:     db,
		bucket: boltInfra.BucketPrefs,
	}
}

func (r *prefsRepository) Get(ctx context.Context, key string) (string, error) {
	if r == nil || r.db == nil {
		return "", boltlib.ErrDatabaseNotOpen
	}
	var value string
	err := r.db.View(func(tx *boltlib.Tx) error {
		if raw := tx.Bucket(r.bucket).Get([]byte(key)); raw != nil {
			value = string(raw)
		}
		return nil
	})
	return value, err
}

func (r *prefsRepository) Set(ctx context.Context, key, value string) error {
	if r == nil || r.db == nil {
		return boltlib.ErrDatabaseNotOpen
	}
	return r.db.Update(func(tx *boltlib.Tx) error {
		return tx.Bucket(r.bucket).Put([]byte(key), []byte(value))
	})
}

func (r *prefsRepository) All(ctx context.Context) (map[string]string, error) {
	if r == nil || r.db == nil {
		return nil, boltlib.ErrDatabaseNotOpen
	}
	out := make(map[string]string)
	err := r.db.View(func(tx *boltlib.Tx) error {
		return tx.Bucket(r.bucket).ForEach(func(k, v []byte) error {
			out[string(k)] = string(v)
			return nil
		})
	})
	return out, err
}
