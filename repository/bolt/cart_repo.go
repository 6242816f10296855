package bolt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	boltlib "go.etcd.io/bbolt"

	"github.com/ketabplus/frontend/domain"
	boltInfra "github.com/ketabplus/frontend/internal/infrastructure/bolt"
	"github.com/ketabplus/frontend/repository"
)

type cartRepository struct {
	db     *boltlib.DB
	bucket []byte
}

// NewCartRepository creates a BoltDB-backed cart cache.
func NewCartRepository(db *boltlib.DB) repository.CartRepository {
	return &cartRepository{
		db:     db,
		bucket: boltInfra.BucketCart,
	}
}

func (r *cartRepository) Put(ctx context.Context, item *domain.CartItem) error {
	if r == nil || r.db == nil {
		return boltlib.ErrDatabaseNotOpen
	}
	if !item.Valid() {
		return domain.ErrInvalidPayload
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *boltlib.Tx) error {
		return tx.Bucket(r.bucket).Put([]byte(item.ID), payload)
	})
}

func (r *cartRepository) Get(ctx context.Context, id string) (*domain.CartItem, error) {
	if r == nil || r.db == nil {
		return nil, boltlib.ErrDatabaseNotOpen
	}
	var item *domain.CartItem
	err := r.db.View(func(tx *boltlib.Tx) error {
		raw := tx.Bucket(r.bucket).Get([]byte(id))
		if raw == nil {
			return nil
		}
		var decoded domain.CartItem
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return err
		}
		item = &decoded
		return nil
	})
	return item, err
}

func (r *cartRepository) List(ctx context.Context) ([]*domain.CartItem, error) {
	if r == nil || r.db == nil {
		return nil, boltlib.ErrDatabaseNotOpen
	}
	var items []*domain.CartItem
	err := r.db.View(func(tx *boltlib.Tx) error {
		return tx.Bucket(r.bucket).ForEach(func(k, v []byte) error {
			var item domain.CartItem
			if err := json.Unmarshal(v, &item); err != nil {
				// skip corrupted entries rather than failing the whole listing
				return nil
			}
			items = append(items, &item)
			return nil
		})
	})
	return items, err
}

func (r *cartRepository) Remove(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return boltlib.ErrDatabaseNotOpen
	}
	return r.db.Update(func(tx *boltlib.Tx) error {
		return tx.Bucket(r.bucket).Delete([]byte(id))
	})
}

func (r *cartRepository) Clear(ctx context.Context) error {
	if r == nil || r.db == nil {
		return boltlib.ErrDatabaseNotOpen
	}
	return r.db.Update(func(tx *boltlib.Tx) error {
		if err := tx.DeleteBucket(r.bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(r.bucket)
		return err
	})
}
