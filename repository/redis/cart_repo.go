package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/ketabplus/frontend/domain"
	"github.com/ketabplus/frontend/repository"
)

type cartRepository struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewCartRepository creates a Redis-backed cart cache for multi-terminal
// storefront deployments where the cart is shared between kiosks.
func NewCartRepository(client *redislib.Client, ttl time.Duration) repository.CartRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &cartRepository{
		client: client,
		prefix: "cart:",
		ttl:    ttl,
	}
}

func (r *cartRepository) Put(ctx context.Context, item *domain.CartItem) error {
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
	return r.client.Set(ctx, r.key(item.ID), payload, r.ttl).Err()
}

func (r *cartRepository) Get(ctx context.Context, id string) (*domain.CartItem, error) {
	result, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, nil
		}
		return nil, err
	}

	var item domain.CartItem
	if err := json.Unmarshal([]byte(result), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) List(ctx context.Context) ([]*domain.CartItem, error) {
	var items []*domain.CartItem
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		raw, err := r.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if err == redislib.Nil {
				continue
			}
			return nil, err
		}
		var item domain.CartItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			continue
		}
		items = append(items, &item)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) Remove(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *cartRepository) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *cartRepository) key(id string) string {
	return fmt.Sprintf("%s%s", r.prefix, id)
}
