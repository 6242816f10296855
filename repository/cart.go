package repository

import (
	"context"

	"github.com/ketabplus/frontend/domain"
)

// CartRepository persists the session-scoped cart cache. Entries are
// written by the storefront during normal operation and purged only by
// the session manager on logout.
type CartRepository interface {
	Put(ctx context.Context, item *domain.CartItem) error
	Get(ctx context.Context, id string) (*domain.CartItem, error)
	List(ctx context.Context) ([]*domain.CartItem, error)
	Remove(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}
