package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	boltlib "go.etcd.io/bbolt"

	"github.com/ketabplus/frontend/domain"
	boltInfra "github.com/ketabplus/frontend/internal/infrastructure/bolt"
)

func openTestDB(t *testing.T) *boltlib.DB {
	t.Helper()
	db, err := boltInfra.Open(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCartPutGetList(t *testing.T) {
	db := openTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()

	item := &domain.CartItem{BookID: "b-1", Title: "بوف کور", Quantity: 2, UnitPrice: 120000}
	require.NoError(t, repo.Put(ctx, item))
	require.NotEmpty(t, item.ID)
	require.False(t, item.AddedAt.IsZero())

	got, err := repo.Get(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "b-1", got.BookID)
	assert.Equal(t, 2, got.Quantity)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCartPutRejectsInvalidItem(t *testing.T) {
	db := openTestDB(t)
	repo := NewCartRepository(db)

	err := repo.Put(context.Background(), &domain.CartItem{BookID: "", Quantity: 0})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestCartRemove(t *testing.T) {
	db := openTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()

	item := &domain.CartItem{BookID: "b-1", Quantity: 1}
	require.NoError(t, repo.Put(ctx, item))
	require.NoError(t, repo.Remove(ctx, item.ID))

	got, err := repo.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClearPurgesCartButPreservesPreferences(t *testing.T) {
	db := openTestDB(t)
	carts := NewCartRepository(db)
	prefs := NewPreferenceRepository(db)
	ctx := context.Background()

	require.NoError(t, carts.Put(ctx, &domain.CartItem{BookID: "b-1", Quantity: 1}))
	require.NoError(t, carts.Put(ctx, &domain.CartItem{BookID: "b-2", Quantity: 3}))
	require.NoError(t, prefs.Set(ctx, "theme", "dark"))

	require.NoError(t, carts.Clear(ctx))

	items, err := carts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	theme, err := prefs.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)

	// the cart bucket stays usable after a purge
	require.NoError(t, carts.Put(ctx, &domain.CartItem{BookID: "b-3", Quantity: 1}))
}

func TestPreferencesAll(t *testing.T) {
	db := openTestDB(t)
	prefs := NewPreferenceRepository(db)
	ctx := context.Background()

	require.NoError(t, prefs.Set(ctx, "theme", "dark"))
	require.NoError(t, prefs.Set(ctx, "language", "fa"))

	all, err := prefs.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "dark", "language": "fa"}, all)
}
