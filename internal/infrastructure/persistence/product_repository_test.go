package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
)

func newTestProduct(t *testing.T, barcode string) *inventory.Product {
	t.Helper()
	p, err := inventory.NewProduct(barcode, "Product "+barcode,
		decimal.NewFromInt(20), decimal.NewFromInt(25))
	require.NoError(t, err)
	return p
}

func TestGormProductRepository_Save(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	t.Run("persists and reloads by id and barcode", func(t *testing.T) {
		p := newTestProduct(t, "4001")
		require.NoError(t, repo.Save(ctx, p))

		byID, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "4001", byID.Barcode)

		byBarcode, err := repo.FindByBarcode(ctx, "4001")
		require.NoError(t, err)
		assert.Equal(t, p.ID, byBarcode.ID)
	})

	t.Run("duplicate barcode is rejected", func(t *testing.T) {
		dup := newTestProduct(t, "4001")
		err := repo.Save(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("missing product yields not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_AdjustCurrentStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := newTestProduct(t, "4001")
	require.NoError(t, repo.Save(ctx, p))

	t.Run("credits and debits atomically", func(t *testing.T) {
		stock, err := repo.AdjustCurrentStock(ctx, p.ID, decimal.NewFromInt(100))
		require.NoError(t, err)
		assert.True(t, stock.Equal(decimal.NewFromInt(100)))

		stock, err = repo.AdjustCurrentStock(ctx, p.ID, decimal.NewFromInt(-30))
		require.NoError(t, err)
		assert.True(t, stock.Equal(decimal.NewFromInt(70)))
	})

	t.Run("refuses to go negative", func(t *testing.T) {
		_, err := repo.AdjustCurrentStock(ctx, p.ID, decimal.NewFromInt(-71))
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "INSUFFICIENT_STOCK"))

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, found.CurrentStock.Equal(decimal.NewFromInt(70)))
	})

	t.Run("unknown product yields not found", func(t *testing.T) {
		_, err := repo.AdjustCurrentStock(ctx, uuid.New(), decimal.NewFromInt(1))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_SetCurrentStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := newTestProduct(t, "4001")
	require.NoError(t, repo.Save(ctx, p))

	require.NoError(t, repo.SetCurrentStock(ctx, p.ID, decimal.NewFromInt(42)))
	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, found.CurrentStock.Equal(decimal.NewFromInt(42)))

	err = repo.SetCurrentStock(ctx, uuid.New(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductRepository_FindAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	active := newTestProduct(t, "4001")
	inactive := newTestProduct(t, "4002")
	inactive.IsActive = false
	low := newTestProduct(t, "4003")
	low.MinStock = decimal.NewFromInt(10)

	for _, p := range []*inventory.Product{active, inactive, low} {
		require.NoError(t, repo.Save(ctx, p))
	}

	t.Run("orders by barcode by default", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.OrderBy = ""

		page, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, page.Items, 3)
		assert.Equal(t, "4001", page.Items[0].Barcode)
	})

	t.Run("filters inactive products", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["is_active"] = true

		page, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("filters low stock products", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["low_stock"] = true

		page, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		// every product sits at zero stock, only one has a floor above zero
		for _, p := range page.Items {
			assert.True(t, p.IsLowStock())
		}
	})
}
