package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *inventory.Product) error {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	var product inventory.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByBarcode finds a product by its barcode
func (r *GormProductRepository) FindByBarcode(ctx context.Context, barcode string) (*inventory.Product, error) {
	var product inventory.Product
	if err := r.db.WithContext(ctx).First(&product, "barcode = ?", barcode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindAll pages through the catalog
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*inventory.Product], error) {
	query := r.db.WithContext(ctx).Model(&inventory.Product{})
	if active, ok := filter.Filters["is_active"]; ok {
		query = query.Where("is_active = ?", active)
	}
	if category, ok := filter.Filters["category"]; ok {
		query = query.Where("category = ?", category)
	}
	if low, ok := filter.Filters["low_stock"]; ok && low == true {
		query = query.Where("current_stock <= min_stock")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, ProductSortFields, "barcode")
	orderDir := ValidateSortOrder(filter.OrderDir)
	if filter.OrderBy == "" {
		orderDir = "ASC"
	}
	query = query.Order(orderBy + " " + orderDir)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var products []*inventory.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return shared.NewPaginated(products, total, filter.Page, filter.PageSize), nil
}

// AdjustCurrentStock applies a signed delta to the cached stock level in a
// single guarded UPDATE so concurrent writers cannot drive it negative,
// then reads back the resulting level
func (r *GormProductRepository) AdjustCurrentStock(ctx context.Context, productID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	result := r.db.WithContext(ctx).
		Model(&inventory.Product{}).
		Where("id = ? AND current_stock + ? >= 0", productID, delta).
		UpdateColumn("current_stock", gorm.Expr("current_stock + ?", delta))
	if result.Error != nil {
		return decimal.Zero, result.Error
	}
	if result.RowsAffected == 0 {
		product, err := r.FindByID(ctx, productID)
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.Zero, inventory.NewInsufficientStockError(productID, delta.Neg(), product.CurrentStock)
	}

	var stock decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&inventory.Product{}).
		Where("id = ?", productID).
		Select("current_stock").
		Scan(&stock).Error; err != nil {
		return decimal.Zero, err
	}
	return stock, nil
}

// UpdatePrices refreshes the catalog reference prices without touching any
// other column, so a concurrently moving current_stock is left alone
func (r *GormProductRepository) UpdatePrices(ctx context.Context, productID uuid.UUID, costPrice, sellingPrice decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.Product{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]interface{}{
			"cost_price":    costPrice,
			"selling_price": sellingPrice,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetCurrentStock overwrites the cached stock level, used by reconciliation
func (r *GormProductRepository) SetCurrentStock(ctx context.Context, productID uuid.UUID, stock decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.Product{}).
		Where("id = ?", productID).
		UpdateColumn("current_stock", stock)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormProductRepository implements ProductRepository
var _ inventory.ProductRepository = (*GormProductRepository)(nil)
