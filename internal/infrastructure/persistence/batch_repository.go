package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// Save creates or updates a batch. A batch number collision surfaces as
// shared.ErrAlreadyExists so callers can regenerate and retry.
func (r *GormBatchRepository) Save(ctx context.Context, batch *inventory.Batch) error {
	if err := r.db.WithContext(ctx).Save(batch).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock updates a batch only when the stored version matches the
// in-memory one, bumping the version in the same statement. Zero rows
// affected means another writer got there first.
func (r *GormBatchRepository) SaveWithLock(ctx context.Context, batch *inventory.Batch) error {
	result := r.db.WithContext(ctx).
		Model(batch).
		Where("id = ? AND version = ?", batch.ID, batch.Version).
		Updates(map[string]interface{}{
			"current_quantity":  batch.CurrentQuantity,
			"reserved_quantity": batch.ReservedQuantity,
			"expiry_date":       batch.ExpiryDate,
			"status":            batch.Status,
			"notes":             batch.Notes,
			"version":           batch.Version + 1,
			"updated_at":        batch.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	// Updates on a struct model writes the map values back into the struct,
	// so batch.Version already carries the bumped value here.
	return nil
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	var batch inventory.Batch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByBatchNumber finds a batch by its batch number
func (r *GormBatchRepository) FindByBatchNumber(ctx context.Context, batchNumber string) (*inventory.Batch, error) {
	var batch inventory.Batch
	if err := r.db.WithContext(ctx).First(&batch, "batch_number = ?", batchNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByProduct pages through a product's batches
func (r *GormBatchRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[*inventory.Batch], error) {
	query := r.db.WithContext(ctx).Model(&inventory.Batch{}).Where("product_id = ?", productID)
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, BatchSortFields, "purchase_date")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var batches []*inventory.Batch
	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return shared.NewPaginated(batches, total, filter.Page, filter.PageSize), nil
}

// FindAllocatable returns the lots the FIFO planner may draw on: active,
// holding unreserved stock, and not yet expired, oldest purchase first with
// creation order breaking ties
func (r *GormBatchRepository) FindAllocatable(ctx context.Context, productID uuid.UUID, now time.Time) ([]*inventory.Batch, error) {
	var batches []*inventory.Batch
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ? AND current_quantity > reserved_quantity", productID, inventory.BatchStatusActive).
		Where("expiry_date IS NULL OR expiry_date > ?", now).
		Order("purchase_date ASC, created_at ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindOnHand returns a product's active lots still holding quantity.
// Unlike FindAllocatable this counts reserved stock and lots whose expiry
// passed but have not been swept yet; the goods are physically on hand
// either way.
func (r *GormBatchRepository) FindOnHand(ctx context.Context, productID uuid.UUID) ([]*inventory.Batch, error) {
	var batches []*inventory.Batch
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ? AND current_quantity > 0", productID, inventory.BatchStatusActive).
		Order("purchase_date ASC, created_at ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindExpiringWithin finds batches whose expiry date falls inside the
// window, already expired ones included
func (r *GormBatchRepository) FindExpiringWithin(ctx context.Context, now time.Time, window time.Duration) ([]*inventory.Batch, error) {
	var batches []*inventory.Batch
	if err := r.db.WithContext(ctx).
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", now.Add(window)).
		Order("expiry_date ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// CountByProductAndDay counts a product's receipts on a calendar day,
// used to assign the next daily batch number
func (r *GormBatchRepository) CountByProductAndDay(ctx context.Context, productID uuid.UUID, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.Batch{}).
		Where("product_id = ? AND purchase_date >= ? AND purchase_date < ?", productID, start, end).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumCurrentByProduct totals the remaining quantity across all of a
// product's batches regardless of status
func (r *GormBatchRepository) SumCurrentByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&inventory.Batch{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(current_quantity), 0)").
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// Ensure GormBatchRepository implements BatchRepository
var _ inventory.BatchRepository = (*GormBatchRepository)(nil)
