package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/lotledger/backend/internal/domain/inventory"
)

// Sequence is a named monotonically increasing counter shared across
// processes via an atomic upsert
type Sequence struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null"`
}

// TableName gives the GORM table name
func (Sequence) TableName() string {
	return "sequences"
}

// GormSequenceRepository implements SequenceRepository using GORM
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// Next increments and returns the named counter in one round trip. The
// upsert keeps it race free without an extra table lock.
func (r *GormSequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO sequences (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		RETURNING value`, name).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Ensure GormSequenceRepository implements SequenceRepository
var _ inventory.SequenceRepository = (*GormSequenceRepository)(nil)
