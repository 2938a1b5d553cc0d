package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldstock/backend/internal/domain/dispatch"
	"github.com/fieldstock/backend/internal/domain/shared"
)

// GormReturnRecordRepository implements the append-only return trace using
// GORM
type GormReturnRecordRepository struct {
	db *gorm.DB
}

// NewGormReturnRecordRepository creates a new GormReturnRecordRepository
func NewGormReturnRecordRepository(db *gorm.DB) *GormReturnRecordRepository {
	return &GormReturnRecordRepository{db: db}
}

// FindByChallan finds return records for a challan in recording order
func (r *GormReturnRecordRepository) FindByChallan(ctx context.Context, challanID uuid.UUID) ([]*dispatch.ReturnRecord, error) {
	var records []*dispatch.ReturnRecord
	if err := r.db.WithContext(ctx).
		Where("challan_id = ?", challanID).
		Order("recorded_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindByItem finds return records for an item
func (r *GormReturnRecordRepository) FindByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) (*shared.Paginated[*dispatch.ReturnRecord], error) {
	query := r.db.WithContext(ctx).Model(&dispatch.ReturnRecord{}).Where("item_id = ?", itemID)

	var records []*dispatch.ReturnRecord
	return paginate(query, filter, &records)
}

// Create appends a return record
func (r *GormReturnRecordRepository) Create(ctx context.Context, record *dispatch.ReturnRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// CreateBatch appends multiple return records
func (r *GormReturnRecordRepository) CreateBatch(ctx context.Context, records []*dispatch.ReturnRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(records).Error
}

// Ensure GormReturnRecordRepository implements ReturnRecordRepository
var _ dispatch.ReturnRecordRepository = (*GormReturnRecordRepository)(nil)
