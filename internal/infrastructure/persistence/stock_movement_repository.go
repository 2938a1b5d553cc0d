package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fieldstock/backend/internal/domain/inventory"
	"github.com/fieldstock/backend/internal/domain/shared"
)

// GormStockMovementRepository implements the append-only movement ledger
// using GORM. Movements are only ever inserted; corrections are new rows.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// FindByID finds a movement by its ID
func (r *GormStockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	var movement inventory.StockMovement
	if err := r.db.WithContext(ctx).First(&movement, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &movement, nil
}

// FindByItem finds movements for an item
func (r *GormStockMovementRepository) FindByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	query := r.db.WithContext(ctx).Model(&inventory.StockMovement{}).Where("item_id = ?", itemID)
	if err := applyFilter(query, filter).Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByChallan finds movements linked to a challan
func (r *GormStockMovementRepository) FindByChallan(ctx context.Context, challanID uuid.UUID) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	if err := r.db.WithContext(ctx).
		Where("challan_id = ?", challanID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByDateRange finds movements within a date range
func (r *GormStockMovementRepository) FindByDateRange(ctx context.Context, start, end time.Time, filter shared.Filter) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	query := r.db.WithContext(ctx).Model(&inventory.StockMovement{}).
		Where("created_at >= ? AND created_at < ?", start, end)
	if err := applyFilter(query, filter).Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindAll finds all movements matching the filter
func (r *GormStockMovementRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	query := r.db.WithContext(ctx).Model(&inventory.StockMovement{})
	for key, value := range filter.Filters {
		switch key {
		case "kind":
			query = query.Where("kind = ?", value)
		case "item_id":
			query = query.Where("item_id = ?", value)
		case "project_id":
			query = query.Where("project_id = ?", value)
		case "site_id":
			query = query.Where("site_id = ?", value)
		}
	}
	if err := applyFilter(query, filter).Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// Create appends a new movement
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// CreateBatch appends multiple movements
func (r *GormStockMovementRepository) CreateBatch(ctx context.Context, movements []*inventory.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(movements).Error
}

// CountByItem counts movements for an item
func (r *GormStockMovementRepository) CountByItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Where("item_id = ?", itemID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumOwnedDeltaByItem sums the owned-quantity deltas for an item
func (r *GormStockMovementRepository) SumOwnedDeltaByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Select(`COALESCE(SUM(CASE kind
			WHEN 'PURCHASE' THEN quantity
			WHEN 'SCRAP' THEN -quantity
			ELSE 0 END), 0) as total`).
		Where("item_id = ?", itemID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormStockMovementRepository implements StockMovementRepository
var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
