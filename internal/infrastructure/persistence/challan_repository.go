package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldstock/backend/internal/domain/dispatch"
	"github.com/fieldstock/backend/internal/domain/shared"
)

// challanCounter is the per-year sequence row backing challan numbers.
// The UPSERT increment keeps numbers unique under concurrent dispatch.
type challanCounter struct {
	Year       int `gorm:"primaryKey"`
	LastNumber int `gorm:"not null"`
}

func (challanCounter) TableName() string {
	return "challan_counters"
}

// GormChallanRepository implements ChallanRepository using GORM
type GormChallanRepository struct {
	db           *gorm.DB
	numberPrefix string
}

// NewGormChallanRepository creates a new GormChallanRepository
func NewGormChallanRepository(db *gorm.DB, numberPrefix string) *GormChallanRepository {
	if numberPrefix == "" {
		numberPrefix = "CH"
	}
	return &GormChallanRepository{db: db, numberPrefix: numberPrefix}
}

// FindByID loads a challan with its item lines
func (r *GormChallanRepository) FindByID(ctx context.Context, id uuid.UUID) (*dispatch.Challan, error) {
	var challan dispatch.Challan
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&challan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	challan.MarkPersisted()
	return &challan, nil
}

// FindByNumber loads a challan by its document number
func (r *GormChallanRepository) FindByNumber(ctx context.Context, challanNumber string) (*dispatch.Challan, error) {
	var challan dispatch.Challan
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&challan, "challan_number = ?", challanNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	challan.MarkPersisted()
	return &challan, nil
}

// FindByStatus finds challans in a given status
func (r *GormChallanRepository) FindByStatus(ctx context.Context, status dispatch.ChallanStatus, filter shared.Filter) (*shared.Paginated[*dispatch.Challan], error) {
	query := r.db.WithContext(ctx).Model(&dispatch.Challan{}).
		Preload("Items").
		Where("status = ?", status)

	var challans []*dispatch.Challan
	return paginateChallans(query, filter, &challans)
}

// FindBySite finds challans dispatched to a site
func (r *GormChallanRepository) FindBySite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[*dispatch.Challan], error) {
	query := r.db.WithContext(ctx).Model(&dispatch.Challan{}).
		Preload("Items").
		Where("site_id = ?", siteID)

	var challans []*dispatch.Challan
	return paginateChallans(query, filter, &challans)
}

// FindAll finds challans matching the filter
func (r *GormChallanRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*dispatch.Challan], error) {
	query := r.db.WithContext(ctx).Model(&dispatch.Challan{}).Preload("Items")
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "site_id":
			query = query.Where("site_id = ?", value)
		case "project_id":
			query = query.Where("project_id = ?", value)
		}
	}

	var challans []*dispatch.Challan
	return paginateChallans(query, filter, &challans)
}

func paginateChallans(query *gorm.DB, filter shared.Filter, challans *[]*dispatch.Challan) (*shared.Paginated[*dispatch.Challan], error) {
	page, err := paginate(query, filter, challans)
	if err != nil {
		return nil, err
	}
	for _, c := range *challans {
		c.MarkPersisted()
	}
	return page, nil
}

// Save creates or updates a challan together with its lines
func (r *GormChallanRepository) Save(ctx context.Context, challan *dispatch.Challan) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(challan).Error
}

// SaveWithLock saves with optimistic locking. Lines are replaced
// wholesale; the version guard on the header covers them. The guard
// compares against the version loaded at read time, since a return
// submission may bump the version once per settled line.
func (r *GormChallanRepository) SaveWithLock(ctx context.Context, challan *dispatch.Challan) error {
	result := r.db.WithContext(ctx).
		Model(challan).
		Where("id = ? AND version = ?", challan.ID, challan.PersistedVersion()).
		Updates(map[string]interface{}{
			"status":                   challan.Status,
			"remarks":                  challan.Remarks,
			"cancel_reason":            challan.CancelReason,
			"sent_at":                  challan.SentAt,
			"closed_at":                challan.ClosedAt,
			"transport_vehicle_number": challan.Transport.VehicleNumber,
			"transport_driver_name":    challan.Transport.DriverName,
			"transport_driver_phone":   challan.Transport.DriverPhone,
			"transport_dispatch_date":  challan.Transport.DispatchDate,
			"version":                  challan.Version,
			"updated_at":               challan.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeOptimisticLockFailed, "Challan was modified by another transaction")
	}

	for i := range challan.Items {
		line := &challan.Items[i]
		if err := r.db.WithContext(ctx).Save(line).Error; err != nil {
			return err
		}
	}
	challan.MarkPersisted()
	return nil
}

// NextChallanNumber issues the next sequential document number for the
// current year, e.g. CH-2026-00042
func (r *GormChallanRepository) NextChallanNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()

	var next int
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO challan_counters (year, last_number) VALUES (?, 1)
		ON CONFLICT (year) DO UPDATE SET last_number = challan_counters.last_number + 1
		RETURNING last_number`, year).
		Scan(&next).Error
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%d-%05d", r.numberPrefix, year, next), nil
}

// Count counts all challans
func (r *GormChallanRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&dispatch.Challan{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormChallanRepository implements ChallanRepository
var _ dispatch.ChallanRepository = (*GormChallanRepository)(nil)
