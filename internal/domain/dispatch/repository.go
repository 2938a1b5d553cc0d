package dispatch

import (
	"context"

	"github.com/google/uuid"

	"github.com/fieldstock/backend/internal/domain/shared"
)

// ChallanRepository defines the persistence interface for challans.
// FindByID loads the challan with its item lines.
type ChallanRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Challan, error)
	FindByNumber(ctx context.Context, challanNumber string) (*Challan, error)
	FindByStatus(ctx context.Context, status ChallanStatus, filter shared.Filter) (*shared.Paginated[*Challan], error)
	FindBySite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Challan], error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Challan], error)
	Save(ctx context.Context, challan *Challan) error
	SaveWithLock(ctx context.Context, challan *Challan) error
	// NextChallanNumber issues the next sequential document number,
	// e.g. CH-2026-00042.
	NextChallanNumber(ctx context.Context) (string, error)
	Count(ctx context.Context) (int64, error)
}

// ReturnRecordRepository defines the persistence interface for the
// append-only return trace
type ReturnRecordRepository interface {
	FindByChallan(ctx context.Context, challanID uuid.UUID) ([]*ReturnRecord, error)
	FindByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) (*shared.Paginated[*ReturnRecord], error)
	Create(ctx context.Context, record *ReturnRecord) error
	CreateBatch(ctx context.Context, records []*ReturnRecord) error
}
