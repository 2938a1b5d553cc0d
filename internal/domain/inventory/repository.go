package inventory

import (
	"context"
	"time"

	"github.com/fieldstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemRepository defines the interface for item persistence
type ItemRepository interface {
	// FindByID finds an item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)

	// FindBySKU finds an item by its SKU
	FindBySKU(ctx context.Context, sku string) (*Item, error)

	// FindByIDs finds multiple items by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Item, error)

	// FindAll finds all items matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Item, error)

	// Save creates or updates an item
	Save(ctx context.Context, item *Item) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, item *Item) error

	// Delete deletes an item. Items referenced by outstanding movements
	// must not be deleted; the caller is responsible for that check.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts items matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// StockMovementRepository defines the interface for the append-only movement ledger
type StockMovementRepository interface {
	// FindByID finds a movement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)

	// FindByItem finds movements for an item
	FindByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]StockMovement, error)

	// FindByChallan finds movements linked to a challan
	FindByChallan(ctx context.Context, challanID uuid.UUID) ([]StockMovement, error)

	// FindByDateRange finds movements within a date range
	FindByDateRange(ctx context.Context, start, end time.Time, filter shared.Filter) ([]StockMovement, error)

	// FindAll finds all movements matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]StockMovement, error)

	// Create appends a new movement (no update or delete is ever allowed)
	Create(ctx context.Context, movement *StockMovement) error

	// CreateBatch appends multiple movements
	CreateBatch(ctx context.Context, movements []*StockMovement) error

	// CountByItem counts movements for an item
	CountByItem(ctx context.Context, itemID uuid.UUID) (int64, error)

	// SumOwnedDeltaByItem sums the owned-quantity deltas for an item; together
	// with the item's baseline this yields its current total owned quantity
	SumOwnedDeltaByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)
}

// MovementFilter extends shared.Filter with movement-specific filters
type MovementFilter struct {
	shared.Filter
	ItemID    *uuid.UUID
	Kind      *MovementKind
	ChallanID *uuid.UUID
	ProjectID *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}
