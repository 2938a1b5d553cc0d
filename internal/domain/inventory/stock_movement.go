package inventory

import (
	"time"

	"github.com/fieldstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementKind classifies a stock movement
type MovementKind string

const (
	// MovementPurchase records stock entering the warehouse from a supplier
	MovementPurchase MovementKind = "PURCHASE"
	// MovementOutward records stock dispatched to a site
	MovementOutward MovementKind = "OUTWARD"
	// MovementInward records dispatched stock returning to the warehouse
	MovementInward MovementKind = "INWARD"
	// MovementTransfer records deployed stock moving between sites without
	// touching the warehouse pool
	MovementTransfer MovementKind = "TRANSFER"
	// MovementScrap records a permanent write-off of owned stock
	MovementScrap MovementKind = "SCRAP"
	// MovementAdjustment records a stock-count correction
	MovementAdjustment MovementKind = "ADJUSTMENT"
	// MovementRepair records a dispatched unit entering the repair pool
	// instead of the available pool
	MovementRepair MovementKind = "REPAIR"
)

// String returns the string representation of MovementKind
func (k MovementKind) String() string {
	return string(k)
}

// IsValid returns true if the movement kind is valid
func (k MovementKind) IsValid() bool {
	switch k {
	case MovementPurchase, MovementOutward, MovementInward,
		MovementTransfer, MovementScrap, MovementAdjustment, MovementRepair:
		return true
	}
	return false
}

// OwnedDelta returns the sign of the movement's effect on the item's total
// owned quantity: purchases add units, write-offs remove them, everything
// else only moves units between pools.
func (k MovementKind) OwnedDelta() int {
	switch k {
	case MovementPurchase:
		return 1
	case MovementScrap:
		return -1
	}
	return 0
}

// StockMovement is an immutable, append-only ledger entry. Once created it is
// never modified; corrections are recorded as new movements. BalanceBefore
// and BalanceAfter capture the item's available quantity around the movement,
// so the available pool is always reconstructible from the log.
type StockMovement struct {
	shared.BaseEntity
	ItemID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_item"`
	Kind          MovementKind    `gorm:"type:varchar(20);not null;index:idx_movement_kind"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,0);not null"` // always positive
	BalanceBefore decimal.Decimal `gorm:"type:decimal(18,0);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,0);not null"`
	ChallanID     *uuid.UUID      `gorm:"type:uuid;index:idx_movement_challan"`
	ProjectID     *uuid.UUID      `gorm:"type:uuid;index:idx_movement_project"`
	SiteID        *uuid.UUID      `gorm:"type:uuid"`
	Reference     string          `gorm:"type:varchar(100)"`
	Reason        string          `gorm:"type:varchar(255)"`
	MovementDate  time.Time       `gorm:"not null;index:idx_movement_date"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a new stock movement entry
func NewStockMovement(
	itemID uuid.UUID,
	kind MovementKind,
	quantity decimal.Decimal,
	balanceBefore decimal.Decimal,
	balanceAfter decimal.Decimal,
) (*StockMovement, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Item ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Invalid movement kind")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Movement quantity must be positive")
	}

	return &StockMovement{
		BaseEntity:    shared.NewBaseEntity(),
		ItemID:        itemID,
		Kind:          kind,
		Quantity:      quantity,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		MovementDate:  time.Now(),
	}, nil
}

// WithChallan links the movement to a dispatch challan
func (m *StockMovement) WithChallan(challanID uuid.UUID) *StockMovement {
	m.ChallanID = &challanID
	return m
}

// WithProject links the movement to a project
func (m *StockMovement) WithProject(projectID uuid.UUID) *StockMovement {
	m.ProjectID = &projectID
	return m
}

// WithSite links the movement to a site
func (m *StockMovement) WithSite(siteID uuid.UUID) *StockMovement {
	m.SiteID = &siteID
	return m
}

// WithReference sets a reference number for the movement
func (m *StockMovement) WithReference(reference string) *StockMovement {
	m.Reference = reference
	return m
}

// WithReason sets the reason for the movement
func (m *StockMovement) WithReason(reason string) *StockMovement {
	m.Reason = reason
	return m
}

// AvailableDelta returns the signed change this movement made to the item's
// available quantity
func (m *StockMovement) AvailableDelta() decimal.Decimal {
	return m.BalanceAfter.Sub(m.BalanceBefore)
}

// OwnedDelta returns the signed change this movement made to the item's
// total owned quantity
func (m *StockMovement) OwnedDelta() decimal.Decimal {
	switch m.Kind.OwnedDelta() {
	case 1:
		return m.Quantity
	case -1:
		return m.Quantity.Neg()
	}
	return decimal.Zero
}
