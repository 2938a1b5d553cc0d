package dispatch

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldstock/backend/internal/domain/shared"
)

// ReturnRecord is the permanent trace of one applied return entry. Records
// are append-only; a wrong return is corrected by a compensating movement,
// never by editing the record.
type ReturnRecord struct {
	shared.BaseEntity
	ChallanID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_return_challan"`
	ChallanItemID uuid.UUID       `gorm:"type:uuid;not null;index:idx_return_line"`
	ItemID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_return_item"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,0);not null"`
	Outcome       ReturnOutcome   `gorm:"type:varchar(20);not null"`
	Notes         string          `gorm:"type:varchar(500)"`
	TargetSiteID  *uuid.UUID      `gorm:"type:uuid"`
	RecordedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReturnRecord) TableName() string {
	return "return_records"
}

// NewReturnRecord creates a return record from an applied entry
func NewReturnRecord(
	challanID, challanItemID, itemID uuid.UUID,
	entry ReturnEntry,
) *ReturnRecord {
	return &ReturnRecord{
		BaseEntity:    shared.NewBaseEntity(),
		ChallanID:     challanID,
		ChallanItemID: challanItemID,
		ItemID:        itemID,
		Quantity:      entry.Quantity,
		Outcome:       entry.Outcome,
		Notes:         entry.Notes,
		TargetSiteID:  entry.TargetSiteID,
		RecordedAt:    time.Now(),
	}
}
