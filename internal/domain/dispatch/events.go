package dispatch

import (
	"github.com/fieldstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeChallan = "Challan"

// Event type constants
const (
	EventTypeChallanCreated   = "ChallanCreated"
	EventTypeChallanSent      = "ChallanSent"
	EventTypeChallanReturned  = "ChallanReturned"
	EventTypeChallanCancelled = "ChallanCancelled"
	EventTypeReturnRecorded   = "ReturnRecorded"
)

// ChallanCreatedEvent is raised when a challan draft is created
type ChallanCreatedEvent struct {
	shared.BaseDomainEvent
	ChallanID     uuid.UUID `json:"challan_id"`
	ChallanNumber string    `json:"challan_number"`
	ProjectID     uuid.UUID `json:"project_id"`
	SiteID        uuid.UUID `json:"site_id"`
}

// NewChallanCreatedEvent creates a new ChallanCreatedEvent
func NewChallanCreatedEvent(challan *Challan) *ChallanCreatedEvent {
	return &ChallanCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChallanCreated, AggregateTypeChallan, challan.ID),
		ChallanID:       challan.ID,
		ChallanNumber:   challan.ChallanNumber,
		ProjectID:       challan.ProjectID,
		SiteID:          challan.SiteID,
	}
}

// ChallanSentEvent is raised when a challan is dispatched
type ChallanSentEvent struct {
	shared.BaseDomainEvent
	ChallanID     uuid.UUID `json:"challan_id"`
	ChallanNumber string    `json:"challan_number"`
	SiteID        uuid.UUID `json:"site_id"`
	LineCount     int       `json:"line_count"`
}

// NewChallanSentEvent creates a new ChallanSentEvent
func NewChallanSentEvent(challan *Challan) *ChallanSentEvent {
	return &ChallanSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChallanSent, AggregateTypeChallan, challan.ID),
		ChallanID:       challan.ID,
		ChallanNumber:   challan.ChallanNumber,
		SiteID:          challan.SiteID,
		LineCount:       len(challan.Items),
	}
}

// ChallanReturnedEvent is raised when every line is fully accounted for
type ChallanReturnedEvent struct {
	shared.BaseDomainEvent
	ChallanID     uuid.UUID `json:"challan_id"`
	ChallanNumber string    `json:"challan_number"`
}

// NewChallanReturnedEvent creates a new ChallanReturnedEvent
func NewChallanReturnedEvent(challan *Challan) *ChallanReturnedEvent {
	return &ChallanReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChallanReturned, AggregateTypeChallan, challan.ID),
		ChallanID:       challan.ID,
		ChallanNumber:   challan.ChallanNumber,
	}
}

// ChallanCancelledEvent is raised when a challan is aborted
type ChallanCancelledEvent struct {
	shared.BaseDomainEvent
	ChallanID     uuid.UUID       `json:"challan_id"`
	ChallanNumber string          `json:"challan_number"`
	Reason        string          `json:"reason"`
	Outstanding   decimal.Decimal `json:"outstanding_quantity"`
}

// NewChallanCancelledEvent creates a new ChallanCancelledEvent
func NewChallanCancelledEvent(challan *Challan, reason string) *ChallanCancelledEvent {
	return &ChallanCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChallanCancelled, AggregateTypeChallan, challan.ID),
		ChallanID:       challan.ID,
		ChallanNumber:   challan.ChallanNumber,
		Reason:          reason,
		Outstanding:     challan.OutstandingQuantity(),
	}
}

// ReturnRecordedEvent is raised for every applied return entry
type ReturnRecordedEvent struct {
	shared.BaseDomainEvent
	ChallanID uuid.UUID       `json:"challan_id"`
	ItemID    uuid.UUID       `json:"item_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Outcome   ReturnOutcome   `json:"outcome"`
}

// NewReturnRecordedEvent creates a new ReturnRecordedEvent
func NewReturnRecordedEvent(record *ReturnRecord) *ReturnRecordedEvent {
	return &ReturnRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnRecorded, AggregateTypeChallan, record.ChallanID),
		ChallanID:       record.ChallanID,
		ItemID:          record.ItemID,
		Quantity:        record.Quantity,
		Outcome:         record.Outcome,
	}
}
