package inventory

import (
	"github.com/fieldstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeItem = "Item"

// Event type constants
const (
	EventTypeStockReserved      = "StockReserved"
	EventTypeStockReleased      = "StockReleased"
	EventTypeStockWrittenOff    = "StockWrittenOff"
	EventTypeStockReceived      = "StockReceived"
	EventTypeStockMovedToRepair = "StockMovedToRepair"
	EventTypeRepairCompleted    = "RepairCompleted"
	EventTypeStockAdjusted      = "StockAdjusted"
)

// StockReservedEvent is raised when available stock is reserved for dispatch
type StockReservedEvent struct {
	shared.BaseDomainEvent
	ItemID            uuid.UUID       `json:"item_id"`
	SKU               string          `json:"sku"`
	Quantity          decimal.Decimal `json:"quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
}

// NewStockReservedEvent creates a new StockReservedEvent
func NewStockReservedEvent(item *Item, quantity decimal.Decimal) *StockReservedEvent {
	return &StockReservedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeStockReserved, AggregateTypeItem, item.ID),
		ItemID:            item.ID,
		SKU:               item.SKU,
		Quantity:          quantity,
		AvailableQuantity: item.AvailableQuantity,
	}
}

// StockReleasedEvent is raised when reserved stock returns to the available pool
type StockReleasedEvent struct {
	shared.BaseDomainEvent
	ItemID            uuid.UUID       `json:"item_id"`
	SKU               string          `json:"sku"`
	Quantity          decimal.Decimal `json:"quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
}

// NewStockReleasedEvent creates a new StockReleasedEvent
func NewStockReleasedEvent(item *Item, quantity decimal.Decimal) *StockReleasedEvent {
	return &StockReleasedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeStockReleased, AggregateTypeItem, item.ID),
		ItemID:            item.ID,
		SKU:               item.SKU,
		Quantity:          quantity,
		AvailableQuantity: item.AvailableQuantity,
	}
}

// StockWrittenOffEvent is raised when stock is permanently written off
type StockWrittenOffEvent struct {
	shared.BaseDomainEvent
	ItemID   uuid.UUID       `json:"item_id"`
	SKU      string          `json:"sku"`
	Quantity decimal.Decimal `json:"quantity"`
}

// NewStockWrittenOffEvent creates a new StockWrittenOffEvent
func NewStockWrittenOffEvent(item *Item, quantity decimal.Decimal) *StockWrittenOffEvent {
	return &StockWrittenOffEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockWrittenOff, AggregateTypeItem, item.ID),
		ItemID:          item.ID,
		SKU:             item.SKU,
		Quantity:        quantity,
	}
}

// StockReceivedEvent is raised when purchased stock enters the warehouse
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	ItemID            uuid.UUID       `json:"item_id"`
	SKU               string          `json:"sku"`
	Quantity          decimal.Decimal `json:"quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
}

// NewStockReceivedEvent creates a new StockReceivedEvent
func NewStockReceivedEvent(item *Item, quantity decimal.Decimal) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeStockReceived, AggregateTypeItem, item.ID),
		ItemID:            item.ID,
		SKU:               item.SKU,
		Quantity:          quantity,
		AvailableQuantity: item.AvailableQuantity,
	}
}

// StockMovedToRepairEvent is raised when returned units enter the repair pool
type StockMovedToRepairEvent struct {
	shared.BaseDomainEvent
	ItemID         uuid.UUID       `json:"item_id"`
	SKU            string          `json:"sku"`
	Quantity       decimal.Decimal `json:"quantity"`
	RepairQuantity decimal.Decimal `json:"repair_quantity"`
}

// NewStockMovedToRepairEvent creates a new StockMovedToRepairEvent
func NewStockMovedToRepairEvent(item *Item, quantity decimal.Decimal) *StockMovedToRepairEvent {
	return &StockMovedToRepairEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMovedToRepair, AggregateTypeItem, item.ID),
		ItemID:          item.ID,
		SKU:             item.SKU,
		Quantity:        quantity,
		RepairQuantity:  item.RepairQuantity,
	}
}

// RepairCompletedEvent is raised when units leave the repair pool
type RepairCompletedEvent struct {
	shared.BaseDomainEvent
	ItemID    uuid.UUID       `json:"item_id"`
	SKU       string          `json:"sku"`
	Quantity  decimal.Decimal `json:"quantity"`
	Restocked bool            `json:"restocked"`
}

// NewRepairCompletedEvent creates a new RepairCompletedEvent
func NewRepairCompletedEvent(item *Item, quantity decimal.Decimal, restocked bool) *RepairCompletedEvent {
	return &RepairCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRepairCompleted, AggregateTypeItem, item.ID),
		ItemID:          item.ID,
		SKU:             item.SKU,
		Quantity:        quantity,
		Restocked:       restocked,
	}
}

// StockAdjustedEvent is raised when a stock-count correction is applied
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	ItemID     uuid.UUID       `json:"item_id"`
	SKU        string          `json:"sku"`
	Difference decimal.Decimal `json:"difference"`
	Reason     string          `json:"reason"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(item *Item, difference decimal.Decimal, reason string) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeItem, item.ID),
		ItemID:          item.ID,
		SKU:             item.SKU,
		Difference:      difference,
		Reason:          reason,
	}
}
