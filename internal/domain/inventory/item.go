package inventory

import (
	"fmt"
	"time"

	"github.com/fieldstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ItemCondition describes the overall condition of a stock item
type ItemCondition string

const (
	ConditionGood         ItemCondition = "GOOD"
	ConditionRepairNeeded ItemCondition = "REPAIR_NEEDED"
	ConditionDamaged      ItemCondition = "DAMAGED"
	ConditionScrap        ItemCondition = "SCRAP"
)

// IsValid checks if the condition is a valid ItemCondition
func (c ItemCondition) IsValid() bool {
	switch c {
	case ConditionGood, ConditionRepairNeeded, ConditionDamaged, ConditionScrap:
		return true
	}
	return false
}

// String returns the string representation of ItemCondition
func (c ItemCondition) String() string {
	return string(c)
}

// Item represents a distinct inventory SKU and is the aggregate root for all
// stock ledger operations. AvailableQuantity counts warehouse-resident,
// unreserved units; RepairQuantity counts units back from the field that are
// owned but not rentable until repaired. Units away from the warehouse are
// tracked by site deployments, not on the item itself.
//
// Quantities are whole units; every mutation validates integrality.
type Item struct {
	shared.BaseAggregateRoot
	SKU               string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name              string          `gorm:"type:varchar(200);not null"`
	AvailableQuantity decimal.Decimal `gorm:"type:decimal(18,0);not null;default:0"`
	RepairQuantity    decimal.Decimal `gorm:"type:decimal(18,0);not null;default:0"`
	Condition         ItemCondition   `gorm:"type:varchar(20);not null;default:'GOOD'"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "items"
}

// NewItem creates a new inventory item with zero stock
func NewItem(sku, name string) (*Item, error) {
	if sku == "" {
		return nil, shared.NewDomainError(shared.CodeValidationError, "SKU cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Item name cannot be empty")
	}

	return &Item{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		AvailableQuantity: decimal.Zero,
		RepairQuantity:    decimal.Zero,
		Condition:         ConditionGood,
	}, nil
}

// validateUnitQuantity rejects zero, negative and fractional quantities
func validateUnitQuantity(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeValidationError, "Quantity must be positive")
	}
	if !quantity.IsInteger() {
		return shared.NewDomainError(shared.CodeValidationError, "Quantity must be a whole number of units")
	}
	return nil
}

// TotalOnHand returns the quantity physically in the warehouse (available + repair pool)
func (i *Item) TotalOnHand() decimal.Decimal {
	return i.AvailableQuantity.Add(i.RepairQuantity)
}

// CanFulfill returns true if the available quantity can cover the requested quantity
func (i *Item) CanFulfill(quantity decimal.Decimal) bool {
	return i.AvailableQuantity.GreaterThanOrEqual(quantity)
}

// Reserve removes quantity from the available pool for an outward dispatch.
// Fails with INSUFFICIENT_STOCK if the available quantity cannot cover it;
// on failure the item is left unchanged.
func (i *Item) Reserve(quantity decimal.Decimal) error {
	if err := validateUnitQuantity(quantity); err != nil {
		return err
	}
	if !i.CanFulfill(quantity) {
		return shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("Insufficient stock for %s: available=%s, requested=%s",
				i.SKU, i.AvailableQuantity.String(), quantity.String()))
	}

	i.AvailableQuantity = i.AvailableQuantity.Sub(quantity)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewStockReservedEvent(i, quantity))
	return nil
}

// Release returns quantity to the available pool (a dispatched unit coming back)
func (i *Item) Release(quantity decimal.Decimal) error {
	if err := validateUnitQuantity(quantity); err != nil {
		return err
	}

	i.AvailableQuantity = i.AvailableQuantity.Add(quantity)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewStockReleasedEvent(i, quantity))
	return nil
}

// WriteOff permanently removes quantity from the available pool. This shrinks
// the item's owned quantity; the unit is gone, not reserved.
func (i *Item) WriteOff(quantity decimal.Decimal) error {
	if err := validateUnitQuantity(quantity); err != nil {
		return err
	}
	if !i.CanFulfill(quantity) {
		return shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("Cannot write off %s units of %s: only %s available",
				quantity.String(), i.SKU, i.AvailableQuantity.String()))
	}

	i.AvailableQuantity = i.AvailableQuantity.Sub(quantity)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewStockWrittenOffEvent(i, quantity))
	return nil
}

// ReceiveStock adds purchased quantity to the available pool
func (i *Item) ReceiveStock(quantity decimal.Decimal) error {
	if err := validateUnitQuantity(quantity); err != nil {
		return err
	}

	i.AvailableQuantity = i.AvailableQuantity.Add(quantity)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewStockReceivedEvent(i, quantity))
	return nil
}

// MoveToRepair places returned units into the repair pool. The units are
// owned but not rentable; AvailableQuantity is unaffected.
func (i *Item) MoveToRepair(quantity decimal.Decimal) error {
	if err := validateUnitQuantity(quantity); err != nil {
		return err
	}

	i.RepairQuantity = i.RepairQuantity.Add(quantity)
	i.Condition = ConditionRepairNeeded
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewStockMovedToRepairEvent(i, quantity))
	return nil
}

// CompleteRepair takes units out of the repair pool. Restocked units return
// to the available pool; the rest are written off as unrepairable.
func (i *Item) CompleteRepair(quantity decimal.Decimal, restock bool) error {
	if err := validateUnitQuantity(quantity); err != nil {
		return err
	}
	if i.RepairQuantity.LessThan(quantity) {
		return shared.NewDomainError(shared.CodeValidationError,
			fmt.Sprintf("Repair pool for %s holds %s units, cannot complete %s",
				i.SKU, i.RepairQuantity.String(), quantity.String()))
	}

	i.RepairQuantity = i.RepairQuantity.Sub(quantity)
	if restock {
		i.AvailableQuantity = i.AvailableQuantity.Add(quantity)
	}
	if i.RepairQuantity.IsZero() && i.Condition == ConditionRepairNeeded {
		i.Condition = ConditionGood
	}
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewRepairCompletedEvent(i, quantity, restock))
	return nil
}

// AdjustTo sets the available quantity to the counted value and returns the
// signed difference. Used for stock-count corrections.
func (i *Item) AdjustTo(actualQuantity decimal.Decimal, reason string) (decimal.Decimal, error) {
	if actualQuantity.IsNegative() {
		return decimal.Zero, shared.NewDomainError(shared.CodeValidationError, "Actual quantity cannot be negative")
	}
	if !actualQuantity.IsInteger() {
		return decimal.Zero, shared.NewDomainError(shared.CodeValidationError, "Actual quantity must be a whole number of units")
	}
	if reason == "" {
		return decimal.Zero, shared.NewDomainError(shared.CodeValidationError, "Adjustment reason is required")
	}

	difference := actualQuantity.Sub(i.AvailableQuantity)
	i.AvailableQuantity = actualQuantity
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewStockAdjustedEvent(i, difference, reason))
	return difference, nil
}

// SetCondition updates the item condition
func (i *Item) SetCondition(condition ItemCondition) error {
	if !condition.IsValid() {
		return shared.NewDomainError(shared.CodeValidationError, "Invalid item condition")
	}
	i.Condition = condition
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}
