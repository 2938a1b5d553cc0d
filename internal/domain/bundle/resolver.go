package bundle

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldstock/backend/internal/domain/shared"
)

// ComponentDelta is the stock requirement one kit allocation places on a
// single component item.
type ComponentDelta struct {
	ItemID   uuid.UUID
	Quantity decimal.Decimal
}

// Availability is the result of resolving a template against current stock.
// Bottlenecks lists every component that achieves the binding minimum, in
// template order, so callers can report what to restock first.
type Availability struct {
	Kits        decimal.Decimal
	Bottlenecks []uuid.UUID
}

// Resolver computes kit availability and allocation expansions. It is a pure
// calculation over a template and a stock snapshot; it never mutates stock.
type Resolver struct{}

// NewResolver creates a bundle resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

// AvailableKits returns how many complete kits the given stock can assemble:
// the floor of available/quantityPerUnit, minimised over all components. A
// component missing from the stock snapshot counts as zero.
func (r *Resolver) AvailableKits(
	template *BundleTemplate,
	stock map[uuid.UUID]decimal.Decimal,
) (Availability, error) {
	if err := template.Validate(); err != nil {
		return Availability{}, err
	}

	kits := decimal.Zero
	var bottlenecks []uuid.UUID
	for i, component := range template.Components {
		available := stock[component.ComponentItemID]
		supported := available.Div(component.QuantityPerUnit).Floor()

		if i == 0 || supported.LessThan(kits) {
			kits = supported
			bottlenecks = bottlenecks[:0]
		}
		if supported.Equal(kits) {
			bottlenecks = append(bottlenecks, component.ComponentItemID)
		}
	}

	return Availability{Kits: kits, Bottlenecks: bottlenecks}, nil
}

// ExpandKitAllocation turns a kit quantity into per-component stock deltas,
// in template order. The result is what a batch reservation consumes.
func (r *Resolver) ExpandKitAllocation(
	template *BundleTemplate,
	kitQuantity decimal.Decimal,
) ([]ComponentDelta, error) {
	if err := template.Validate(); err != nil {
		return nil, err
	}
	if kitQuantity.LessThanOrEqual(decimal.Zero) || !kitQuantity.IsInteger() {
		return nil, shared.NewDomainError(shared.CodeValidationError,
			"Kit quantity must be a positive whole number")
	}

	deltas := make([]ComponentDelta, len(template.Components))
	for i, component := range template.Components {
		deltas[i] = ComponentDelta{
			ItemID:   component.ComponentItemID,
			Quantity: kitQuantity.Mul(component.QuantityPerUnit),
		}
	}
	return deltas, nil
}

// CheckAllocatable verifies the requested kit quantity does not exceed what
// the stock snapshot supports, naming the bottleneck component(s) on failure.
func (r *Resolver) CheckAllocatable(
	template *BundleTemplate,
	stock map[uuid.UUID]decimal.Decimal,
	kitQuantity decimal.Decimal,
) error {
	availability, err := r.AvailableKits(template, stock)
	if err != nil {
		return err
	}
	if kitQuantity.GreaterThan(availability.Kits) {
		return shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("Only %s kit(s) can be assembled, requested %s; bottleneck component(s): %s",
				availability.Kits.String(), kitQuantity.String(), formatIDs(availability.Bottlenecks)))
	}
	return nil
}

func formatIDs(ids []uuid.UUID) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += id.String()
	}
	return out
}
