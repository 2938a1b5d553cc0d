package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldstock/backend/internal/domain/inventory"
)

// ItemResponse represents an item in API responses
type ItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	RepairQuantity    decimal.Decimal `json:"repair_quantity"`
	Condition         string          `json:"condition"`
	TotalOnHand       decimal.Decimal `json:"total_on_hand"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// ToItemResponse converts an item to its response form
func ToItemResponse(item *inventory.Item) ItemResponse {
	return ItemResponse{
		ID:                item.ID,
		SKU:               item.SKU,
		Name:              item.Name,
		AvailableQuantity: item.AvailableQuantity,
		RepairQuantity:    item.RepairQuantity,
		Condition:         item.Condition.String(),
		TotalOnHand:       item.TotalOnHand(),
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
		Version:           item.Version,
	}
}

// MovementResponse represents a ledger entry in API responses
type MovementResponse struct {
	ID             uuid.UUID       `json:"id"`
	ItemID         uuid.UUID       `json:"item_id"`
	Kind           string          `json:"kind"`
	Quantity       decimal.Decimal `json:"quantity"`
	BalanceBefore  decimal.Decimal `json:"balance_before"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	AvailableDelta decimal.Decimal `json:"available_delta"`
	ChallanID      *uuid.UUID      `json:"challan_id,omitempty"`
	ProjectID      *uuid.UUID      `json:"project_id,omitempty"`
	SiteID         *uuid.UUID      `json:"site_id,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	MovementDate   time.Time       `json:"movement_date"`
}

// ToMovementResponse converts a stock movement to its response form
func ToMovementResponse(movement *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:             movement.ID,
		ItemID:         movement.ItemID,
		Kind:           movement.Kind.String(),
		Quantity:       movement.Quantity,
		BalanceBefore:  movement.BalanceBefore,
		BalanceAfter:   movement.BalanceAfter,
		AvailableDelta: movement.AvailableDelta(),
		ChallanID:      movement.ChallanID,
		ProjectID:      movement.ProjectID,
		SiteID:         movement.SiteID,
		Reference:      movement.Reference,
		Reason:         movement.Reason,
		MovementDate:   movement.MovementDate,
	}
}

// CreateItemRequest registers a new SKU
type CreateItemRequest struct {
	SKU  string `json:"sku" binding:"required,max=50"`
	Name string `json:"name" binding:"required,max=200"`
}

// StockRequest covers single-item ledger operations
type StockRequest struct {
	ItemID    uuid.UUID       `json:"item_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Reference string          `json:"reference"`
	Reason    string          `json:"reason"`
	SiteID    *uuid.UUID      `json:"site_id"`
	ProjectID *uuid.UUID      `json:"project_id"`
	ChallanID *uuid.UUID      `json:"challan_id"`
}

// ReserveLine is one line of a batch reservation
type ReserveLine struct {
	ItemID   uuid.UUID       `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// ReserveManyRequest reserves several items as one all-or-nothing unit
type ReserveManyRequest struct {
	Lines     []ReserveLine `json:"lines" binding:"required,min=1,dive"`
	Reference string        `json:"reference"`
	SiteID    *uuid.UUID    `json:"site_id"`
	ProjectID *uuid.UUID    `json:"project_id"`
	ChallanID *uuid.UUID    `json:"challan_id"`
}

// AdjustStockRequest corrects an item's available quantity to a counted value
type AdjustStockRequest struct {
	ItemID         uuid.UUID       `json:"item_id" binding:"required"`
	ActualQuantity decimal.Decimal `json:"actual_quantity"`
	Reason         string          `json:"reason" binding:"required,max=255"`
}

// CompleteRepairRequest moves units out of the repair pool
type CompleteRepairRequest struct {
	ItemID   uuid.UUID       `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Restock  bool            `json:"restock"`
	Reason   string          `json:"reason"`
}
