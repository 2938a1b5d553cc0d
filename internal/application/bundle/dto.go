package bundle

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinventory "github.com/fieldstock/backend/internal/application/inventory"
	"github.com/fieldstock/backend/internal/domain/bundle"
)

// ComponentRequest is one component line when defining a template
type ComponentRequest struct {
	ComponentItemID uuid.UUID       `json:"component_item_id" binding:"required"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit" binding:"required"`
}

// CreateTemplateRequest defines a new kit
type CreateTemplateRequest struct {
	Name       string             `json:"name" binding:"required,max=200"`
	BaseItemID uuid.UUID          `json:"base_item_id" binding:"required"`
	Components []ComponentRequest `json:"components" binding:"required,min=1,dive"`
}

// ComponentResponse represents a template component in API responses
type ComponentResponse struct {
	ComponentItemID uuid.UUID       `json:"component_item_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	Position        int             `json:"position"`
}

// TemplateResponse represents a bundle template in API responses
type TemplateResponse struct {
	ID         uuid.UUID           `json:"id"`
	Name       string              `json:"name"`
	BaseItemID uuid.UUID           `json:"base_item_id"`
	Active     bool                `json:"active"`
	Components []ComponentResponse `json:"components"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// ToTemplateResponse converts a template to its response form
func ToTemplateResponse(template *bundle.BundleTemplate) TemplateResponse {
	components := make([]ComponentResponse, len(template.Components))
	for i, c := range template.Components {
		components[i] = ComponentResponse{
			ComponentItemID: c.ComponentItemID,
			QuantityPerUnit: c.QuantityPerUnit,
			Position:        c.Position,
		}
	}
	return TemplateResponse{
		ID:         template.ID,
		Name:       template.Name,
		BaseItemID: template.BaseItemID,
		Active:     template.Active,
		Components: components,
		CreatedAt:  template.CreatedAt,
		UpdatedAt:  template.UpdatedAt,
	}
}

// KitAvailabilityResponse reports how many kits current stock supports and
// which components bind the count
type KitAvailabilityResponse struct {
	TemplateID    uuid.UUID       `json:"template_id"`
	BaseItemID    uuid.UUID       `json:"base_item_id"`
	AvailableKits decimal.Decimal `json:"available_kits"`
	Bottlenecks   []uuid.UUID     `json:"bottlenecks"`
}

// AllocateKitRequest reserves the components of a number of kits
type AllocateKitRequest struct {
	TemplateID  uuid.UUID       `json:"template_id" binding:"required"`
	KitQuantity decimal.Decimal `json:"kit_quantity" binding:"required"`
	Reference   string          `json:"reference"`
	SiteID      *uuid.UUID      `json:"site_id"`
	ProjectID   *uuid.UUID      `json:"project_id"`
	ChallanID   *uuid.UUID      `json:"challan_id"`
}

// AllocationResponse reports the applied component reservations
type AllocationResponse struct {
	TemplateID  uuid.UUID                   `json:"template_id"`
	KitQuantity decimal.Decimal             `json:"kit_quantity"`
	Items       []appinventory.ItemResponse `json:"items"`
}
