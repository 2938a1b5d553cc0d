package bundle

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldstock/backend/internal/domain/shared"
)

// BundleComponent is one line of a bundle template: a component item and how
// many units of it go into a single kit.
type BundleComponent struct {
	shared.BaseEntity
	TemplateID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_component_template"`
	ComponentItemID uuid.UUID       `gorm:"type:uuid;not null"`
	QuantityPerUnit decimal.Decimal `gorm:"type:decimal(18,0);not null"`
	Position        int             `gorm:"not null"` // ordering within the template
}

// TableName returns the table name for GORM
func (BundleComponent) TableName() string {
	return "bundle_components"
}

// BundleTemplate defines a kit: a base item representing "one kit" and the
// ordered list of component items it is assembled from. Templates with kits
// in the field are never edited in place; a changed recipe is a new template
// and the old one is deactivated.
type BundleTemplate struct {
	shared.BaseAggregateRoot
	Name       string            `gorm:"type:varchar(200);not null"`
	BaseItemID uuid.UUID         `gorm:"type:uuid;not null;index:idx_template_base_item"`
	Active     bool              `gorm:"not null;default:true"`
	Components []BundleComponent `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (BundleTemplate) TableName() string {
	return "bundle_templates"
}

// NewBundleTemplate creates a new bundle template with no components
func NewBundleTemplate(name string, baseItemID uuid.UUID) (*BundleTemplate, error) {
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Template name cannot be empty")
	}
	if baseItemID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Base item ID cannot be empty")
	}

	return &BundleTemplate{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		BaseItemID:        baseItemID,
		Active:            true,
	}, nil
}

// AddComponent appends a component line to the template
func (t *BundleTemplate) AddComponent(componentItemID uuid.UUID, quantityPerUnit decimal.Decimal) error {
	if componentItemID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidationError, "Component item ID cannot be empty")
	}
	if componentItemID == t.BaseItemID {
		return shared.NewDomainError(shared.CodeValidationError, "A kit cannot contain its own base item")
	}
	if quantityPerUnit.LessThan(decimal.NewFromInt(1)) || !quantityPerUnit.IsInteger() {
		return shared.NewDomainError(shared.CodeValidationError,
			"Quantity per kit must be a whole number of at least 1")
	}
	for _, c := range t.Components {
		if c.ComponentItemID == componentItemID {
			return shared.NewDomainError(shared.CodeAlreadyExists,
				"Component already present in template")
		}
	}

	component := BundleComponent{
		BaseEntity:      shared.NewBaseEntity(),
		TemplateID:      t.ID,
		ComponentItemID: componentItemID,
		QuantityPerUnit: quantityPerUnit,
		Position:        len(t.Components),
	}
	t.Components = append(t.Components, component)
	t.IncrementVersion()
	return nil
}

// Validate checks the template is usable for resolution
func (t *BundleTemplate) Validate() error {
	if len(t.Components) == 0 {
		return shared.NewDomainError(shared.CodeValidationError,
			"Template must have at least one component")
	}
	for _, c := range t.Components {
		if c.QuantityPerUnit.LessThan(decimal.NewFromInt(1)) {
			return shared.NewDomainError(shared.CodeValidationError,
				"Quantity per kit must be at least 1")
		}
	}
	return nil
}

// Deactivate retires the template. Deactivated templates stay readable for
// historical challans but cannot produce new allocations.
func (t *BundleTemplate) Deactivate() {
	t.Active = false
	t.IncrementVersion()
}

// ComponentItemIDs returns the component item IDs in template order
func (t *BundleTemplate) ComponentItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(t.Components))
	for i, c := range t.Components {
		ids[i] = c.ComponentItemID
	}
	return ids
}
