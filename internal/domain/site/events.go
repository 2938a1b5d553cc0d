package site

import (
	"github.com/fieldstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeSiteDeployment = "SiteDeployment"

// Event type constants
const (
	EventTypeDeploymentOpened      = "DeploymentOpened"
	EventTypeDeploymentClosed      = "DeploymentClosed"
	EventTypeDeploymentTransferred = "DeploymentTransferred"
)

// DeploymentOpenedEvent is raised when stock is deployed to a site
type DeploymentOpenedEvent struct {
	shared.BaseDomainEvent
	DeploymentID uuid.UUID       `json:"deployment_id"`
	SiteID       uuid.UUID       `json:"site_id"`
	ProjectID    uuid.UUID       `json:"project_id"`
	ItemID       uuid.UUID       `json:"item_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// NewDeploymentOpenedEvent creates a new DeploymentOpenedEvent
func NewDeploymentOpenedEvent(deployment *SiteDeployment) *DeploymentOpenedEvent {
	return &DeploymentOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDeploymentOpened, AggregateTypeSiteDeployment, deployment.ID),
		DeploymentID:    deployment.ID,
		SiteID:          deployment.SiteID,
		ProjectID:       deployment.ProjectID,
		ItemID:          deployment.ItemID,
		Quantity:        deployment.QuantityDeployed,
	}
}

// DeploymentClosedEvent is raised when a deployment's quantity reaches zero
type DeploymentClosedEvent struct {
	shared.BaseDomainEvent
	DeploymentID uuid.UUID `json:"deployment_id"`
	SiteID       uuid.UUID `json:"site_id"`
	ItemID       uuid.UUID `json:"item_id"`
}

// NewDeploymentClosedEvent creates a new DeploymentClosedEvent
func NewDeploymentClosedEvent(deployment *SiteDeployment) *DeploymentClosedEvent {
	return &DeploymentClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDeploymentClosed, AggregateTypeSiteDeployment, deployment.ID),
		DeploymentID:    deployment.ID,
		SiteID:          deployment.SiteID,
		ItemID:          deployment.ItemID,
	}
}

// DeploymentTransferredEvent is raised when deployed stock moves between sites
type DeploymentTransferredEvent struct {
	shared.BaseDomainEvent
	ItemID     uuid.UUID       `json:"item_id"`
	FromSiteID uuid.UUID       `json:"from_site_id"`
	ToSiteID   uuid.UUID       `json:"to_site_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// NewDeploymentTransferredEvent creates a new DeploymentTransferredEvent
func NewDeploymentTransferredEvent(source *SiteDeployment, toSiteID uuid.UUID, quantity decimal.Decimal) *DeploymentTransferredEvent {
	return &DeploymentTransferredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDeploymentTransferred, AggregateTypeSiteDeployment, source.ID),
		ItemID:          source.ItemID,
		FromSiteID:      source.SiteID,
		ToSiteID:        toSiteID,
		Quantity:        quantity,
	}
}
