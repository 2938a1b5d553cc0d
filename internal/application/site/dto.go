package site

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldstock/backend/internal/domain/site"
)

// DeploymentResponse represents a site deployment in API responses
type DeploymentResponse struct {
	ID                 uuid.UUID       `json:"id"`
	SiteID             uuid.UUID       `json:"site_id"`
	ProjectID          uuid.UUID       `json:"project_id"`
	ItemID             uuid.UUID       `json:"item_id"`
	QuantityDeployed   decimal.Decimal `json:"quantity_deployed"`
	DeployedDate       time.Time       `json:"deployed_date"`
	ExpectedReturnDate *time.Time      `json:"expected_return_date,omitempty"`
	ActualReturnDate   *time.Time      `json:"actual_return_date,omitempty"`
	ChallanID          *uuid.UUID      `json:"challan_id,omitempty"`
	Open               bool            `json:"open"`
}

// ToDeploymentResponse converts a deployment to its response form
func ToDeploymentResponse(deployment *site.SiteDeployment) DeploymentResponse {
	return DeploymentResponse{
		ID:                 deployment.ID,
		SiteID:             deployment.SiteID,
		ProjectID:          deployment.ProjectID,
		ItemID:             deployment.ItemID,
		QuantityDeployed:   deployment.QuantityDeployed,
		DeployedDate:       deployment.DeployedDate,
		ExpectedReturnDate: deployment.ExpectedReturnDate,
		ActualReturnDate:   deployment.ActualReturnDate,
		ChallanID:          deployment.ChallanID,
		Open:               deployment.IsOpen(),
	}
}

// DeployRequest stations stock at a site outside the challan flow, e.g.
// long-term site stationing
type DeployRequest struct {
	SiteID             uuid.UUID       `json:"site_id" binding:"required"`
	ProjectID          uuid.UUID       `json:"project_id" binding:"required"`
	ItemID             uuid.UUID       `json:"item_id" binding:"required"`
	Quantity           decimal.Decimal `json:"quantity" binding:"required"`
	ExpectedReturnDate *time.Time      `json:"expected_return_date"`
	Reference          string          `json:"reference"`
}

// CloseOutRequest winds down an open deployment, returning its remaining
// units to the warehouse
type CloseOutRequest struct {
	DeploymentID uuid.UUID `json:"deployment_id" binding:"required"`
	Reason       string    `json:"reason"`
}

// TransferRequest moves deployed stock between sites without touching the
// warehouse pool
type TransferRequest struct {
	FromSiteID uuid.UUID       `json:"from_site_id" binding:"required"`
	ToSiteID   uuid.UUID       `json:"to_site_id" binding:"required"`
	ProjectID  uuid.UUID       `json:"project_id" binding:"required"`
	ItemID     uuid.UUID       `json:"item_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	Reason     string          `json:"reason"`
}
