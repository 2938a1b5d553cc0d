package site

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldstock/backend/internal/domain/shared"
)

// SiteDeployment tracks how many units of an item are currently out at a
// project site. A deployment opens when stock is dispatched and closes when
// its quantity reaches zero through returns, transfers or write-offs.
type SiteDeployment struct {
	shared.BaseAggregateRoot
	SiteID             uuid.UUID       `gorm:"type:uuid;not null;index:idx_deployment_site"`
	ProjectID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_deployment_project"`
	ItemID             uuid.UUID       `gorm:"type:uuid;not null;index:idx_deployment_item"`
	QuantityDeployed   decimal.Decimal `gorm:"type:decimal(18,0);not null"`
	DeployedDate       time.Time       `gorm:"not null"`
	ExpectedReturnDate *time.Time
	ActualReturnDate   *time.Time
	ChallanID          *uuid.UUID      `gorm:"type:uuid;index:idx_deployment_challan"`
}

// TableName returns the table name for GORM
func (SiteDeployment) TableName() string {
	return "site_deployments"
}

// NewSiteDeployment opens a deployment for dispatched stock
func NewSiteDeployment(
	siteID, projectID, itemID uuid.UUID,
	quantity decimal.Decimal,
) (*SiteDeployment, error) {
	if siteID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Site ID cannot be empty")
	}
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Project ID cannot be empty")
	}
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Item ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) || !quantity.IsInteger() {
		return nil, shared.NewDomainError(shared.CodeValidationError,
			"Deployed quantity must be a positive whole number")
	}

	deployment := &SiteDeployment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SiteID:            siteID,
		ProjectID:         projectID,
		ItemID:            itemID,
		QuantityDeployed:  quantity,
		DeployedDate:      time.Now(),
	}
	deployment.AddDomainEvent(NewDeploymentOpenedEvent(deployment))
	return deployment, nil
}

// WithChallan links the deployment to its source challan
func (d *SiteDeployment) WithChallan(challanID uuid.UUID) *SiteDeployment {
	d.ChallanID = &challanID
	return d
}

// WithExpectedReturn sets the planned return date
func (d *SiteDeployment) WithExpectedReturn(date time.Time) *SiteDeployment {
	d.ExpectedReturnDate = &date
	return d
}

// IsOpen reports whether units are still out at the site
func (d *SiteDeployment) IsOpen() bool {
	return d.QuantityDeployed.GreaterThan(decimal.Zero)
}

// AddQuantity increases the deployed quantity, e.g. when a later challan
// sends more of the same item to the same site.
func (d *SiteDeployment) AddQuantity(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) || !quantity.IsInteger() {
		return shared.NewDomainError(shared.CodeValidationError,
			"Quantity must be a positive whole number")
	}
	if !d.IsOpen() {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			"Cannot add quantity to a closed deployment")
	}

	d.QuantityDeployed = d.QuantityDeployed.Add(quantity)
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}

// ReduceQuantity removes units from the deployment as they come back,
// transfer away or get written off. The deployment closes when it hits zero.
func (d *SiteDeployment) ReduceQuantity(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) || !quantity.IsInteger() {
		return shared.NewDomainError(shared.CodeValidationError,
			"Quantity must be a positive whole number")
	}
	if quantity.GreaterThan(d.QuantityDeployed) {
		return shared.NewDomainError(shared.CodeValidationError,
			"Cannot reduce deployment below zero")
	}

	d.QuantityDeployed = d.QuantityDeployed.Sub(quantity)
	d.UpdatedAt = time.Now()
	if !d.IsOpen() {
		now := time.Now()
		d.ActualReturnDate = &now
		d.AddDomainEvent(NewDeploymentClosedEvent(d))
	}
	d.IncrementVersion()
	return nil
}

// IsOverdue reports whether the deployment is open past its expected return
func (d *SiteDeployment) IsOverdue(now time.Time) bool {
	return d.IsOpen() && d.ExpectedReturnDate != nil && now.After(*d.ExpectedReturnDate)
}
