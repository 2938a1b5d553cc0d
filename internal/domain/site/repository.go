package site

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldstock/backend/internal/domain/shared"
)

// DeploymentRepository defines the persistence interface for site deployments
type DeploymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SiteDeployment, error)
	// FindOpen returns the open deployment for a site/item pair, or a
	// NOT_FOUND error when none exists.
	FindOpen(ctx context.Context, siteID, itemID uuid.UUID) (*SiteDeployment, error)
	FindOpenBySite(ctx context.Context, siteID uuid.UUID) ([]*SiteDeployment, error)
	FindOpenByItem(ctx context.Context, itemID uuid.UUID) ([]*SiteDeployment, error)
	FindByChallan(ctx context.Context, challanID uuid.UUID) ([]*SiteDeployment, error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*SiteDeployment], error)
	Save(ctx context.Context, deployment *SiteDeployment) error
	SaveWithLock(ctx context.Context, deployment *SiteDeployment) error
	// SumDeployedByItem totals the open deployed quantity for an item
	// across all sites.
	SumDeployedByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)
}
