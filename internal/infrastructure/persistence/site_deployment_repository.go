package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fieldstock/backend/internal/domain/shared"
	"github.com/fieldstock/backend/internal/domain/site"
)

// GormDeploymentRepository implements DeploymentRepository using GORM
type GormDeploymentRepository struct {
	db *gorm.DB
}

// NewGormDeploymentRepository creates a new GormDeploymentRepository
func NewGormDeploymentRepository(db *gorm.DB) *GormDeploymentRepository {
	return &GormDeploymentRepository{db: db}
}

// FindByID finds a deployment by its ID
func (r *GormDeploymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*site.SiteDeployment, error) {
	var deployment site.SiteDeployment
	if err := r.db.WithContext(ctx).First(&deployment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	deployment.MarkPersisted()
	return &deployment, nil
}

// FindOpen returns the open deployment for a site/item pair
func (r *GormDeploymentRepository) FindOpen(ctx context.Context, siteID, itemID uuid.UUID) (*site.SiteDeployment, error) {
	var deployment site.SiteDeployment
	if err := r.db.WithContext(ctx).
		Where("site_id = ? AND item_id = ? AND quantity_deployed > 0", siteID, itemID).
		First(&deployment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	deployment.MarkPersisted()
	return &deployment, nil
}

// FindOpenBySite finds all open deployments at a site
func (r *GormDeploymentRepository) FindOpenBySite(ctx context.Context, siteID uuid.UUID) ([]*site.SiteDeployment, error) {
	var deployments []*site.SiteDeployment
	if err := r.db.WithContext(ctx).
		Where("site_id = ? AND quantity_deployed > 0", siteID).
		Order("deployed_date ASC").
		Find(&deployments).Error; err != nil {
		return nil, err
	}
	markDeployments(deployments)
	return deployments, nil
}

// FindOpenByItem finds all open deployments of an item across sites
func (r *GormDeploymentRepository) FindOpenByItem(ctx context.Context, itemID uuid.UUID) ([]*site.SiteDeployment, error) {
	var deployments []*site.SiteDeployment
	if err := r.db.WithContext(ctx).
		Where("item_id = ? AND quantity_deployed > 0", itemID).
		Order("deployed_date ASC").
		Find(&deployments).Error; err != nil {
		return nil, err
	}
	markDeployments(deployments)
	return deployments, nil
}

// FindByChallan finds deployments opened by a challan
func (r *GormDeploymentRepository) FindByChallan(ctx context.Context, challanID uuid.UUID) ([]*site.SiteDeployment, error) {
	var deployments []*site.SiteDeployment
	if err := r.db.WithContext(ctx).
		Where("challan_id = ?", challanID).
		Find(&deployments).Error; err != nil {
		return nil, err
	}
	markDeployments(deployments)
	return deployments, nil
}

func markDeployments(deployments []*site.SiteDeployment) {
	for _, d := range deployments {
		d.MarkPersisted()
	}
}

// FindAll finds deployments matching the filter
func (r *GormDeploymentRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*site.SiteDeployment], error) {
	query := r.db.WithContext(ctx).Model(&site.SiteDeployment{})
	for key, value := range filter.Filters {
		switch key {
		case "site_id":
			query = query.Where("site_id = ?", value)
		case "project_id":
			query = query.Where("project_id = ?", value)
		case "item_id":
			query = query.Where("item_id = ?", value)
		case "open":
			if value == true {
				query = query.Where("quantity_deployed > 0")
			}
		}
	}

	var deployments []*site.SiteDeployment
	page, err := paginate(query, filter, &deployments)
	if err != nil {
		return nil, err
	}
	markDeployments(deployments)
	return page, nil
}

// Save creates or updates a deployment
func (r *GormDeploymentRepository) Save(ctx context.Context, deployment *site.SiteDeployment) error {
	return r.db.WithContext(ctx).Save(deployment).Error
}

// SaveWithLock saves with optimistic locking against the version the
// deployment was loaded at
func (r *GormDeploymentRepository) SaveWithLock(ctx context.Context, deployment *site.SiteDeployment) error {
	result := r.db.WithContext(ctx).
		Model(deployment).
		Where("id = ? AND version = ?", deployment.ID, deployment.PersistedVersion()).
		Updates(map[string]interface{}{
			"quantity_deployed":    deployment.QuantityDeployed,
			"expected_return_date": deployment.ExpectedReturnDate,
			"actual_return_date":   deployment.ActualReturnDate,
			"version":              deployment.Version,
			"updated_at":           deployment.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeOptimisticLockFailed, "Deployment was modified by another transaction")
	}
	deployment.MarkPersisted()
	return nil
}

// SumDeployedByItem totals the open deployed quantity for an item
func (r *GormDeploymentRepository) SumDeployedByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&site.SiteDeployment{}).
		Select("COALESCE(SUM(quantity_deployed), 0) as total").
		Where("item_id = ? AND quantity_deployed > 0", itemID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormDeploymentRepository implements DeploymentRepository
var _ site.DeploymentRepository = (*GormDeploymentRepository)(nil)
