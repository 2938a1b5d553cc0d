package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldstock/backend/internal/domain/bundle"
	"github.com/fieldstock/backend/internal/domain/shared"
)

// GormTemplateRepository implements TemplateRepository using GORM
type GormTemplateRepository struct {
	db *gorm.DB
}

// NewGormTemplateRepository creates a new GormTemplateRepository
func NewGormTemplateRepository(db *gorm.DB) *GormTemplateRepository {
	return &GormTemplateRepository{db: db}
}

// FindByID loads a template with its components in position order
func (r *GormTemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*bundle.BundleTemplate, error) {
	var template bundle.BundleTemplate
	if err := r.db.WithContext(ctx).
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&template, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// FindByBaseItem finds templates whose kit is the given base item
func (r *GormTemplateRepository) FindByBaseItem(ctx context.Context, baseItemID uuid.UUID) ([]*bundle.BundleTemplate, error) {
	var templates []*bundle.BundleTemplate
	if err := r.db.WithContext(ctx).
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("base_item_id = ?", baseItemID).
		Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// FindAll finds templates matching the filter
func (r *GormTemplateRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*bundle.BundleTemplate], error) {
	query := r.db.WithContext(ctx).Model(&bundle.BundleTemplate{}).
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
	for key, value := range filter.Filters {
		switch key {
		case "active":
			query = query.Where("active = ?", value)
		case "base_item_id":
			query = query.Where("base_item_id = ?", value)
		}
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	var templates []*bundle.BundleTemplate
	return paginate(query, filter, &templates)
}

// Save creates or updates a template together with its components
func (r *GormTemplateRepository) Save(ctx context.Context, template *bundle.BundleTemplate) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(template).Error
}

// Delete deletes a template and its components
func (r *GormTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&bundle.BundleTemplate{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormTemplateRepository implements TemplateRepository
var _ bundle.TemplateRepository = (*GormTemplateRepository)(nil)
