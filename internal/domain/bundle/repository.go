package bundle

import (
	"context"

	"github.com/google/uuid"

	"github.com/fieldstock/backend/internal/domain/shared"
)

// TemplateRepository defines the persistence interface for bundle templates
type TemplateRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BundleTemplate, error)
	FindByBaseItem(ctx context.Context, baseItemID uuid.UUID) ([]*BundleTemplate, error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*BundleTemplate], error)
	Save(ctx context.Context, template *BundleTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
}
