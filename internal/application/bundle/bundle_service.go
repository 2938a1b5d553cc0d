package bundle

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	appinventory "github.com/fieldstock/backend/internal/application/inventory"
	"github.com/fieldstock/backend/internal/domain/bundle"
	"github.com/fieldstock/backend/internal/domain/shared"
	"github.com/fieldstock/backend/internal/domain/site"
)

// BundleService resolves kit availability and turns kit allocations into
// batch component reservations on the stock ledger.
type BundleService struct {
	templateRepo   bundle.TemplateRepository
	deploymentRepo site.DeploymentRepository
	ledger         *appinventory.LedgerService
	resolver       *bundle.Resolver
}

// NewBundleService creates a new BundleService
func NewBundleService(
	templateRepo bundle.TemplateRepository,
	deploymentRepo site.DeploymentRepository,
	ledger *appinventory.LedgerService,
) *BundleService {
	return &BundleService{
		templateRepo:   templateRepo,
		deploymentRepo: deploymentRepo,
		ledger:         ledger,
		resolver:       bundle.NewResolver(),
	}
}

// CreateTemplate defines a new kit template with its components
func (s *BundleService) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*TemplateResponse, error) {
	template, err := bundle.NewBundleTemplate(req.Name, req.BaseItemID)
	if err != nil {
		return nil, err
	}
	for _, c := range req.Components {
		if err := template.AddComponent(c.ComponentItemID, c.QuantityPerUnit); err != nil {
			return nil, err
		}
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}
	if err := s.templateRepo.Save(ctx, template); err != nil {
		return nil, err
	}

	response := ToTemplateResponse(template)
	return &response, nil
}

// GetTemplate returns a single template with its components
func (s *BundleService) GetTemplate(ctx context.Context, templateID uuid.UUID) (*TemplateResponse, error) {
	template, err := s.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	response := ToTemplateResponse(template)
	return &response, nil
}

// ListTemplates returns templates matching the filter
func (s *BundleService) ListTemplates(ctx context.Context, filter shared.Filter) (*shared.Paginated[TemplateResponse], error) {
	templates, err := s.templateRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]TemplateResponse, len(templates.Items))
	for i, t := range templates.Items {
		responses[i] = ToTemplateResponse(t)
	}
	page := shared.NewPaginated(responses, templates.Total, templates.Page, templates.PageSize)
	return &page, nil
}

// DeactivateTemplate retires a template. Kits already in the field keep
// their template readable; a changed recipe is a new template.
func (s *BundleService) DeactivateTemplate(ctx context.Context, templateID uuid.UUID) (*TemplateResponse, error) {
	template, err := s.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	template.Deactivate()
	if err := s.templateRepo.Save(ctx, template); err != nil {
		return nil, err
	}

	response := ToTemplateResponse(template)
	return &response, nil
}

// AddTemplateComponent extends a template's recipe. Rejected once kits built
// from the template are still out in the field; the recipe of deployed kits
// is historical fact and a changed recipe is a new template.
func (s *BundleService) AddTemplateComponent(ctx context.Context, templateID uuid.UUID, req ComponentRequest) (*TemplateResponse, error) {
	template, err := s.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	open, err := s.deploymentRepo.FindOpenByItem(ctx, template.BaseItemID)
	if err != nil {
		return nil, err
	}
	if len(open) > 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidTransition,
			"Kits from this template are still deployed; define a new template instead")
	}

	if err := template.AddComponent(req.ComponentItemID, req.QuantityPerUnit); err != nil {
		return nil, err
	}
	if err := s.templateRepo.Save(ctx, template); err != nil {
		return nil, err
	}

	response := ToTemplateResponse(template)
	return &response, nil
}

// ResolveKitAvailability computes how many complete kits current component
// stock supports. This is a pure query against a point-in-time snapshot.
func (s *BundleService) ResolveKitAvailability(ctx context.Context, templateID uuid.UUID) (*KitAvailabilityResponse, error) {
	template, err := s.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	stock, err := s.ledger.StockSnapshot(ctx, template.ComponentItemIDs())
	if err != nil {
		return nil, err
	}
	availability, err := s.resolver.AvailableKits(template, stock)
	if err != nil {
		return nil, err
	}

	return &KitAvailabilityResponse{
		TemplateID:    template.ID,
		BaseItemID:    template.BaseItemID,
		AvailableKits: availability.Kits,
		Bottlenecks:   availability.Bottlenecks,
	}, nil
}

// AllocateKit expands a kit quantity into component deltas and reserves them
// as one all-or-nothing batch. A shortage names the bottleneck component(s).
func (s *BundleService) AllocateKit(ctx context.Context, req AllocateKitRequest) (*AllocationResponse, error) {
	template, err := s.templateRepo.FindByID(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if !template.Active {
		return nil, shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Template %s is no longer active", template.Name))
	}

	// Pre-check against a snapshot so a shortage error names the bottleneck
	// component. The batch reservation below revalidates inside its own
	// transaction; the snapshot is advisory only.
	stock, err := s.ledger.StockSnapshot(ctx, template.ComponentItemIDs())
	if err != nil {
		return nil, err
	}
	if err := s.resolver.CheckAllocatable(template, stock, req.KitQuantity); err != nil {
		return nil, err
	}

	deltas, err := s.resolver.ExpandKitAllocation(template, req.KitQuantity)
	if err != nil {
		return nil, err
	}

	lines := make([]appinventory.ReserveLine, len(deltas))
	for i, delta := range deltas {
		lines[i] = appinventory.ReserveLine{ItemID: delta.ItemID, Quantity: delta.Quantity}
	}
	items, err := s.ledger.ReserveMany(ctx, appinventory.ReserveManyRequest{
		Lines:     lines,
		Reference: req.Reference,
		SiteID:    req.SiteID,
		ProjectID: req.ProjectID,
		ChallanID: req.ChallanID,
	})
	if err != nil {
		return nil, err
	}

	return &AllocationResponse{
		TemplateID:  template.ID,
		KitQuantity: req.KitQuantity,
		Items:       items,
	}, nil
}
