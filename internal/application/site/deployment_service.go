package site

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinventory "github.com/fieldstock/backend/internal/application/inventory"
	"github.com/fieldstock/backend/internal/domain/shared"
	"github.com/fieldstock/backend/internal/domain/site"
)

// DeploymentService tracks stock stationed at project sites. Dispatch via
// challans opens deployments through the challan service; this service
// covers direct stationing, transfers and projections.
type DeploymentService struct {
	scope          appinventory.TransactionScope
	deploymentRepo site.DeploymentRepository
	eventPublisher shared.EventPublisher
	maxRetries     int
}

// NewDeploymentService creates a new DeploymentService
func NewDeploymentService(
	scope appinventory.TransactionScope,
	deploymentRepo site.DeploymentRepository,
) *DeploymentService {
	return &DeploymentService{
		scope:          scope,
		deploymentRepo: deploymentRepo,
		maxRetries:     appinventory.DefaultMaxRetries,
	}
}

// SetMaxRetries overrides the conflict retry budget
func (s *DeploymentService) SetMaxRetries(n int) {
	if n > 0 {
		s.maxRetries = n
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *DeploymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *DeploymentService) publishDomainEvents(ctx context.Context, deployments ...*site.SiteDeployment) {
	if s.eventPublisher == nil {
		return
	}
	for _, d := range deployments {
		if d == nil {
			continue
		}
		events := d.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		_ = s.eventPublisher.Publish(ctx, events...)
		d.ClearDomainEvents()
	}
}

// OpenOrExtendTx adds quantity to the open deployment for a site/item pair,
// creating one when none exists. Runs inside an already-open transaction;
// the challan service composes it with stock reservation.
func OpenOrExtendTx(
	ctx context.Context,
	repos appinventory.TransactionalRepositories,
	siteID, projectID, itemID uuid.UUID,
	quantity decimal.Decimal,
	challanID *uuid.UUID,
	expectedReturn *time.Time,
) (*site.SiteDeployment, error) {
	existing, err := repos.DeploymentRepo().FindOpen(ctx, siteID, itemID)
	if err == nil {
		if addErr := existing.AddQuantity(quantity); addErr != nil {
			return nil, addErr
		}
		if saveErr := repos.DeploymentRepo().SaveWithLock(ctx, existing); saveErr != nil {
			return nil, saveErr
		}
		return existing, nil
	}
	if shared.ErrorCode(err) != shared.CodeNotFound {
		return nil, err
	}

	deployment, err := site.NewSiteDeployment(siteID, projectID, itemID, quantity)
	if err != nil {
		return nil, err
	}
	if challanID != nil {
		deployment.WithChallan(*challanID)
	}
	if expectedReturn != nil {
		deployment.WithExpectedReturn(*expectedReturn)
	}
	if err := repos.DeploymentRepo().Save(ctx, deployment); err != nil {
		return nil, err
	}
	return deployment, nil
}

// ReduceTx removes quantity from the open deployment for a site/item pair.
// Runs inside an already-open transaction.
func ReduceTx(
	ctx context.Context,
	repos appinventory.TransactionalRepositories,
	siteID, itemID uuid.UUID,
	quantity decimal.Decimal,
) (*site.SiteDeployment, error) {
	deployment, err := repos.DeploymentRepo().FindOpen(ctx, siteID, itemID)
	if err != nil {
		return nil, err
	}
	if err := deployment.ReduceQuantity(quantity); err != nil {
		return nil, err
	}
	if err := repos.DeploymentRepo().SaveWithLock(ctx, deployment); err != nil {
		return nil, err
	}
	return deployment, nil
}

// Deploy reserves warehouse stock and stations it at a site in one
// transaction
func (s *DeploymentService) Deploy(ctx context.Context, req DeployRequest) (*DeploymentResponse, error) {
	var deployment *site.SiteDeployment
	err := appinventory.RetryOnConflict(s.maxRetries, func() error {
		return s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			_, opErr := appinventory.ReserveStockTx(ctx, repos, req.ItemID, req.Quantity,
				appinventory.MovementMeta{
					Reference: req.Reference,
					ProjectID: &req.ProjectID,
					SiteID:    &req.SiteID,
				})
			if opErr != nil {
				return opErr
			}
			deployment, opErr = OpenOrExtendTx(ctx, repos, req.SiteID, req.ProjectID, req.ItemID,
				req.Quantity, nil, req.ExpectedReturnDate)
			return opErr
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, deployment)
	response := ToDeploymentResponse(deployment)
	return &response, nil
}

// Transfer moves deployed stock from one site to another. The warehouse
// pools are untouched; a TRANSFER movement keeps the ledger complete.
func (s *DeploymentService) Transfer(ctx context.Context, req TransferRequest) (*DeploymentResponse, error) {
	if req.FromSiteID == req.ToSiteID {
		return nil, shared.NewDomainError(shared.CodeValidationError,
			"Source and target site must differ")
	}

	var source, target *site.SiteDeployment
	err := appinventory.RetryOnConflict(s.maxRetries, func() error {
		return s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			var opErr error
			source, opErr = ReduceTx(ctx, repos, req.FromSiteID, req.ItemID, req.Quantity)
			if opErr != nil {
				return opErr
			}
			target, opErr = OpenOrExtendTx(ctx, repos, req.ToSiteID, req.ProjectID, req.ItemID,
				req.Quantity, nil, nil)
			if opErr != nil {
				return opErr
			}
			return appinventory.RecordTransferTx(ctx, repos, req.ItemID, req.Quantity,
				appinventory.MovementMeta{
					Reason:    req.Reason,
					ProjectID: &req.ProjectID,
					SiteID:    &req.ToSiteID,
				})
		})
	})
	if err != nil {
		return nil, err
	}

	source.AddDomainEvent(site.NewDeploymentTransferredEvent(source, req.ToSiteID, req.Quantity))
	s.publishDomainEvents(ctx, source, target)
	response := ToDeploymentResponse(target)
	return &response, nil
}

// CloseOut brings every remaining unit of an open deployment back into the
// warehouse pool and closes it, e.g. when a site winds down without a
// challan return.
func (s *DeploymentService) CloseOut(ctx context.Context, req CloseOutRequest) (*DeploymentResponse, error) {
	var deployment *site.SiteDeployment
	err := appinventory.RetryOnConflict(s.maxRetries, func() error {
		return s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			var opErr error
			deployment, opErr = repos.DeploymentRepo().FindByID(ctx, req.DeploymentID)
			if opErr != nil {
				return opErr
			}
			if !deployment.IsOpen() {
				return shared.NewDomainError(shared.CodeInvalidTransition,
					"Deployment is already closed")
			}

			quantity := deployment.QuantityDeployed
			if _, opErr = appinventory.ReleaseStockTx(ctx, repos, deployment.ItemID, quantity,
				appinventory.MovementMeta{
					Reason:    req.Reason,
					ProjectID: &deployment.ProjectID,
					SiteID:    &deployment.SiteID,
				}); opErr != nil {
				return opErr
			}
			if opErr = deployment.ReduceQuantity(quantity); opErr != nil {
				return opErr
			}
			return repos.DeploymentRepo().SaveWithLock(ctx, deployment)
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, deployment)
	response := ToDeploymentResponse(deployment)
	return &response, nil
}

// GetDeployment returns a single deployment
func (s *DeploymentService) GetDeployment(ctx context.Context, id uuid.UUID) (*DeploymentResponse, error) {
	deployment, err := s.deploymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToDeploymentResponse(deployment)
	return &response, nil
}

// ListOpenBySite returns the open deployments at a site
func (s *DeploymentService) ListOpenBySite(ctx context.Context, siteID uuid.UUID) ([]DeploymentResponse, error) {
	deployments, err := s.deploymentRepo.FindOpenBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	responses := make([]DeploymentResponse, len(deployments))
	for i, d := range deployments {
		responses[i] = ToDeploymentResponse(d)
	}
	return responses, nil
}

// ListOpenByItem returns everywhere an item is currently deployed
func (s *DeploymentService) ListOpenByItem(ctx context.Context, itemID uuid.UUID) ([]DeploymentResponse, error) {
	deployments, err := s.deploymentRepo.FindOpenByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	responses := make([]DeploymentResponse, len(deployments))
	for i, d := range deployments {
		responses[i] = ToDeploymentResponse(d)
	}
	return responses, nil
}

// DeployedQuantity totals an item's open deployed quantity across sites
func (s *DeploymentService) DeployedQuantity(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	return s.deploymentRepo.SumDeployedByItem(ctx, itemID)
}
