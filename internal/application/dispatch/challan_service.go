package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinventory "github.com/fieldstock/backend/internal/application/inventory"
	appsite "github.com/fieldstock/backend/internal/application/site"
	"github.com/fieldstock/backend/internal/domain/dispatch"
	"github.com/fieldstock/backend/internal/domain/shared"
)

// ChallanService drives the challan lifecycle. Sending and cancelling touch
// stock, deployments and the challan itself, always as one transaction.
type ChallanService struct {
	scope          TransactionScope
	challanRepo    dispatch.ChallanRepository
	eventPublisher shared.EventPublisher
	maxRetries     int
}

// NewChallanService creates a new ChallanService
func NewChallanService(scope TransactionScope, challanRepo dispatch.ChallanRepository) *ChallanService {
	return &ChallanService{
		scope:       scope,
		challanRepo: challanRepo,
		maxRetries:  appinventory.DefaultMaxRetries,
	}
}

// SetMaxRetries overrides the conflict retry budget
func (s *ChallanService) SetMaxRetries(n int) {
	if n > 0 {
		s.maxRetries = n
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ChallanService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ChallanService) publishDomainEvents(ctx context.Context, challan *dispatch.Challan) {
	if s.eventPublisher == nil || challan == nil {
		return
	}
	events := challan.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	challan.ClearDomainEvents()
}

// CreateChallan creates a challan. Without transport details it stays an
// editable draft with no stock impact; with them it is dispatched in the
// same transaction. The document number is allocated inside that
// transaction, so a failed create rolls the counter back and numbering
// stays gapless per year.
func (s *ChallanService) CreateChallan(ctx context.Context, req CreateChallanRequest) (*ChallanResponse, error) {
	buildDraft := func(number string) (*dispatch.Challan, error) {
		challan, err := dispatch.NewChallan(number, req.ProjectID, req.SiteID)
		if err != nil {
			return nil, err
		}
		challan.Remarks = req.Remarks
		for _, line := range req.Lines {
			if err := challan.AddItem(line.ItemID, line.Quantity); err != nil {
				return nil, err
			}
		}
		return challan, nil
	}

	// The draft is rebuilt on a conflict retry so Send starts from DRAFT
	// again, with a freshly allocated number.
	var challan *dispatch.Challan
	err := appinventory.RetryOnConflict(s.maxRetries, func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			number, opErr := repos.ChallanRepo().NextChallanNumber(ctx)
			if opErr != nil {
				return opErr
			}
			challan, opErr = buildDraft(number)
			if opErr != nil {
				return opErr
			}
			if req.Transport == nil {
				return repos.ChallanRepo().Save(ctx, challan)
			}
			return s.sendTx(ctx, repos, challan, req.Transport.toDomain(), req.ExpectedReturnDate, false)
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, challan)
	response := ToChallanResponse(challan)
	return &response, nil
}

// sendTx dispatches the challan inside an open transaction: reserve every
// line as one batch, record OUTWARD movements and open deployments, then
// persist the SENT challan.
func (s *ChallanService) sendTx(
	ctx context.Context,
	repos TransactionalRepositories,
	challan *dispatch.Challan,
	transport dispatch.TransportDetails,
	expectedReturn *time.Time,
	persisted bool,
) error {
	if err := challan.Send(transport); err != nil {
		return err
	}

	meta := appinventory.MovementMeta{
		Reference: challan.ChallanNumber,
		ChallanID: &challan.ID,
		ProjectID: &challan.ProjectID,
		SiteID:    &challan.SiteID,
	}
	for i := range challan.Items {
		line := &challan.Items[i]
		if _, err := appinventory.ReserveStockTx(ctx, repos, line.ItemID, line.Quantity, meta); err != nil {
			return err
		}
		if _, err := appsite.OpenOrExtendTx(ctx, repos, challan.SiteID, challan.ProjectID,
			line.ItemID, line.Quantity, &challan.ID, expectedReturn); err != nil {
			return err
		}
	}

	if persisted {
		return repos.ChallanRepo().SaveWithLock(ctx, challan)
	}
	return repos.ChallanRepo().Save(ctx, challan)
}

// UpdateDraftLine adds, changes or removes draft lines. Quantity zero
// removes the line.
func (s *ChallanService) UpdateDraftLine(ctx context.Context, challanID uuid.UUID, req ChallanLineRequest) (*ChallanResponse, error) {
	challan, err := s.challanRepo.FindByID(ctx, challanID)
	if err != nil {
		return nil, err
	}

	applied := false
	for i := range challan.Items {
		if challan.Items[i].ItemID != req.ItemID {
			continue
		}
		if req.Quantity.IsZero() {
			err = challan.RemoveItem(challan.Items[i].ID)
		} else {
			err = challan.UpdateItemQuantity(challan.Items[i].ID, req.Quantity)
		}
		if err != nil {
			return nil, err
		}
		applied = true
		break
	}
	if !applied {
		if err := challan.AddItem(req.ItemID, req.Quantity); err != nil {
			return nil, err
		}
	}

	if err := s.challanRepo.SaveWithLock(ctx, challan); err != nil {
		return nil, err
	}
	response := ToChallanResponse(challan)
	return &response, nil
}

// SendChallan dispatches a draft challan
func (s *ChallanService) SendChallan(ctx context.Context, challanID uuid.UUID, req TransportRequest, expectedReturn *time.Time) (*ChallanResponse, error) {
	var challan *dispatch.Challan
	err := appinventory.RetryOnConflict(s.maxRetries, func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var opErr error
			challan, opErr = repos.ChallanRepo().FindByID(ctx, challanID)
			if opErr != nil {
				return opErr
			}
			return s.sendTx(ctx, repos, challan, req.toDomain(), expectedReturn, true)
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, challan)
	response := ToChallanResponse(challan)
	return &response, nil
}

// CancelChallan aborts a challan. Every line's outstanding quantity is
// released back to the warehouse in one batch and the site deployments
// shrink accordingly. Draft cancellation has no stock to release.
func (s *ChallanService) CancelChallan(ctx context.Context, challanID uuid.UUID, req CancelChallanRequest) (*ChallanResponse, error) {
	var challan *dispatch.Challan
	err := appinventory.RetryOnConflict(s.maxRetries, func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var opErr error
			challan, opErr = repos.ChallanRepo().FindByID(ctx, challanID)
			if opErr != nil {
				return opErr
			}

			wasDraft := challan.Status == dispatch.StatusDraft
			outstanding := make(map[uuid.UUID]decimal.Decimal)
			for i := range challan.Items {
				line := &challan.Items[i]
				if line.OutstandingQuantity().GreaterThan(decimal.Zero) {
					outstanding[line.ItemID] = line.OutstandingQuantity()
				}
			}

			if opErr := challan.Cancel(req.Reason); opErr != nil {
				return opErr
			}

			if !wasDraft {
				meta := appinventory.MovementMeta{
					Reference: challan.ChallanNumber,
					Reason:    "Challan cancelled: " + req.Reason,
					ChallanID: &challan.ID,
					ProjectID: &challan.ProjectID,
					SiteID:    &challan.SiteID,
				}
				for itemID, qty := range outstanding {
					if _, opErr := appinventory.ReleaseStockTx(ctx, repos, itemID, qty, meta); opErr != nil {
						return opErr
					}
					if _, opErr := appsite.ReduceTx(ctx, repos, challan.SiteID, itemID, qty); opErr != nil {
						return opErr
					}
				}
			}

			return repos.ChallanRepo().SaveWithLock(ctx, challan)
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, challan)
	response := ToChallanResponse(challan)
	return &response, nil
}

// GetChallan returns a single challan with its lines
func (s *ChallanService) GetChallan(ctx context.Context, challanID uuid.UUID) (*ChallanResponse, error) {
	challan, err := s.challanRepo.FindByID(ctx, challanID)
	if err != nil {
		return nil, err
	}
	response := ToChallanResponse(challan)
	return &response, nil
}

// GetChallanByNumber returns a single challan by document number
func (s *ChallanService) GetChallanByNumber(ctx context.Context, number string) (*ChallanResponse, error) {
	challan, err := s.challanRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	response := ToChallanResponse(challan)
	return &response, nil
}

// ListChallans returns challans matching the filter, optionally restricted
// to one status
func (s *ChallanService) ListChallans(ctx context.Context, status string, filter shared.Filter) (*shared.Paginated[ChallanResponse], error) {
	var (
		page *shared.Paginated[*dispatch.Challan]
		err  error
	)
	if status != "" {
		challanStatus := dispatch.ChallanStatus(status)
		if !challanStatus.IsValid() {
			return nil, shared.NewDomainError(shared.CodeValidationError, "Invalid challan status filter")
		}
		page, err = s.challanRepo.FindByStatus(ctx, challanStatus, filter)
	} else {
		page, err = s.challanRepo.FindAll(ctx, filter)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]ChallanResponse, len(page.Items))
	for i, challan := range page.Items {
		responses[i] = ToChallanResponse(challan)
	}
	result := shared.NewPaginated(responses, page.Total, page.Page, page.PageSize)
	return &result, nil
}
