package dispatch

import (
	"context"

	"github.com/google/uuid"

	appinventory "github.com/fieldstock/backend/internal/application/inventory"
	appsite "github.com/fieldstock/backend/internal/application/site"
	"github.com/fieldstock/backend/internal/domain/dispatch"
	"github.com/fieldstock/backend/internal/domain/shared"
)

// ReturnService reconciles returned stock against challans. A submission
// accounts for the full outstanding balance of every line it touches, and
// every effect it implies lands in one transaction or not at all.
type ReturnService struct {
	scope          TransactionScope
	challanRepo    dispatch.ChallanRepository
	returnRepo     dispatch.ReturnRecordRepository
	eventPublisher shared.EventPublisher
	maxRetries     int
}

// NewReturnService creates a new ReturnService
func NewReturnService(
	scope TransactionScope,
	challanRepo dispatch.ChallanRepository,
	returnRepo dispatch.ReturnRecordRepository,
) *ReturnService {
	return &ReturnService{
		scope:       scope,
		challanRepo: challanRepo,
		returnRepo:  returnRepo,
		maxRetries:  appinventory.DefaultMaxRetries,
	}
}

// SetMaxRetries overrides the conflict retry budget
func (s *ReturnService) SetMaxRetries(n int) {
	if n > 0 {
		s.maxRetries = n
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReturnService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SubmitReturn validates and applies one return submission. Per entry the
// effect is: RETURNED releases stock to the warehouse, REPAIR parks it in
// the repair pool, SCRAP writes the deployed units off, TRANSFERRED moves
// them to another site. Line and challan status advance afterwards.
func (s *ReturnService) SubmitReturn(ctx context.Context, challanID uuid.UUID, req SubmitReturnRequest) (*ChallanResponse, error) {
	var (
		challan *dispatch.Challan
		records []*dispatch.ReturnRecord
	)
	err := appinventory.RetryOnConflict(s.maxRetries, func() error {
		records = records[:0]
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var opErr error
			challan, opErr = repos.ChallanRepo().FindByID(ctx, challanID)
			if opErr != nil {
				return opErr
			}

			submission := req.toDomain(challan.ID)
			if opErr := submission.Validate(challan); opErr != nil {
				return opErr
			}

			for _, line := range submission.Lines {
				challanLine, opErr := challan.ItemLine(line.ChallanItemID)
				if opErr != nil {
					return opErr
				}
				for _, entry := range line.Entries {
					if opErr := s.applyEntry(ctx, repos, challan, challanLine.ItemID, entry); opErr != nil {
						return opErr
					}
					records = append(records, dispatch.NewReturnRecord(
						challan.ID, line.ChallanItemID, challanLine.ItemID, entry))
				}
				if opErr := challan.ApplyReturn(line.ChallanItemID, line.TotalQuantity()); opErr != nil {
					return opErr
				}
			}

			if opErr := repos.ReturnRecordRepo().CreateBatch(ctx, records); opErr != nil {
				return opErr
			}
			return repos.ChallanRepo().SaveWithLock(ctx, challan)
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, challan, records)
	response := ToChallanResponse(challan)
	return &response, nil
}

// applyEntry applies one entry's stock and deployment effects inside the
// open transaction. Every outcome reduces the challan site's deployment;
// TRANSFERRED re-opens the quantity at the target site.
func (s *ReturnService) applyEntry(
	ctx context.Context,
	repos TransactionalRepositories,
	challan *dispatch.Challan,
	itemID uuid.UUID,
	entry dispatch.ReturnEntry,
) error {
	meta := appinventory.MovementMeta{
		Reference: challan.ChallanNumber,
		Reason:    entry.Notes,
		ChallanID: &challan.ID,
		ProjectID: &challan.ProjectID,
		SiteID:    &challan.SiteID,
	}

	var err error
	switch entry.Outcome {
	case dispatch.OutcomeReturned:
		_, err = appinventory.ReleaseStockTx(ctx, repos, itemID, entry.Quantity, meta)
	case dispatch.OutcomeRepair:
		_, err = appinventory.MoveToRepairTx(ctx, repos, itemID, entry.Quantity, meta)
	case dispatch.OutcomeScrap:
		_, err = appinventory.WriteOffDeployedTx(ctx, repos, itemID, entry.Quantity, meta)
	case dispatch.OutcomeTransferred:
		transferMeta := meta
		transferMeta.SiteID = entry.TargetSiteID
		err = appinventory.RecordTransferTx(ctx, repos, itemID, entry.Quantity, transferMeta)
		if err == nil {
			_, err = appsite.OpenOrExtendTx(ctx, repos, *entry.TargetSiteID, challan.ProjectID,
				itemID, entry.Quantity, nil, nil)
		}
	default:
		return shared.NewDomainError(shared.CodeValidationError, "Unknown return outcome")
	}
	if err != nil {
		return err
	}

	_, err = appsite.ReduceTx(ctx, repos, challan.SiteID, itemID, entry.Quantity)
	return err
}

func (s *ReturnService) publishEvents(ctx context.Context, challan *dispatch.Challan, records []*dispatch.ReturnRecord) {
	if s.eventPublisher == nil {
		return
	}
	events := make([]shared.DomainEvent, 0, len(records)+len(challan.GetDomainEvents()))
	for _, record := range records {
		events = append(events, dispatch.NewReturnRecordedEvent(record))
	}
	events = append(events, challan.GetDomainEvents()...)
	if len(events) > 0 {
		_ = s.eventPublisher.Publish(ctx, events...)
	}
	challan.ClearDomainEvents()
}

// ListReturns returns the applied return records for a challan
func (s *ReturnService) ListReturns(ctx context.Context, challanID uuid.UUID) ([]ReturnRecordResponse, error) {
	records, err := s.returnRepo.FindByChallan(ctx, challanID)
	if err != nil {
		return nil, err
	}
	responses := make([]ReturnRecordResponse, len(records))
	for i, record := range records {
		responses[i] = ToReturnRecordResponse(record)
	}
	return responses, nil
}
