package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldstock/backend/internal/domain/inventory"
	"github.com/fieldstock/backend/internal/domain/shared"
)

// DefaultMaxRetries bounds how often a conflicted ledger operation is retried
// before CONCURRENCY_CONFLICT surfaces to the caller
const DefaultMaxRetries = 3

// LedgerService handles stock ledger operations. Every mutation runs inside
// a transaction scope, re-validates sufficiency against the freshly loaded
// item and appends exactly one movement per applied change.
type LedgerService struct {
	scope          TransactionScope
	itemRepo       inventory.ItemRepository
	movementRepo   inventory.StockMovementRepository
	eventPublisher shared.EventPublisher
	maxRetries     int
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	scope TransactionScope,
	itemRepo inventory.ItemRepository,
	movementRepo inventory.StockMovementRepository,
) *LedgerService {
	return &LedgerService{
		scope:        scope,
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		maxRetries:   DefaultMaxRetries,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMaxRetries overrides the conflict retry bound
func (s *LedgerService) SetMaxRetries(n int) {
	if n > 0 {
		s.maxRetries = n
	}
}

func (s *LedgerService) withConflictRetry(op func() error) error {
	return RetryOnConflict(s.maxRetries, op)
}

// publishDomainEvents publishes pending events from mutated items after the
// transaction has committed
func (s *LedgerService) publishDomainEvents(ctx context.Context, items ...*inventory.Item) {
	if s.eventPublisher == nil {
		return
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		events := item.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		_ = s.eventPublisher.Publish(ctx, events...)
		item.ClearDomainEvents()
	}
}

// CreateItem registers a new SKU with zero stock
func (s *LedgerService) CreateItem(ctx context.Context, req CreateItemRequest) (*ItemResponse, error) {
	existing, err := s.itemRepo.FindBySKU(ctx, req.SKU)
	if err != nil && shared.ErrorCode(err) != shared.CodeNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists,
			fmt.Sprintf("Item with SKU %s already exists", req.SKU))
	}

	item, err := inventory.NewItem(req.SKU, req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	response := ToItemResponse(item)
	return &response, nil
}

// Reserve atomically takes stock from the available pool
func (s *LedgerService) Reserve(ctx context.Context, req StockRequest) (*ItemResponse, error) {
	var item *inventory.Item
	err := s.withConflictRetry(func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var opErr error
			item, opErr = ReserveStockTx(ctx, repos, req.ItemID, req.Quantity, metaFromRequest(req))
			return opErr
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, item)
	response := ToItemResponse(item)
	return &response, nil
}

// Release atomically returns stock to the available pool
func (s *LedgerService) Release(ctx context.Context, req StockRequest) (*ItemResponse, error) {
	var item *inventory.Item
	err := s.withConflictRetry(func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var opErr error
			item, opErr = ReleaseStockTx(ctx, repos, req.ItemID, req.Quantity, metaFromRequest(req))
			return opErr
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, item)
	response := ToItemResponse(item)
	return &response, nil
}

// WriteOff permanently removes warehouse stock
func (s *LedgerService) WriteOff(ctx context.Context, req StockRequest) (*ItemResponse, error) {
	var item *inventory.Item
	err := s.withConflictRetry(func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var opErr error
			item, opErr = WriteOffStockTx(ctx, repos, req.ItemID, req.Quantity, metaFromRequest(req))
			return opErr
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, item)
	response := ToItemResponse(item)
	return &response, nil
}

// ReserveMany reserves every line as one all-or-nothing unit. If any line
// cannot be fulfilled the whole batch rolls back and no stock moves.
func (s *LedgerService) ReserveMany(ctx context.Context, req ReserveManyRequest) ([]ItemResponse, error) {
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidationError,
			"Batch reservation requires at least one line")
	}
	seen := make(map[uuid.UUID]bool, len(req.Lines))
	for _, line := range req.Lines {
		if seen[line.ItemID] {
			return nil, shared.NewDomainError(shared.CodeValidationError,
				fmt.Sprintf("Item %s appears more than once in the batch", line.ItemID))
		}
		seen[line.ItemID] = true
	}

	meta := MovementMeta{
		Reference: req.Reference,
		ChallanID: req.ChallanID,
		ProjectID: req.ProjectID,
		SiteID:    req.SiteID,
	}

	var items []*inventory.Item
	err := s.withConflictRetry(func() error {
		items = items[:0]
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			for _, line := range req.Lines {
				item, opErr := ReserveStockTx(ctx, repos, line.ItemID, line.Quantity, meta)
				if opErr != nil {
					return opErr
				}
				items = append(items, item)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, items...)
	responses := make([]ItemResponse, len(items))
	for i, item := range items {
		responses[i] = ToItemResponse(item)
	}
	return responses, nil
}

// ReceivePurchase brings purchased stock into the warehouse
func (s *LedgerService) ReceivePurchase(ctx context.Context, req StockRequest) (*ItemResponse, error) {
	var item *inventory.Item
	err := s.withConflictRetry(func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var opErr error
			item, opErr = ReceivePurchaseTx(ctx, repos, req.ItemID, req.Quantity, metaFromRequest(req))
			return opErr
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, item)
	response := ToItemResponse(item)
	return &response, nil
}

// Adjust corrects an item's available quantity to a counted value and
// records an ADJUSTMENT movement for the difference
func (s *LedgerService) Adjust(ctx context.Context, req AdjustStockRequest) (*ItemResponse, error) {
	var item *inventory.Item
	err := s.withConflictRetry(func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			loaded, opErr := repos.ItemRepo().FindByID(ctx, req.ItemID)
			if opErr != nil {
				return opErr
			}

			before := loaded.AvailableQuantity
			difference, opErr := loaded.AdjustTo(req.ActualQuantity, req.Reason)
			if opErr != nil {
				return opErr
			}
			if difference.IsZero() {
				// count matched the book quantity, nothing to record
				item = loaded
				return nil
			}
			if opErr := repos.ItemRepo().SaveWithLock(ctx, loaded); opErr != nil {
				return opErr
			}

			movement, opErr := inventory.NewStockMovement(loaded.ID, inventory.MovementAdjustment,
				difference.Abs(), before, loaded.AvailableQuantity)
			if opErr != nil {
				return opErr
			}
			movement.WithReason(req.Reason)
			if opErr := repos.MovementRepo().Create(ctx, movement); opErr != nil {
				return opErr
			}
			item = loaded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, item)
	response := ToItemResponse(item)
	return &response, nil
}

// MoveToRepair places units into the repair pool
func (s *LedgerService) MoveToRepair(ctx context.Context, req StockRequest) (*ItemResponse, error) {
	var item *inventory.Item
	err := s.withConflictRetry(func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var opErr error
			item, opErr = MoveToRepairTx(ctx, repos, req.ItemID, req.Quantity, metaFromRequest(req))
			return opErr
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, item)
	response := ToItemResponse(item)
	return &response, nil
}

// CompleteRepair takes units out of the repair pool, restocking or scrapping them
func (s *LedgerService) CompleteRepair(ctx context.Context, req CompleteRepairRequest) (*ItemResponse, error) {
	var item *inventory.Item
	err := s.withConflictRetry(func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var opErr error
			item, opErr = CompleteRepairTx(ctx, repos, req.ItemID, req.Quantity, req.Restock,
				MovementMeta{Reason: req.Reason})
			return opErr
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, item)
	response := ToItemResponse(item)
	return &response, nil
}

// GetItem returns a single item. Reads are non-transactional and may lag a
// concurrent writer by a moment.
func (s *LedgerService) GetItem(ctx context.Context, itemID uuid.UUID) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	response := ToItemResponse(item)
	return &response, nil
}

// GetItemBySKU returns a single item by SKU
func (s *LedgerService) GetItemBySKU(ctx context.Context, sku string) (*ItemResponse, error) {
	item, err := s.itemRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	response := ToItemResponse(item)
	return &response, nil
}

// ListItems returns items matching the filter
func (s *LedgerService) ListItems(ctx context.Context, filter shared.Filter) ([]ItemResponse, error) {
	items, err := s.itemRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]ItemResponse, len(items))
	for i := range items {
		responses[i] = ToItemResponse(&items[i])
	}
	return responses, nil
}

// ListMovements returns an item's ledger entries
func (s *LedgerService) ListMovements(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]MovementResponse, error) {
	movements, err := s.movementRepo.FindByItem(ctx, itemID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToMovementResponse(&movements[i])
	}
	return responses, nil
}

// StockSnapshot loads current available quantities for a set of items in one
// read, keyed by item ID
func (s *LedgerService) StockSnapshot(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	items, err := s.itemRepo.FindByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	snapshot := make(map[uuid.UUID]decimal.Decimal, len(items))
	for i := range items {
		snapshot[items[i].ID] = items[i].AvailableQuantity
	}
	return snapshot, nil
}

func metaFromRequest(req StockRequest) MovementMeta {
	return MovementMeta{
		Reference: req.Reference,
		Reason:    req.Reason,
		ChallanID: req.ChallanID,
		ProjectID: req.ProjectID,
		SiteID:    req.SiteID,
	}
}
