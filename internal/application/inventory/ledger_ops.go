package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldstock/backend/internal/domain/inventory"
	"github.com/fieldstock/backend/internal/domain/shared"
)

// RetryOnConflict re-runs op while it fails the optimistic version check, up
// to maxRetries attempts. Each attempt re-reads current state inside a fresh
// transaction, so a retry never applies a stale decrement. An exhausted bound
// surfaces as CONCURRENCY_CONFLICT.
func RetryOnConflict(maxRetries int, op func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = op()
		if err == nil || shared.ErrorCode(err) != shared.CodeOptimisticLockFailed {
			return err
		}
	}
	return shared.NewDomainError(shared.CodeConcurrencyConflict,
		fmt.Sprintf("Operation conflicted with concurrent stock changes after %d attempts", maxRetries))
}

// MovementMeta carries the optional context recorded on a ledger entry
type MovementMeta struct {
	Reference string
	Reason    string
	ChallanID *uuid.UUID
	ProjectID *uuid.UUID
	SiteID    *uuid.UUID
}

func (m MovementMeta) apply(movement *inventory.StockMovement) *inventory.StockMovement {
	if m.Reference != "" {
		movement.WithReference(m.Reference)
	}
	if m.Reason != "" {
		movement.WithReason(m.Reason)
	}
	if m.ChallanID != nil {
		movement.WithChallan(*m.ChallanID)
	}
	if m.ProjectID != nil {
		movement.WithProject(*m.ProjectID)
	}
	if m.SiteID != nil {
		movement.WithSite(*m.SiteID)
	}
	return movement
}

// The *Tx helpers apply one ledger mutation inside an already-open
// transaction: load the item, mutate it, save it under its version check and
// append exactly one movement. They are shared by the ledger service and the
// dispatch services, which compose several of them into one transaction.

// ReserveStockTx reserves available stock and records an OUTWARD movement
func ReserveStockTx(
	ctx context.Context,
	repos TransactionalRepositories,
	itemID uuid.UUID,
	quantity decimal.Decimal,
	meta MovementMeta,
) (*inventory.Item, error) {
	item, err := repos.ItemRepo().FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	before := item.AvailableQuantity
	if err := item.Reserve(quantity); err != nil {
		return nil, err
	}
	if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
		return nil, err
	}

	movement, err := inventory.NewStockMovement(item.ID, inventory.MovementOutward,
		quantity, before, item.AvailableQuantity)
	if err != nil {
		return nil, err
	}
	if err := repos.MovementRepo().Create(ctx, meta.apply(movement)); err != nil {
		return nil, err
	}
	return item, nil
}

// ReleaseStockTx returns stock to the available pool and records an INWARD movement
func ReleaseStockTx(
	ctx context.Context,
	repos TransactionalRepositories,
	itemID uuid.UUID,
	quantity decimal.Decimal,
	meta MovementMeta,
) (*inventory.Item, error) {
	item, err := repos.ItemRepo().FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	before := item.AvailableQuantity
	if err := item.Release(quantity); err != nil {
		return nil, err
	}
	if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
		return nil, err
	}

	movement, err := inventory.NewStockMovement(item.ID, inventory.MovementInward,
		quantity, before, item.AvailableQuantity)
	if err != nil {
		return nil, err
	}
	if err := repos.MovementRepo().Create(ctx, meta.apply(movement)); err != nil {
		return nil, err
	}
	return item, nil
}

// WriteOffStockTx permanently removes units from the available pool and
// records a SCRAP movement
func WriteOffStockTx(
	ctx context.Context,
	repos TransactionalRepositories,
	itemID uuid.UUID,
	quantity decimal.Decimal,
	meta MovementMeta,
) (*inventory.Item, error) {
	item, err := repos.ItemRepo().FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	before := item.AvailableQuantity
	if err := item.WriteOff(quantity); err != nil {
		return nil, err
	}
	if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
		return nil, err
	}

	movement, err := inventory.NewStockMovement(item.ID, inventory.MovementScrap,
		quantity, before, item.AvailableQuantity)
	if err != nil {
		return nil, err
	}
	if err := repos.MovementRepo().Create(ctx, meta.apply(movement)); err != nil {
		return nil, err
	}
	return item, nil
}

// WriteOffDeployedTx permanently removes units that are out at a site. The
// available pool is untouched (the units never came back), so the movement's
// balances are equal; only the owned total shrinks.
func WriteOffDeployedTx(
	ctx context.Context,
	repos TransactionalRepositories,
	itemID uuid.UUID,
	quantity decimal.Decimal,
	meta MovementMeta,
) (*inventory.Item, error) {
	item, err := repos.ItemRepo().FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	movement, err := inventory.NewStockMovement(item.ID, inventory.MovementScrap,
		quantity, item.AvailableQuantity, item.AvailableQuantity)
	if err != nil {
		return nil, err
	}
	if err := repos.MovementRepo().Create(ctx, meta.apply(movement)); err != nil {
		return nil, err
	}
	return item, nil
}

// MoveToRepairTx places returned units into the repair pool and records a
// REPAIR movement. The available pool is unaffected until the repair completes.
func MoveToRepairTx(
	ctx context.Context,
	repos TransactionalRepositories,
	itemID uuid.UUID,
	quantity decimal.Decimal,
	meta MovementMeta,
) (*inventory.Item, error) {
	item, err := repos.ItemRepo().FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if err := item.MoveToRepair(quantity); err != nil {
		return nil, err
	}
	if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
		return nil, err
	}

	movement, err := inventory.NewStockMovement(item.ID, inventory.MovementRepair,
		quantity, item.AvailableQuantity, item.AvailableQuantity)
	if err != nil {
		return nil, err
	}
	if err := repos.MovementRepo().Create(ctx, meta.apply(movement)); err != nil {
		return nil, err
	}
	return item, nil
}

// CompleteRepairTx takes units out of the repair pool. Restocked units
// re-enter the available pool with an INWARD movement; scrapped units leave
// the owned total with a SCRAP movement.
func CompleteRepairTx(
	ctx context.Context,
	repos TransactionalRepositories,
	itemID uuid.UUID,
	quantity decimal.Decimal,
	restock bool,
	meta MovementMeta,
) (*inventory.Item, error) {
	item, err := repos.ItemRepo().FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	before := item.AvailableQuantity
	if err := item.CompleteRepair(quantity, restock); err != nil {
		return nil, err
	}
	if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
		return nil, err
	}

	kind := inventory.MovementScrap
	if restock {
		kind = inventory.MovementInward
	}
	movement, err := inventory.NewStockMovement(item.ID, kind,
		quantity, before, item.AvailableQuantity)
	if err != nil {
		return nil, err
	}
	if err := repos.MovementRepo().Create(ctx, meta.apply(movement)); err != nil {
		return nil, err
	}
	return item, nil
}

// ReceivePurchaseTx brings purchased units into the available pool and
// records a PURCHASE movement
func ReceivePurchaseTx(
	ctx context.Context,
	repos TransactionalRepositories,
	itemID uuid.UUID,
	quantity decimal.Decimal,
	meta MovementMeta,
) (*inventory.Item, error) {
	item, err := repos.ItemRepo().FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	before := item.AvailableQuantity
	if err := item.ReceiveStock(quantity); err != nil {
		return nil, err
	}
	if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
		return nil, err
	}

	movement, err := inventory.NewStockMovement(item.ID, inventory.MovementPurchase,
		quantity, before, item.AvailableQuantity)
	if err != nil {
		return nil, err
	}
	if err := repos.MovementRepo().Create(ctx, meta.apply(movement)); err != nil {
		return nil, err
	}
	return item, nil
}

// RecordTransferTx logs a site-to-site movement of deployed stock. Neither
// pool changes; the deployment rows carry the actual quantities.
func RecordTransferTx(
	ctx context.Context,
	repos TransactionalRepositories,
	itemID uuid.UUID,
	quantity decimal.Decimal,
	meta MovementMeta,
) error {
	item, err := repos.ItemRepo().FindByID(ctx, itemID)
	if err != nil {
		return err
	}

	movement, err := inventory.NewStockMovement(item.ID, inventory.MovementTransfer,
		quantity, item.AvailableQuantity, item.AvailableQuantity)
	if err != nil {
		return err
	}
	return repos.MovementRepo().Create(ctx, meta.apply(movement))
}
