package persistence

import (
	"context"

	"gorm.io/gorm"

	appdispatch "github.com/fieldstock/backend/internal/application/dispatch"
	appinventory "github.com/fieldstock/backend/internal/application/inventory"
	"github.com/fieldstock/backend/internal/domain/dispatch"
	"github.com/fieldstock/backend/internal/domain/inventory"
	"github.com/fieldstock/backend/internal/domain/site"
)

// GormLedgerScope implements the ledger TransactionScope using GORM
// transactions
type GormLedgerScope struct {
	db *gorm.DB
}

// NewGormLedgerScope creates a new GormLedgerScope
func NewGormLedgerScope(db *gorm.DB) *GormLedgerScope {
	return &GormLedgerScope{db: db}
}

// Execute runs the given function within a database transaction. The
// function's error rolls the transaction back; success commits it.
func (s *GormLedgerScope) Execute(ctx context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedgerRepositories{tx: tx})
	})
}

// gormLedgerRepositories provides ledger repositories scoped to one
// transaction
type gormLedgerRepositories struct {
	tx           *gorm.DB
	numberPrefix string
}

// ItemRepo returns the item repository scoped to the current transaction
func (r *gormLedgerRepositories) ItemRepo() inventory.ItemRepository {
	return NewGormItemRepository(r.tx)
}

// MovementRepo returns the movement repository scoped to the current transaction
func (r *gormLedgerRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// DeploymentRepo returns the deployment repository scoped to the current transaction
func (r *gormLedgerRepositories) DeploymentRepo() site.DeploymentRepository {
	return NewGormDeploymentRepository(r.tx)
}

// GormDispatchScope implements the dispatch TransactionScope using GORM
// transactions. It widens the ledger scope with challan and return
// repositories so a dispatch or return commits as one unit.
type GormDispatchScope struct {
	db           *gorm.DB
	numberPrefix string
}

// NewGormDispatchScope creates a new GormDispatchScope
func NewGormDispatchScope(db *gorm.DB, numberPrefix string) *GormDispatchScope {
	return &GormDispatchScope{db: db, numberPrefix: numberPrefix}
}

// Execute runs the given function within a database transaction
func (s *GormDispatchScope) Execute(ctx context.Context, fn func(repos appdispatch.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormDispatchRepositories{
			gormLedgerRepositories: gormLedgerRepositories{tx: tx, numberPrefix: s.numberPrefix},
		})
	})
}

type gormDispatchRepositories struct {
	gormLedgerRepositories
}

// ChallanRepo returns the challan repository scoped to the current transaction
func (r *gormDispatchRepositories) ChallanRepo() dispatch.ChallanRepository {
	return NewGormChallanRepository(r.tx, r.numberPrefix)
}

// ReturnRecordRepo returns the return record repository scoped to the current transaction
func (r *gormDispatchRepositories) ReturnRecordRepo() dispatch.ReturnRecordRepository {
	return NewGormReturnRecordRepository(r.tx)
}

// Ensure the scopes implement the application interfaces
var (
	_ appinventory.TransactionScope          = (*GormLedgerScope)(nil)
	_ appinventory.TransactionalRepositories = (*gormLedgerRepositories)(nil)
	_ appdispatch.TransactionScope           = (*GormDispatchScope)(nil)
	_ appdispatch.TransactionalRepositories  = (*gormDispatchRepositories)(nil)
)
