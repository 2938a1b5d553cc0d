package dispatch

import (
	"context"

	appinventory "github.com/fieldstock/backend/internal/application/inventory"
	"github.com/fieldstock/backend/internal/domain/dispatch"
)

// TransactionScope provides transactional access to the dispatch
// repositories. Challan operations mutate stock, deployments and the challan
// itself as one atomic unit, so the dispatch scope widens the ledger scope
// with the challan and return-record repositories.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides every repository a dispatch operation
// may touch within one transaction
type TransactionalRepositories interface {
	appinventory.TransactionalRepositories
	// ChallanRepo returns the challan repository scoped to the current transaction
	ChallanRepo() dispatch.ChallanRepository
	// ReturnRecordRepo returns the return record repository scoped to the current transaction
	ReturnRecordRepo() dispatch.ReturnRecordRepository
}
