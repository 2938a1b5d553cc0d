package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appdispatch "github.com/fieldstock/backend/internal/application/dispatch"
	appinventory "github.com/fieldstock/backend/internal/application/inventory"
	"github.com/fieldstock/backend/internal/domain/dispatch"
	"github.com/fieldstock/backend/internal/domain/inventory"
	"github.com/fieldstock/backend/internal/domain/shared"
	"github.com/fieldstock/backend/internal/domain/site"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&inventory.Item{},
		&inventory.StockMovement{},
		&site.SiteDeployment{},
		&dispatch.Challan{},
		&dispatch.ChallanItem{},
		&dispatch.ReturnRecord{},
		&challanCounter{},
	)
	require.NoError(t, err)

	return db
}

func seedItem(t *testing.T, db *gorm.DB, sku string, quantity int64) *inventory.Item {
	item, err := inventory.NewItem(sku, "Test "+sku)
	require.NoError(t, err)
	require.NoError(t, item.ReceiveStock(decimal.NewFromInt(quantity)))

	repo := NewGormItemRepository(db)
	require.NoError(t, repo.Save(context.Background(), item))
	return item
}

func TestGormItemRepository_RoundTrip(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormItemRepository(db)
	ctx := context.Background()

	seeded := seedItem(t, db, "SCF-001", 40)

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, "SCF-001", found.SKU)
		assert.True(t, found.AvailableQuantity.Equal(decimal.NewFromInt(40)))
		assert.Equal(t, inventory.ConditionGood, found.Condition)
	})

	t.Run("finds by sku", func(t *testing.T) {
		found, err := repo.FindBySKU(ctx, "SCF-001")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, found.ID)
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("finds by ids", func(t *testing.T) {
		other := seedItem(t, db, "SCF-002", 10)
		items, err := repo.FindByIDs(ctx, []uuid.UUID{seeded.ID, other.ID})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})
}

func TestGormItemRepository_OptimisticLockOnRealDB(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormItemRepository(db)
	ctx := context.Background()

	seeded := seedItem(t, db, "PRP-001", 100)

	first, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)

	require.NoError(t, first.Reserve(decimal.NewFromInt(30)))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	require.NoError(t, second.Reserve(decimal.NewFromInt(30)))
	err = repo.SaveWithLock(ctx, second)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, shared.CodeOptimisticLockFailed, domainErr.Code)

	// The stale writer lost; only the first reservation landed.
	current, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.True(t, current.AvailableQuantity.Equal(decimal.NewFromInt(70)))
}

func TestGormLedgerScope_RollsBackOnError(t *testing.T) {
	db := setupLedgerTestDB(t)
	scope := NewGormLedgerScope(db)
	ctx := context.Background()

	seeded := seedItem(t, db, "CPL-001", 25)
	boom := errors.New("downstream failure")

	err := scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		item, err := repos.ItemRepo().FindByID(ctx, seeded.ID)
		if err != nil {
			return err
		}
		if err := item.Reserve(decimal.NewFromInt(25)); err != nil {
			return err
		}
		if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
			return err
		}

		movement, err := inventory.NewStockMovement(item.ID, inventory.MovementOutward,
			decimal.NewFromInt(25), decimal.NewFromInt(25), decimal.Zero)
		if err != nil {
			return err
		}
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Both writes rolled back together.
	item, err := NewGormItemRepository(db).FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.True(t, item.AvailableQuantity.Equal(decimal.NewFromInt(25)))

	count, err := NewGormStockMovementRepository(db).CountByItem(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestGormStockMovementRepository_AppendAndQuery(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormStockMovementRepository(db)
	ctx := context.Background()

	seeded := seedItem(t, db, "BRC-001", 60)
	challanID := uuid.New()

	outward, err := inventory.NewStockMovement(seeded.ID, inventory.MovementOutward,
		decimal.NewFromInt(20), decimal.NewFromInt(60), decimal.NewFromInt(40))
	require.NoError(t, err)
	outward.WithChallan(challanID).WithReference("CH-2026-00001")
	require.NoError(t, repo.Create(ctx, outward))

	inward, err := inventory.NewStockMovement(seeded.ID, inventory.MovementInward,
		decimal.NewFromInt(20), decimal.NewFromInt(40), decimal.NewFromInt(60))
	require.NoError(t, err)
	inward.WithChallan(challanID)
	require.NoError(t, repo.Create(ctx, inward))

	t.Run("finds by item", func(t *testing.T) {
		movements, err := repo.FindByItem(ctx, seeded.ID, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Len(t, movements, 2)
	})

	t.Run("finds by challan", func(t *testing.T) {
		movements, err := repo.FindByChallan(ctx, challanID)
		require.NoError(t, err)
		assert.Len(t, movements, 2)
	})

	t.Run("counts by item", func(t *testing.T) {
		count, err := repo.CountByItem(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestGormChallanRepository_NumberSequence(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormChallanRepository(db, "CH")
	ctx := context.Background()

	year := time.Now().Year()

	first, err := repo.NextChallanNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CH-%d-00001", year), first)

	second, err := repo.NextChallanNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CH-%d-00002", year), second)
}

func TestGormChallanRepository_SaveAndFind(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormChallanRepository(db, "CH")
	ctx := context.Background()

	itemA := seedItem(t, db, "SCF-010", 50)
	itemB := seedItem(t, db, "PRP-010", 50)

	challan, err := dispatch.NewChallan("CH-2026-00007", uuid.New(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, challan.AddItem(itemA.ID, decimal.NewFromInt(12)))
	require.NoError(t, challan.AddItem(itemB.ID, decimal.NewFromInt(8)))
	require.NoError(t, repo.Save(ctx, challan))

	t.Run("finds by number with lines", func(t *testing.T) {
		found, err := repo.FindByNumber(ctx, "CH-2026-00007")
		require.NoError(t, err)
		assert.Equal(t, challan.ID, found.ID)
		assert.Equal(t, dispatch.StatusDraft, found.Status)
		require.Len(t, found.Items, 2)
		assert.True(t, found.OutstandingQuantity().Equal(decimal.NewFromInt(20)))
	})

	t.Run("unknown number returns not found", func(t *testing.T) {
		_, err := repo.FindByNumber(ctx, "CH-2026-99999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// A return submission bumps the challan version once per settled line, so
// the guarded save must compare against the version read at load time.
// Settling several lines in one submission exercises exactly that.
func TestReturnSettlement_MultiLineOnRealDB(t *testing.T) {
	db := setupLedgerTestDB(t)
	ctx := context.Background()

	scope := NewGormDispatchScope(db, "CH")
	challanRepo := NewGormChallanRepository(db, "CH")
	challans := appdispatch.NewChallanService(scope, challanRepo)
	returns := appdispatch.NewReturnService(scope, challanRepo, NewGormReturnRecordRepository(db))

	itemA := seedItem(t, db, "SCF-020", 30)
	itemB := seedItem(t, db, "PRP-020", 30)

	transport := appdispatch.TransportRequest{VehicleNumber: "MH-12-AB-1234", DriverName: "R. Sharma"}
	sent, err := challans.CreateChallan(ctx, appdispatch.CreateChallanRequest{
		ProjectID: uuid.New(),
		SiteID:    uuid.New(),
		Lines: []appdispatch.ChallanLineRequest{
			{ItemID: itemA.ID, Quantity: decimal.NewFromInt(12)},
			{ItemID: itemB.ID, Quantity: decimal.NewFromInt(8)},
		},
		Transport: &transport,
	})
	require.NoError(t, err)
	require.Equal(t, string(dispatch.StatusSent), sent.Status)
	require.Len(t, sent.Items, 2)

	resp, err := returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
		Lines: []appdispatch.ReturnLineRequest{
			{
				ChallanItemID: sent.Items[0].ID,
				Entries: []appdispatch.ReturnEntryRequest{
					{Quantity: decimal.NewFromInt(12), Outcome: string(dispatch.OutcomeReturned)},
				},
			},
			{
				ChallanItemID: sent.Items[1].ID,
				Entries: []appdispatch.ReturnEntryRequest{
					{Quantity: decimal.NewFromInt(8), Outcome: string(dispatch.OutcomeReturned)},
				},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, string(dispatch.StatusReturned), resp.Status)
	assert.True(t, resp.Outstanding.IsZero())

	itemRepo := NewGormItemRepository(db)
	restoredA, err := itemRepo.FindByID(ctx, itemA.ID)
	require.NoError(t, err)
	assert.True(t, restoredA.AvailableQuantity.Equal(decimal.NewFromInt(30)))
	restoredB, err := itemRepo.FindByID(ctx, itemB.ID)
	require.NoError(t, err)
	assert.True(t, restoredB.AvailableQuantity.Equal(decimal.NewFromInt(30)))

	stored, err := challanRepo.FindByID(ctx, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusReturned, stored.Status)
	require.NotNil(t, stored.ClosedAt)
}
