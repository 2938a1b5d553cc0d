package dispatch_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldstock/backend/internal/application/apptest"
	appdispatch "github.com/fieldstock/backend/internal/application/dispatch"
	"github.com/fieldstock/backend/internal/domain/dispatch"
	"github.com/fieldstock/backend/internal/domain/inventory"
	"github.com/fieldstock/backend/internal/domain/shared"
)

type dispatchFixture struct {
	store    *apptest.MemoryStore
	challans *appdispatch.ChallanService
	returns  *appdispatch.ReturnService
}

func newDispatchFixture() *dispatchFixture {
	store := apptest.NewMemoryStore()
	repos := apptest.NewRepos(store)
	scope := apptest.NewDispatchScope(store)
	return &dispatchFixture{
		store:    store,
		challans: appdispatch.NewChallanService(scope, repos.ChallanRepo()),
		returns:  appdispatch.NewReturnService(scope, repos.ChallanRepo(), repos.ReturnRecordRepo()),
	}
}

func testTransportRequest() appdispatch.TransportRequest {
	return appdispatch.TransportRequest{
		VehicleNumber: "MH-12-AB-1234",
		DriverName:    "R. Sharma",
	}
}

// dispatched seeds one item per quantity and creates a SENT challan
// carrying one line per item. Returns the challan response and item IDs.
func (f *dispatchFixture) dispatched(t *testing.T, quantities ...int64) (*appdispatch.ChallanResponse, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	itemIDs := make([]uuid.UUID, len(quantities))
	lines := make([]appdispatch.ChallanLineRequest, len(quantities))
	for i, qty := range quantities {
		item := f.store.SeedItem(uuid.NewString()[:8], qty*2)
		itemIDs[i] = item.ID
		lines[i] = appdispatch.ChallanLineRequest{ItemID: item.ID, Quantity: decimal.NewFromInt(qty)}
	}

	transport := testTransportRequest()
	resp, err := f.challans.CreateChallan(ctx, appdispatch.CreateChallanRequest{
		ProjectID: uuid.New(),
		SiteID:    uuid.New(),
		Lines:     lines,
		Transport: &transport,
	})
	require.NoError(t, err)
	require.Equal(t, string(dispatch.StatusSent), resp.Status)
	return resp, itemIDs
}

func (f *dispatchFixture) availableOf(t *testing.T, itemID uuid.UUID) decimal.Decimal {
	t.Helper()
	item, ok := f.store.Items[itemID]
	require.True(t, ok)
	return item.AvailableQuantity
}

func (f *dispatchFixture) deployedAt(siteID, itemID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, d := range f.store.Deployments {
		if d.SiteID == siteID && d.ItemID == itemID && d.IsOpen() {
			total = total.Add(d.QuantityDeployed)
		}
	}
	return total
}

func TestChallanService_CreateChallan(t *testing.T) {
	ctx := context.Background()

	t.Run("draft has no stock impact", func(t *testing.T) {
		f := newDispatchFixture()
		item := f.store.SeedItem("SCAF-100", 10)

		resp, err := f.challans.CreateChallan(ctx, appdispatch.CreateChallanRequest{
			ProjectID: uuid.New(),
			SiteID:    uuid.New(),
			Lines:     []appdispatch.ChallanLineRequest{{ItemID: item.ID, Quantity: decimal.NewFromInt(4)}},
		})

		require.NoError(t, err)
		assert.Equal(t, string(dispatch.StatusDraft), resp.Status)
		assert.NotEmpty(t, resp.ChallanNumber)
		assert.True(t, f.availableOf(t, item.ID).Equal(decimal.NewFromInt(10)))
		assert.Empty(t, f.store.Movements)
	})

	t.Run("direct dispatch reserves every line and opens deployments", func(t *testing.T) {
		f := newDispatchFixture()
		itemA := f.store.SeedItem("SCAF-100", 10)
		itemB := f.store.SeedItem("PROP-200", 6)
		siteID := uuid.New()

		transport := testTransportRequest()
		resp, err := f.challans.CreateChallan(ctx, appdispatch.CreateChallanRequest{
			ProjectID: uuid.New(),
			SiteID:    siteID,
			Lines: []appdispatch.ChallanLineRequest{
				{ItemID: itemA.ID, Quantity: decimal.NewFromInt(4)},
				{ItemID: itemB.ID, Quantity: decimal.NewFromInt(2)},
			},
			Transport: &transport,
		})

		require.NoError(t, err)
		assert.Equal(t, string(dispatch.StatusSent), resp.Status)
		require.NotNil(t, resp.SentAt)
		require.NotNil(t, resp.Transport)
		assert.Equal(t, "MH-12-AB-1234", resp.Transport.VehicleNumber)

		assert.True(t, f.availableOf(t, itemA.ID).Equal(decimal.NewFromInt(6)))
		assert.True(t, f.availableOf(t, itemB.ID).Equal(decimal.NewFromInt(4)))
		assert.True(t, f.deployedAt(siteID, itemA.ID).Equal(decimal.NewFromInt(4)))
		assert.True(t, f.deployedAt(siteID, itemB.ID).Equal(decimal.NewFromInt(2)))

		require.Len(t, f.store.Movements, 2)
		for _, m := range f.store.Movements {
			assert.Equal(t, inventory.MovementOutward, m.Kind)
			assert.Equal(t, resp.ChallanNumber, m.Reference)
		}
	})

	t.Run("dispatch is all or nothing when one line is short", func(t *testing.T) {
		f := newDispatchFixture()
		itemA := f.store.SeedItem("SCAF-100", 10)
		itemB := f.store.SeedItem("PROP-200", 1)
		siteID := uuid.New()

		transport := testTransportRequest()
		_, err := f.challans.CreateChallan(ctx, appdispatch.CreateChallanRequest{
			ProjectID: uuid.New(),
			SiteID:    siteID,
			Lines: []appdispatch.ChallanLineRequest{
				{ItemID: itemA.ID, Quantity: decimal.NewFromInt(4)},
				{ItemID: itemB.ID, Quantity: decimal.NewFromInt(2)},
			},
			Transport: &transport,
		})

		require.Error(t, err)
		assert.Equal(t, shared.CodeInsufficientStock, shared.ErrorCode(err))
		assert.True(t, f.availableOf(t, itemA.ID).Equal(decimal.NewFromInt(10)))
		assert.True(t, f.availableOf(t, itemB.ID).Equal(decimal.NewFromInt(1)))
		assert.Empty(t, f.store.Movements)
		assert.True(t, f.deployedAt(siteID, itemA.ID).IsZero())
	})

	t.Run("failed dispatch does not burn a challan number", func(t *testing.T) {
		f := newDispatchFixture()
		item := f.store.SeedItem("SCAF-100", 2)
		transport := testTransportRequest()

		_, err := f.challans.CreateChallan(ctx, appdispatch.CreateChallanRequest{
			ProjectID: uuid.New(),
			SiteID:    uuid.New(),
			Lines:     []appdispatch.ChallanLineRequest{{ItemID: item.ID, Quantity: decimal.NewFromInt(5)}},
			Transport: &transport,
		})
		require.Error(t, err)

		resp, err := f.challans.CreateChallan(ctx, appdispatch.CreateChallanRequest{
			ProjectID: uuid.New(),
			SiteID:    uuid.New(),
			Lines:     []appdispatch.ChallanLineRequest{{ItemID: item.ID, Quantity: decimal.NewFromInt(2)}},
			Transport: &transport,
		})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(resp.ChallanNumber, "-00001"),
			"the number allocated by the failed create rolls back with its transaction")
	})
}

func TestChallanService_DraftEditing(t *testing.T) {
	ctx := context.Background()

	t.Run("adds updates and removes lines", func(t *testing.T) {
		f := newDispatchFixture()
		item := f.store.SeedItem("SCAF-100", 10)
		draft, err := f.challans.CreateChallan(ctx, appdispatch.CreateChallanRequest{
			ProjectID: uuid.New(), SiteID: uuid.New(),
		})
		require.NoError(t, err)

		resp, err := f.challans.UpdateDraftLine(ctx, draft.ID, appdispatch.ChallanLineRequest{
			ItemID: item.ID, Quantity: decimal.NewFromInt(3),
		})
		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.True(t, resp.Items[0].Quantity.Equal(decimal.NewFromInt(3)))

		resp, err = f.challans.UpdateDraftLine(ctx, draft.ID, appdispatch.ChallanLineRequest{
			ItemID: item.ID, Quantity: decimal.NewFromInt(5),
		})
		require.NoError(t, err)
		assert.True(t, resp.Items[0].Quantity.Equal(decimal.NewFromInt(5)))

		resp, err = f.challans.UpdateDraftLine(ctx, draft.ID, appdispatch.ChallanLineRequest{
			ItemID: item.ID, Quantity: decimal.Zero,
		})
		require.NoError(t, err)
		assert.Empty(t, resp.Items)
	})

	t.Run("rejects edits after dispatch", func(t *testing.T) {
		f := newDispatchFixture()
		sent, itemIDs := f.dispatched(t, 4)

		_, err := f.challans.UpdateDraftLine(ctx, sent.ID, appdispatch.ChallanLineRequest{
			ItemID: itemIDs[0], Quantity: decimal.NewFromInt(9),
		})

		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})
}

func TestChallanService_SendChallan(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches a draft", func(t *testing.T) {
		f := newDispatchFixture()
		item := f.store.SeedItem("SCAF-100", 10)
		siteID := uuid.New()
		draft, err := f.challans.CreateChallan(ctx, appdispatch.CreateChallanRequest{
			ProjectID: uuid.New(),
			SiteID:    siteID,
			Lines:     []appdispatch.ChallanLineRequest{{ItemID: item.ID, Quantity: decimal.NewFromInt(4)}},
		})
		require.NoError(t, err)

		resp, err := f.challans.SendChallan(ctx, draft.ID, testTransportRequest(), nil)

		require.NoError(t, err)
		assert.Equal(t, string(dispatch.StatusSent), resp.Status)
		assert.True(t, f.availableOf(t, item.ID).Equal(decimal.NewFromInt(6)))
		assert.True(t, f.deployedAt(siteID, item.ID).Equal(decimal.NewFromInt(4)))
	})

	t.Run("rejects an empty draft", func(t *testing.T) {
		f := newDispatchFixture()
		draft, err := f.challans.CreateChallan(ctx, appdispatch.CreateChallanRequest{
			ProjectID: uuid.New(), SiteID: uuid.New(),
		})
		require.NoError(t, err)

		_, err = f.challans.SendChallan(ctx, draft.ID, testTransportRequest(), nil)

		require.Error(t, err)
		assert.Equal(t, shared.CodeValidationError, shared.ErrorCode(err))
	})
}

func TestChallanService_CancelChallan(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelling a draft moves no stock", func(t *testing.T) {
		f := newDispatchFixture()
		item := f.store.SeedItem("SCAF-100", 10)
		draft, err := f.challans.CreateChallan(ctx, appdispatch.CreateChallanRequest{
			ProjectID: uuid.New(),
			SiteID:    uuid.New(),
			Lines:     []appdispatch.ChallanLineRequest{{ItemID: item.ID, Quantity: decimal.NewFromInt(4)}},
		})
		require.NoError(t, err)

		resp, err := f.challans.CancelChallan(ctx, draft.ID, appdispatch.CancelChallanRequest{Reason: "Site postponed"})

		require.NoError(t, err)
		assert.Equal(t, string(dispatch.StatusCancelled), resp.Status)
		assert.Empty(t, f.store.Movements)
		assert.True(t, f.availableOf(t, item.ID).Equal(decimal.NewFromInt(10)))
	})

	t.Run("cancelling a sent challan releases the outstanding quantity", func(t *testing.T) {
		f := newDispatchFixture()
		sent, itemIDs := f.dispatched(t, 4)
		itemID := itemIDs[0]
		before := f.availableOf(t, itemID)

		resp, err := f.challans.CancelChallan(ctx, sent.ID, appdispatch.CancelChallanRequest{Reason: "Wrong site"})

		require.NoError(t, err)
		assert.Equal(t, string(dispatch.StatusCancelled), resp.Status)
		assert.Equal(t, "Wrong site", resp.CancelReason)
		assert.True(t, f.availableOf(t, itemID).Equal(before.Add(decimal.NewFromInt(4))))
		assert.True(t, f.deployedAt(sent.SiteID, itemID).IsZero())

		// one OUTWARD from dispatch, one INWARD from cancellation
		require.Len(t, f.store.Movements, 2)
		assert.Equal(t, inventory.MovementInward, f.store.Movements[1].Kind)
	})

	t.Run("cancelling after a partial return releases only what is still out", func(t *testing.T) {
		f := newDispatchFixture()
		sent, itemIDs := f.dispatched(t, 4, 6)

		// settle the first line fully, leave the second outstanding
		_, err := f.returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: sent.Items[0].ID,
				Entries: []appdispatch.ReturnEntryRequest{
					{Quantity: decimal.NewFromInt(4), Outcome: string(dispatch.OutcomeReturned)},
				},
			}},
		})
		require.NoError(t, err)

		settledBefore := f.availableOf(t, itemIDs[0])
		outstandingBefore := f.availableOf(t, itemIDs[1])

		resp, err := f.challans.CancelChallan(ctx, sent.ID, appdispatch.CancelChallanRequest{Reason: "Project halted"})

		require.NoError(t, err)
		assert.Equal(t, string(dispatch.StatusCancelled), resp.Status)
		assert.True(t, f.availableOf(t, itemIDs[0]).Equal(settledBefore),
			"settled line must not be released again")
		assert.True(t, f.availableOf(t, itemIDs[1]).Equal(outstandingBefore.Add(decimal.NewFromInt(6))))
		assert.True(t, f.deployedAt(sent.SiteID, itemIDs[1]).IsZero())
	})

	t.Run("requires a reason", func(t *testing.T) {
		f := newDispatchFixture()
		sent, _ := f.dispatched(t, 4)

		_, err := f.challans.CancelChallan(ctx, sent.ID, appdispatch.CancelChallanRequest{})

		require.Error(t, err)
		assert.Equal(t, shared.CodeValidationError, shared.ErrorCode(err))
	})

	t.Run("rejects cancelling a settled challan", func(t *testing.T) {
		f := newDispatchFixture()
		sent, _ := f.dispatched(t, 4)

		_, err := f.returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: sent.Items[0].ID,
				Entries: []appdispatch.ReturnEntryRequest{
					{Quantity: decimal.NewFromInt(4), Outcome: string(dispatch.OutcomeReturned)},
				},
			}},
		})
		require.NoError(t, err)

		_, err = f.challans.CancelChallan(ctx, sent.ID, appdispatch.CancelChallanRequest{Reason: "Too late"})
		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})
}
