package dispatch_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appdispatch "github.com/fieldstock/backend/internal/application/dispatch"
	"github.com/fieldstock/backend/internal/domain/dispatch"
	"github.com/fieldstock/backend/internal/domain/inventory"
	"github.com/fieldstock/backend/internal/domain/shared"
)

func entry(qty int64, outcome dispatch.ReturnOutcome) appdispatch.ReturnEntryRequest {
	return appdispatch.ReturnEntryRequest{Quantity: decimal.NewFromInt(qty), Outcome: string(outcome)}
}

func movementKinds(f *dispatchFixture) []inventory.MovementKind {
	kinds := make([]inventory.MovementKind, len(f.store.Movements))
	for i, m := range f.store.Movements {
		kinds[i] = m.Kind
	}
	return kinds
}

func TestReturnService_SubmitReturn(t *testing.T) {
	ctx := context.Background()

	t.Run("full return restores stock and closes the challan", func(t *testing.T) {
		f := newDispatchFixture()
		sent, itemIDs := f.dispatched(t, 4)
		itemID := itemIDs[0]
		before := f.availableOf(t, itemID)

		resp, err := f.returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: sent.Items[0].ID,
				Entries:       []appdispatch.ReturnEntryRequest{entry(4, dispatch.OutcomeReturned)},
			}},
		})

		require.NoError(t, err)
		assert.Equal(t, string(dispatch.StatusReturned), resp.Status)
		require.NotNil(t, resp.ClosedAt)
		assert.True(t, resp.Outstanding.IsZero())
		assert.True(t, f.availableOf(t, itemID).Equal(before.Add(decimal.NewFromInt(4))))
		assert.True(t, f.deployedAt(sent.SiteID, itemID).IsZero())

		records, err := f.returns.ListReturns(ctx, sent.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, string(dispatch.OutcomeReturned), records[0].Outcome)
	})

	t.Run("mixed outcomes split across warehouse repair and scrap", func(t *testing.T) {
		f := newDispatchFixture()
		sent, itemIDs := f.dispatched(t, 10)
		itemID := itemIDs[0]
		availableBefore := f.availableOf(t, itemID)

		resp, err := f.returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: sent.Items[0].ID,
				Entries: []appdispatch.ReturnEntryRequest{
					entry(6, dispatch.OutcomeReturned),
					entry(3, dispatch.OutcomeRepair),
					entry(1, dispatch.OutcomeScrap),
				},
			}},
		})

		require.NoError(t, err)
		assert.Equal(t, string(dispatch.StatusReturned), resp.Status)

		item := f.store.Items[itemID]
		assert.True(t, item.AvailableQuantity.Equal(availableBefore.Add(decimal.NewFromInt(6))))
		assert.True(t, item.RepairQuantity.Equal(decimal.NewFromInt(3)))
		assert.True(t, f.deployedAt(sent.SiteID, itemID).IsZero())

		// dispatch OUTWARD plus one movement per outcome bucket
		assert.Equal(t, []inventory.MovementKind{
			inventory.MovementOutward,
			inventory.MovementInward,
			inventory.MovementRepair,
			inventory.MovementScrap,
		}, movementKinds(f))

		records, err := f.returns.ListReturns(ctx, sent.ID)
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("scrap of deployed stock leaves availability untouched", func(t *testing.T) {
		f := newDispatchFixture()
		sent, itemIDs := f.dispatched(t, 5)
		itemID := itemIDs[0]
		availableBefore := f.availableOf(t, itemID)

		_, err := f.returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: sent.Items[0].ID,
				Entries:       []appdispatch.ReturnEntryRequest{entry(5, dispatch.OutcomeScrap)},
			}},
		})

		require.NoError(t, err)
		assert.True(t, f.availableOf(t, itemID).Equal(availableBefore))

		scrap := f.store.Movements[len(f.store.Movements)-1]
		assert.Equal(t, inventory.MovementScrap, scrap.Kind)
		assert.True(t, scrap.BalanceBefore.Equal(scrap.BalanceAfter))
	})

	t.Run("transfer moves the deployment to the target site", func(t *testing.T) {
		f := newDispatchFixture()
		sent, itemIDs := f.dispatched(t, 6)
		itemID := itemIDs[0]
		targetSite := uuid.New()
		availableBefore := f.availableOf(t, itemID)

		transfer := entry(6, dispatch.OutcomeTransferred)
		transfer.TargetSiteID = &targetSite

		resp, err := f.returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: sent.Items[0].ID,
				Entries:       []appdispatch.ReturnEntryRequest{transfer},
			}},
		})

		require.NoError(t, err)
		assert.Equal(t, string(dispatch.StatusReturned), resp.Status)
		assert.True(t, f.availableOf(t, itemID).Equal(availableBefore),
			"transferred stock never passes through the warehouse")
		assert.True(t, f.deployedAt(sent.SiteID, itemID).IsZero())
		assert.True(t, f.deployedAt(targetSite, itemID).Equal(decimal.NewFromInt(6)))

		transferMove := f.store.Movements[len(f.store.Movements)-1]
		assert.Equal(t, inventory.MovementTransfer, transferMove.Kind)
	})

	t.Run("transfer to the challan site is rejected", func(t *testing.T) {
		f := newDispatchFixture()
		sent, _ := f.dispatched(t, 6)

		transfer := entry(6, dispatch.OutcomeTransferred)
		transfer.TargetSiteID = &sent.SiteID

		_, err := f.returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: sent.Items[0].ID,
				Entries:       []appdispatch.ReturnEntryRequest{transfer},
			}},
		})

		require.Error(t, err)
		assert.Equal(t, shared.CodeValidationError, shared.ErrorCode(err))
	})

	t.Run("line total short of outstanding is a reconciliation mismatch", func(t *testing.T) {
		f := newDispatchFixture()
		sent, itemIDs := f.dispatched(t, 10)
		itemID := itemIDs[0]
		availableBefore := f.availableOf(t, itemID)

		_, err := f.returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: sent.Items[0].ID,
				Entries:       []appdispatch.ReturnEntryRequest{entry(7, dispatch.OutcomeReturned)},
			}},
		})

		require.Error(t, err)
		assert.Equal(t, shared.CodeReconciliationMismatch, shared.ErrorCode(err))
		assert.True(t, f.availableOf(t, itemID).Equal(availableBefore), "failed submission moves no stock")
		assert.True(t, f.deployedAt(sent.SiteID, itemID).Equal(decimal.NewFromInt(10)))
		assert.Len(t, f.store.Returns, 0)

		challan, getErr := f.challans.GetChallan(ctx, sent.ID)
		require.NoError(t, getErr)
		assert.Equal(t, string(dispatch.StatusSent), challan.Status)
	})

	t.Run("one submission settles multiple lines", func(t *testing.T) {
		f := newDispatchFixture()
		sent, itemIDs := f.dispatched(t, 4, 6)

		resp, err := f.returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{
				{
					ChallanItemID: sent.Items[0].ID,
					Entries:       []appdispatch.ReturnEntryRequest{entry(4, dispatch.OutcomeReturned)},
				},
				{
					ChallanItemID: sent.Items[1].ID,
					Entries:       []appdispatch.ReturnEntryRequest{entry(6, dispatch.OutcomeReturned)},
				},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, string(dispatch.StatusReturned), resp.Status)
		assert.True(t, resp.Outstanding.IsZero())
		assert.True(t, f.deployedAt(sent.SiteID, itemIDs[0]).IsZero())
		assert.True(t, f.deployedAt(sent.SiteID, itemIDs[1]).IsZero())

		records, err := f.returns.ListReturns(ctx, sent.ID)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("untouched lines keep the challan partially returned", func(t *testing.T) {
		f := newDispatchFixture()
		sent, _ := f.dispatched(t, 4, 6)

		resp, err := f.returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: sent.Items[0].ID,
				Entries:       []appdispatch.ReturnEntryRequest{entry(4, dispatch.OutcomeReturned)},
			}},
		})

		require.NoError(t, err)
		assert.Equal(t, string(dispatch.StatusPartiallyReturned), resp.Status)
		assert.True(t, resp.Outstanding.Equal(decimal.NewFromInt(6)))
		assert.Equal(t, string(dispatch.LineSettled), resp.Items[0].ReturnStatus)
		assert.Equal(t, string(dispatch.LinePending), resp.Items[1].ReturnStatus)
	})

	t.Run("second submission settles the remainder", func(t *testing.T) {
		f := newDispatchFixture()
		sent, _ := f.dispatched(t, 4, 6)

		_, err := f.returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: sent.Items[0].ID,
				Entries:       []appdispatch.ReturnEntryRequest{entry(4, dispatch.OutcomeReturned)},
			}},
		})
		require.NoError(t, err)

		resp, err := f.returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: sent.Items[1].ID,
				Entries: []appdispatch.ReturnEntryRequest{
					entry(5, dispatch.OutcomeReturned),
					entry(1, dispatch.OutcomeScrap),
				},
			}},
		})

		require.NoError(t, err)
		assert.Equal(t, string(dispatch.StatusReturned), resp.Status)
		assert.True(t, resp.Outstanding.IsZero())

		records, err := f.returns.ListReturns(ctx, sent.ID)
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("rejects returns against a draft", func(t *testing.T) {
		f := newDispatchFixture()
		item := f.store.SeedItem("SCAF-100", 10)
		draft, err := f.challans.CreateChallan(ctx, appdispatch.CreateChallanRequest{
			ProjectID: uuid.New(),
			SiteID:    uuid.New(),
			Lines:     []appdispatch.ChallanLineRequest{{ItemID: item.ID, Quantity: decimal.NewFromInt(4)}},
		})
		require.NoError(t, err)

		_, err = f.returns.SubmitReturn(ctx, draft.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: draft.Items[0].ID,
				Entries:       []appdispatch.ReturnEntryRequest{entry(4, dispatch.OutcomeReturned)},
			}},
		})

		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})

	t.Run("rejects returns against a cancelled challan", func(t *testing.T) {
		f := newDispatchFixture()
		sent, itemIDs := f.dispatched(t, 4)
		itemID := itemIDs[0]

		_, err := f.challans.CancelChallan(ctx, sent.ID, appdispatch.CancelChallanRequest{Reason: "Wrong site"})
		require.NoError(t, err)
		before := f.availableOf(t, itemID)

		_, err = f.returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: sent.Items[0].ID,
				Entries:       []appdispatch.ReturnEntryRequest{entry(4, dispatch.OutcomeReturned)},
			}},
		})

		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
		assert.True(t, f.availableOf(t, itemID).Equal(before), "rejected submission moves no stock")
		assert.Empty(t, f.store.Returns)
	})

	t.Run("rejects a second full return", func(t *testing.T) {
		f := newDispatchFixture()
		sent, _ := f.dispatched(t, 4)
		req := appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: sent.Items[0].ID,
				Entries:       []appdispatch.ReturnEntryRequest{entry(4, dispatch.OutcomeReturned)},
			}},
		}

		_, err := f.returns.SubmitReturn(ctx, sent.ID, req)
		require.NoError(t, err)

		_, err = f.returns.SubmitReturn(ctx, sent.ID, req)
		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})

	t.Run("unknown challan line is not found", func(t *testing.T) {
		f := newDispatchFixture()
		sent, _ := f.dispatched(t, 4)

		_, err := f.returns.SubmitReturn(ctx, sent.ID, appdispatch.SubmitReturnRequest{
			Lines: []appdispatch.ReturnLineRequest{{
				ChallanItemID: uuid.New(),
				Entries:       []appdispatch.ReturnEntryRequest{entry(4, dispatch.OutcomeReturned)},
			}},
		})

		require.Error(t, err)
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})
}
