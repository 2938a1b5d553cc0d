package dispatch

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldstock/backend/internal/domain/shared"
)

func createTestChallan(t *testing.T) *Challan {
	t.Helper()
	challan, err := NewChallan("CH-2026-00001", uuid.New(), uuid.New())
	require.NoError(t, err)
	return challan
}

func testTransport() TransportDetails {
	return TransportDetails{
		VehicleNumber: "MH-12-AB-1234",
		DriverName:    "R. Sharma",
		DispatchDate:  time.Now(),
	}
}

func sentChallan(t *testing.T, quantities ...int64) *Challan {
	t.Helper()
	challan := createTestChallan(t)
	for _, q := range quantities {
		require.NoError(t, challan.AddItem(uuid.New(), decimal.NewFromInt(q)))
	}
	require.NoError(t, challan.Send(testTransport()))
	return challan
}

func TestNewChallan(t *testing.T) {
	t.Run("creates draft challan", func(t *testing.T) {
		challan := createTestChallan(t)

		assert.Equal(t, StatusDraft, challan.Status)
		assert.Empty(t, challan.Items)
		assert.Nil(t, challan.SentAt)
		events := challan.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeChallanCreated, events[0].EventType())
	})

	t.Run("fails with empty number", func(t *testing.T) {
		_, err := NewChallan("", uuid.New(), uuid.New())

		require.Error(t, err)
		assert.Equal(t, shared.CodeValidationError, shared.ErrorCode(err))
	})
}

func TestChallan_DraftEditing(t *testing.T) {
	t.Run("adds, updates and removes lines while draft", func(t *testing.T) {
		challan := createTestChallan(t)
		itemID := uuid.New()

		require.NoError(t, challan.AddItem(itemID, decimal.NewFromInt(5)))
		require.Len(t, challan.Items, 1)

		lineID := challan.Items[0].ID
		require.NoError(t, challan.UpdateItemQuantity(lineID, decimal.NewFromInt(8)))
		assert.Equal(t, "8", challan.Items[0].Quantity.String())

		require.NoError(t, challan.RemoveItem(lineID))
		assert.Empty(t, challan.Items)
	})

	t.Run("rejects duplicate item lines", func(t *testing.T) {
		challan := createTestChallan(t)
		itemID := uuid.New()
		require.NoError(t, challan.AddItem(itemID, decimal.NewFromInt(5)))

		err := challan.AddItem(itemID, decimal.NewFromInt(2))

		require.Error(t, err)
		assert.Equal(t, shared.CodeAlreadyExists, shared.ErrorCode(err))
	})

	t.Run("rejects edits after send", func(t *testing.T) {
		challan := sentChallan(t, 5)

		err := challan.AddItem(uuid.New(), decimal.NewFromInt(1))

		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})
}

func TestChallan_Send(t *testing.T) {
	t.Run("transitions draft to sent", func(t *testing.T) {
		challan := createTestChallan(t)
		require.NoError(t, challan.AddItem(uuid.New(), decimal.NewFromInt(5)))

		err := challan.Send(testTransport())

		require.NoError(t, err)
		assert.Equal(t, StatusSent, challan.Status)
		require.NotNil(t, challan.SentAt)
		assert.Equal(t, "MH-12-AB-1234", challan.Transport.VehicleNumber)
	})

	t.Run("rejects sending an empty challan", func(t *testing.T) {
		challan := createTestChallan(t)

		err := challan.Send(testTransport())

		require.Error(t, err)
		assert.Equal(t, shared.CodeValidationError, shared.ErrorCode(err))
	})

	t.Run("rejects sending without transport details", func(t *testing.T) {
		challan := createTestChallan(t)
		require.NoError(t, challan.AddItem(uuid.New(), decimal.NewFromInt(5)))

		err := challan.Send(TransportDetails{})

		require.Error(t, err)
	})

	t.Run("rejects sending twice", func(t *testing.T) {
		challan := sentChallan(t, 5)

		err := challan.Send(testTransport())

		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})
}

func TestChallan_ApplyReturn(t *testing.T) {
	t.Run("partial return moves challan to partially returned", func(t *testing.T) {
		challan := sentChallan(t, 10)
		lineID := challan.Items[0].ID

		err := challan.ApplyReturn(lineID, decimal.NewFromInt(4))

		require.NoError(t, err)
		assert.Equal(t, StatusPartiallyReturned, challan.Status)
		assert.Equal(t, LinePartial, challan.Items[0].ReturnStatus)
		assert.Equal(t, "6", challan.OutstandingQuantity().String())
	})

	t.Run("full settlement moves challan to returned", func(t *testing.T) {
		challan := sentChallan(t, 10, 3)

		require.NoError(t, challan.ApplyReturn(challan.Items[0].ID, decimal.NewFromInt(10)))
		assert.Equal(t, StatusPartiallyReturned, challan.Status)

		require.NoError(t, challan.ApplyReturn(challan.Items[1].ID, decimal.NewFromInt(3)))
		assert.Equal(t, StatusReturned, challan.Status)
		assert.True(t, challan.OutstandingQuantity().IsZero())
		require.NotNil(t, challan.ClosedAt)
	})

	t.Run("rejects return beyond outstanding balance", func(t *testing.T) {
		challan := sentChallan(t, 5)

		err := challan.ApplyReturn(challan.Items[0].ID, decimal.NewFromInt(6))

		require.Error(t, err)
		assert.Equal(t, shared.CodeReconciliationMismatch, shared.ErrorCode(err))
	})

	t.Run("rejects return on terminal challan", func(t *testing.T) {
		challan := sentChallan(t, 2)
		require.NoError(t, challan.ApplyReturn(challan.Items[0].ID, decimal.NewFromInt(2)))

		err := challan.ApplyReturn(challan.Items[0].ID, decimal.NewFromInt(1))

		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})

	t.Run("rejects unknown line", func(t *testing.T) {
		challan := sentChallan(t, 2)

		err := challan.ApplyReturn(uuid.New(), decimal.NewFromInt(1))

		require.Error(t, err)
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})
}

func TestChallan_Cancel(t *testing.T) {
	t.Run("cancels draft freely", func(t *testing.T) {
		challan := createTestChallan(t)

		err := challan.Cancel("duplicate entry")

		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, challan.Status)
		assert.Equal(t, "duplicate entry", challan.CancelReason)
	})

	t.Run("cancels sent challan with outstanding stock", func(t *testing.T) {
		challan := sentChallan(t, 5)

		err := challan.Cancel("project halted")

		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, challan.Status)
	})

	t.Run("cancels partially returned challan while outstanding remains", func(t *testing.T) {
		challan := sentChallan(t, 5)
		require.NoError(t, challan.ApplyReturn(challan.Items[0].ID, decimal.NewFromInt(2)))

		err := challan.Cancel("remaining stock lost")

		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, challan.Status)
	})

	t.Run("rejects cancelling a returned challan", func(t *testing.T) {
		challan := sentChallan(t, 2)
		require.NoError(t, challan.ApplyReturn(challan.Items[0].ID, decimal.NewFromInt(2)))

		err := challan.Cancel("too late")

		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})

	t.Run("rejects cancelling twice", func(t *testing.T) {
		challan := sentChallan(t, 2)
		require.NoError(t, challan.Cancel("first"))

		err := challan.Cancel("second")

		require.Error(t, err)
	})

	t.Run("requires a reason", func(t *testing.T) {
		challan := sentChallan(t, 2)

		err := challan.Cancel("")

		require.Error(t, err)
		assert.Equal(t, shared.CodeValidationError, shared.ErrorCode(err))
	})
}

func TestChallanStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    ChallanStatus
		to      ChallanStatus
		allowed bool
	}{
		{StatusDraft, StatusSent, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusReturned, false},
		{StatusSent, StatusPartiallyReturned, true},
		{StatusSent, StatusReturned, true},
		{StatusSent, StatusCancelled, true},
		{StatusSent, StatusDraft, false},
		{StatusPartiallyReturned, StatusReturned, true},
		{StatusPartiallyReturned, StatusCancelled, true},
		{StatusPartiallyReturned, StatusSent, false},
		{StatusReturned, StatusCancelled, false},
		{StatusCancelled, StatusSent, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}
