package site

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldstock/backend/internal/domain/shared"
)

func createTestDeployment(t *testing.T, quantity int64) *SiteDeployment {
	t.Helper()
	deployment, err := NewSiteDeployment(uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(quantity))
	require.NoError(t, err)
	return deployment
}

func TestNewSiteDeployment(t *testing.T) {
	t.Run("opens deployment successfully", func(t *testing.T) {
		deployment := createTestDeployment(t, 10)

		assert.True(t, deployment.IsOpen())
		assert.Equal(t, "10", deployment.QuantityDeployed.String())
		assert.Nil(t, deployment.ActualReturnDate)
		events := deployment.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeDeploymentOpened, events[0].EventType())
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := NewSiteDeployment(uuid.New(), uuid.New(), uuid.New(), decimal.Zero)

		require.Error(t, err)
		assert.Equal(t, shared.CodeValidationError, shared.ErrorCode(err))
	})

	t.Run("rejects nil site", func(t *testing.T) {
		_, err := NewSiteDeployment(uuid.Nil, uuid.New(), uuid.New(), decimal.NewFromInt(1))

		require.Error(t, err)
	})
}

func TestSiteDeployment_ReduceQuantity(t *testing.T) {
	t.Run("reduces without closing", func(t *testing.T) {
		deployment := createTestDeployment(t, 10)

		err := deployment.ReduceQuantity(decimal.NewFromInt(4))

		require.NoError(t, err)
		assert.Equal(t, "6", deployment.QuantityDeployed.String())
		assert.True(t, deployment.IsOpen())
		assert.Nil(t, deployment.ActualReturnDate)
	})

	t.Run("closes when quantity reaches zero", func(t *testing.T) {
		deployment := createTestDeployment(t, 5)
		deployment.ClearDomainEvents()

		err := deployment.ReduceQuantity(decimal.NewFromInt(5))

		require.NoError(t, err)
		assert.False(t, deployment.IsOpen())
		require.NotNil(t, deployment.ActualReturnDate)
		events := deployment.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeDeploymentClosed, events[0].EventType())
	})

	t.Run("rejects reducing below zero", func(t *testing.T) {
		deployment := createTestDeployment(t, 3)

		err := deployment.ReduceQuantity(decimal.NewFromInt(4))

		require.Error(t, err)
		assert.Equal(t, "3", deployment.QuantityDeployed.String())
	})
}

func TestSiteDeployment_AddQuantity(t *testing.T) {
	t.Run("adds to an open deployment", func(t *testing.T) {
		deployment := createTestDeployment(t, 3)

		err := deployment.AddQuantity(decimal.NewFromInt(2))

		require.NoError(t, err)
		assert.Equal(t, "5", deployment.QuantityDeployed.String())
	})

	t.Run("rejects adding to a closed deployment", func(t *testing.T) {
		deployment := createTestDeployment(t, 1)
		require.NoError(t, deployment.ReduceQuantity(decimal.NewFromInt(1)))

		err := deployment.AddQuantity(decimal.NewFromInt(2))

		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})
}

func TestSiteDeployment_IsOverdue(t *testing.T) {
	now := time.Now()

	t.Run("open past expected return is overdue", func(t *testing.T) {
		deployment := createTestDeployment(t, 2)
		deployment.WithExpectedReturn(now.Add(-24 * time.Hour))

		assert.True(t, deployment.IsOverdue(now))
	})

	t.Run("closed deployment is never overdue", func(t *testing.T) {
		deployment := createTestDeployment(t, 2)
		deployment.WithExpectedReturn(now.Add(-24 * time.Hour))
		require.NoError(t, deployment.ReduceQuantity(decimal.NewFromInt(2)))

		assert.False(t, deployment.IsOverdue(now))
	})

	t.Run("no expected date means never overdue", func(t *testing.T) {
		deployment := createTestDeployment(t, 2)

		assert.False(t, deployment.IsOverdue(now))
	})
}
