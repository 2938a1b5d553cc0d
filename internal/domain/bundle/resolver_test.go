package bundle

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldstock/backend/internal/domain/shared"
)

func createTestTemplate(t *testing.T, components ...BundleComponent) *BundleTemplate {
	t.Helper()
	template, err := NewBundleTemplate("Scaffolding kit 10m", uuid.New())
	require.NoError(t, err)
	for _, c := range components {
		require.NoError(t, template.AddComponent(c.ComponentItemID, c.QuantityPerUnit))
	}
	return template
}

func TestBundleTemplate_AddComponent(t *testing.T) {
	t.Run("adds components in order", func(t *testing.T) {
		template := createTestTemplate(t)
		first := uuid.New()
		second := uuid.New()

		require.NoError(t, template.AddComponent(first, decimal.NewFromInt(2)))
		require.NoError(t, template.AddComponent(second, decimal.NewFromInt(1)))

		require.Len(t, template.Components, 2)
		assert.Equal(t, first, template.Components[0].ComponentItemID)
		assert.Equal(t, 0, template.Components[0].Position)
		assert.Equal(t, second, template.Components[1].ComponentItemID)
		assert.Equal(t, 1, template.Components[1].Position)
	})

	t.Run("rejects quantity below one", func(t *testing.T) {
		template := createTestTemplate(t)

		err := template.AddComponent(uuid.New(), decimal.Zero)

		require.Error(t, err)
		assert.Equal(t, shared.CodeValidationError, shared.ErrorCode(err))
	})

	t.Run("rejects duplicate component", func(t *testing.T) {
		template := createTestTemplate(t)
		componentID := uuid.New()
		require.NoError(t, template.AddComponent(componentID, decimal.NewFromInt(1)))

		err := template.AddComponent(componentID, decimal.NewFromInt(2))

		require.Error(t, err)
		assert.Equal(t, shared.CodeAlreadyExists, shared.ErrorCode(err))
	})

	t.Run("rejects the base item as a component", func(t *testing.T) {
		template := createTestTemplate(t)

		err := template.AddComponent(template.BaseItemID, decimal.NewFromInt(1))

		require.Error(t, err)
	})
}

func TestResolver_AvailableKits(t *testing.T) {
	resolver := NewResolver()
	itemA := uuid.New()
	itemB := uuid.New()

	t.Run("kit count is bound by the scarcest component", func(t *testing.T) {
		// A: 2 per kit, 7 in stock -> floor(7/2) = 3
		// B: 1 per kit, 3 in stock -> floor(3/1) = 3
		template := createTestTemplate(t,
			BundleComponent{ComponentItemID: itemA, QuantityPerUnit: decimal.NewFromInt(2)},
			BundleComponent{ComponentItemID: itemB, QuantityPerUnit: decimal.NewFromInt(1)},
		)
		stock := map[uuid.UUID]decimal.Decimal{
			itemA: decimal.NewFromInt(7),
			itemB: decimal.NewFromInt(3),
		}

		availability, err := resolver.AvailableKits(template, stock)

		require.NoError(t, err)
		assert.Equal(t, "3", availability.Kits.String())
		// both components tie for the minimum, reported in template order
		assert.Equal(t, []uuid.UUID{itemA, itemB}, availability.Bottlenecks)
	})

	t.Run("single bottleneck is named", func(t *testing.T) {
		template := createTestTemplate(t,
			BundleComponent{ComponentItemID: itemA, QuantityPerUnit: decimal.NewFromInt(2)},
			BundleComponent{ComponentItemID: itemB, QuantityPerUnit: decimal.NewFromInt(1)},
		)
		stock := map[uuid.UUID]decimal.Decimal{
			itemA: decimal.NewFromInt(20),
			itemB: decimal.NewFromInt(4),
		}

		availability, err := resolver.AvailableKits(template, stock)

		require.NoError(t, err)
		assert.Equal(t, "4", availability.Kits.String())
		assert.Equal(t, []uuid.UUID{itemB}, availability.Bottlenecks)
	})

	t.Run("missing component stock yields zero kits", func(t *testing.T) {
		template := createTestTemplate(t,
			BundleComponent{ComponentItemID: itemA, QuantityPerUnit: decimal.NewFromInt(1)},
			BundleComponent{ComponentItemID: itemB, QuantityPerUnit: decimal.NewFromInt(1)},
		)
		stock := map[uuid.UUID]decimal.Decimal{
			itemA: decimal.NewFromInt(10),
		}

		availability, err := resolver.AvailableKits(template, stock)

		require.NoError(t, err)
		assert.True(t, availability.Kits.IsZero())
		assert.Equal(t, []uuid.UUID{itemB}, availability.Bottlenecks)
	})

	t.Run("rejects template without components", func(t *testing.T) {
		template := createTestTemplate(t)

		_, err := resolver.AvailableKits(template, nil)

		require.Error(t, err)
		assert.Equal(t, shared.CodeValidationError, shared.ErrorCode(err))
	})
}

func TestResolver_ExpandKitAllocation(t *testing.T) {
	resolver := NewResolver()
	itemA := uuid.New()
	itemB := uuid.New()
	template := createTestTemplate(t,
		BundleComponent{ComponentItemID: itemA, QuantityPerUnit: decimal.NewFromInt(4)},
		BundleComponent{ComponentItemID: itemB, QuantityPerUnit: decimal.NewFromInt(1)},
	)

	t.Run("expands kit quantity into component deltas", func(t *testing.T) {
		deltas, err := resolver.ExpandKitAllocation(template, decimal.NewFromInt(3))

		require.NoError(t, err)
		require.Len(t, deltas, 2)
		assert.Equal(t, itemA, deltas[0].ItemID)
		assert.Equal(t, "12", deltas[0].Quantity.String())
		assert.Equal(t, itemB, deltas[1].ItemID)
		assert.Equal(t, "3", deltas[1].Quantity.String())
	})

	t.Run("rejects non-positive kit quantity", func(t *testing.T) {
		_, err := resolver.ExpandKitAllocation(template, decimal.Zero)

		require.Error(t, err)
	})
}

func TestResolver_CheckAllocatable(t *testing.T) {
	resolver := NewResolver()
	itemA := uuid.New()
	template := createTestTemplate(t,
		BundleComponent{ComponentItemID: itemA, QuantityPerUnit: decimal.NewFromInt(2)},
	)
	stock := map[uuid.UUID]decimal.Decimal{itemA: decimal.NewFromInt(5)}

	t.Run("allows allocation within bounds", func(t *testing.T) {
		assert.NoError(t, resolver.CheckAllocatable(template, stock, decimal.NewFromInt(2)))
	})

	t.Run("rejects allocation beyond the kit bound", func(t *testing.T) {
		err := resolver.CheckAllocatable(template, stock, decimal.NewFromInt(3))

		require.Error(t, err)
		assert.Equal(t, shared.CodeInsufficientStock, shared.ErrorCode(err))
		assert.Contains(t, err.Error(), itemA.String())
	})
}
