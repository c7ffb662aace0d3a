package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortFIFO(t *testing.T) {
	ids := shared.NewSequenceIDGenerator(1)
	first, second, third := ids.NewID(), ids.NewID(), ids.NewID()

	older := createTestBatch(t, third, valueobject.MustNewQuantity(1, valueobject.Kilogram), 1, testNow.AddDate(0, 0, -2), nil)
	tieB := createTestBatch(t, second, valueobject.MustNewQuantity(1, valueobject.Kilogram), 1, testNow, nil)
	tieA := createTestBatch(t, first, valueobject.MustNewQuantity(1, valueobject.Kilogram), 1, testNow, nil)

	batches := []*Batch{tieB, tieA, older}
	SortFIFO(batches)

	assert.Equal(t, []uuid.UUID{third, first, second}, []uuid.UUID{batches[0].ID, batches[1].ID, batches[2].ID})
}

func TestAllocateFIFO(t *testing.T) {
	ids := shared.NewSequenceIDGenerator(1)

	t.Run("draws from oldest batch first", func(t *testing.T) {
		b1 := createTestBatch(t, ids.NewID(), valueobject.MustNewQuantity(2, valueobject.Kilogram), 1, testNow.AddDate(0, 0, -2), nil)
		b2 := createTestBatch(t, ids.NewID(), valueobject.MustNewQuantity(5, valueobject.Kilogram), 1.5, testNow.AddDate(0, 0, -1), nil)

		result, err := AllocateFIFO([]*Batch{b2, b1}, valueobject.MustNewQuantity(3, valueobject.Kilogram), valueobject.NoContext, valueobject.USD)

		require.NoError(t, err)
		require.Len(t, result.Allocations, 2)
		assert.True(t, result.IsComplete())

		assert.Equal(t, b1.ID, result.Allocations[0].BatchID())
		assert.Equal(t, "2", result.Allocations[0].Consumed.Amount().String())
		assert.True(t, result.Allocations[0].Remaining.IsZero())
		assert.Equal(t, int64(200), result.Allocations[0].Cost.Cents())

		assert.Equal(t, b2.ID, result.Allocations[1].BatchID())
		assert.Equal(t, "1", result.Allocations[1].Consumed.Amount().String())
		assert.Equal(t, "4", result.Allocations[1].Remaining.Amount().String())
		assert.Equal(t, int64(150), result.Allocations[1].Cost.Cents())

		assert.Equal(t, int64(350), result.TotalCost.Cents())
		// allocation does not mutate batches
		assert.Equal(t, "2", b1.RemainingQuantity.Amount().String())
	})

	t.Run("reports residue when batches run out", func(t *testing.T) {
		b1 := createTestBatch(t, ids.NewID(), valueobject.MustNewQuantity(2, valueobject.Kilogram), 1, testNow, nil)

		result, err := AllocateFIFO([]*Batch{b1}, valueobject.MustNewQuantity(5, valueobject.Kilogram), valueobject.NoContext, valueobject.USD)

		require.NoError(t, err)
		assert.False(t, result.IsComplete())
		assert.True(t, result.Unallocated.Amount().Equal(decimal.NewFromInt(3)))
	})

	t.Run("skips inactive batches", func(t *testing.T) {
		depleted := createTestBatch(t, ids.NewID(), valueobject.MustNewQuantity(1, valueobject.Kilogram), 1, testNow.AddDate(0, 0, -5), nil)
		require.NoError(t, depleted.Consume(valueobject.MustNewQuantity(1, valueobject.Kilogram), valueobject.NoContext, testNow))
		active := createTestBatch(t, ids.NewID(), valueobject.MustNewQuantity(1, valueobject.Kilogram), 1, testNow, nil)

		result, err := AllocateFIFO([]*Batch{depleted, active}, valueobject.MustNewQuantity(1, valueobject.Kilogram), valueobject.NoContext, valueobject.USD)

		require.NoError(t, err)
		require.Len(t, result.Allocations, 1)
		assert.Equal(t, active.ID, result.Allocations[0].BatchID())
	})

	t.Run("converts request into batch unit", func(t *testing.T) {
		grams := createTestBatch(t, ids.NewID(), valueobject.MustNewQuantity(500, valueobject.Gram), 0.01, testNow, nil)

		result, err := AllocateFIFO([]*Batch{grams}, valueobject.MustNewQuantity(0.2, valueobject.Kilogram), valueobject.NoContext, valueobject.USD)

		require.NoError(t, err)
		require.Len(t, result.Allocations, 1)
		assert.Equal(t, valueobject.Gram, result.Allocations[0].Consumed.Unit())
		assert.True(t, result.Allocations[0].Consumed.Amount().Equal(decimal.NewFromInt(200)))
		assert.True(t, result.Allocations[0].Remaining.Amount().Equal(decimal.NewFromInt(300)))
		assert.Equal(t, int64(200), result.TotalCost.Cents())
		assert.True(t, result.IsComplete())
	})

	t.Run("empty batch list leaves full residue", func(t *testing.T) {
		result, err := AllocateFIFO(nil, valueobject.MustNewQuantity(1, valueobject.Kilogram), valueobject.NoContext, valueobject.USD)

		require.NoError(t, err)
		assert.Empty(t, result.Allocations)
		assert.True(t, result.TotalCost.IsZero())
		assert.False(t, result.IsComplete())
	})
}
