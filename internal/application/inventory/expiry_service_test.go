package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (f *serviceFixture) newExpiringBatch(t *testing.T, ingredientID uuid.UUID, qty float64, receivedDaysAgo int, expiry time.Time) inventory.Batch {
	t.Helper()
	received := fixedNow.AddDate(0, 0, -receivedDaysAgo)
	batch, err := inventory.NewBatch(inventory.NewBatchParams{
		ID:           uuid.New(),
		TenantID:     f.tenantID,
		IngredientID: ingredientID,
		OutletID:     f.outletID,
		LotNumber:    "EXP-1",
		Quantity:     valueobject.MustNewQuantity(qty, valueobject.Kilogram),
		UnitCost:     valueobject.NewMoney(1, valueobject.USD),
		ExpiryDate:   &expiry,
		ReceivedDate: received,
		Now:          received,
	})
	require.NoError(t, err)
	return *batch
}

func TestInventoryService_CheckExpiry(t *testing.T) {
	ctx := context.Background()

	t.Run("groups expiring batches per ingredient", func(t *testing.T) {
		f := newServiceFixture()
		ingredientID := uuid.New()
		flour := f.newFlour(t, ingredientID, 10, 0)
		soon := f.newExpiringBatch(t, ingredientID, 2, 5, fixedNow.AddDate(0, 0, 1))
		later := f.newExpiringBatch(t, ingredientID, 3, 4, fixedNow.AddDate(0, 0, 2))

		f.batches.On("FindExpiringWithin", anyCtx, f.tenantID, fixedNow, fixedNow.AddDate(0, 0, 3)).
			Return([]inventory.Batch{later, soon}, nil)
		f.ingredients.On("FindByIDs", anyCtx, f.tenantID, []uuid.UUID{ingredientID}).
			Return([]inventory.Ingredient{*flour}, nil)

		report, err := f.service.CheckExpiry(ctx, f.tenantID, 0)

		require.NoError(t, err)
		assert.Equal(t, 3, report.Days)
		assert.Equal(t, fixedNow.AddDate(0, 0, 3), report.Until)
		require.Len(t, report.Ingredients, 1)
		group := report.Ingredients[0]
		assert.Equal(t, "Flour", group.IngredientName)
		assert.True(t, group.TotalRemaining.Equal(decimal.NewFromInt(5)))
		assert.Equal(t, valueobject.Kilogram, group.Unit)
		assert.Equal(t, fixedNow.AddDate(0, 0, 1), group.EarliestExpiry)
		assert.Len(t, group.Batches, 2)
		assert.Empty(t, report.Skipped)
	})

	t.Run("batches of unknown ingredients are skipped", func(t *testing.T) {
		f := newServiceFixture()
		orphanID := uuid.New()
		orphan := f.newExpiringBatch(t, orphanID, 1, 2, fixedNow.AddDate(0, 0, 5))

		f.batches.On("FindExpiringWithin", anyCtx, f.tenantID, fixedNow, fixedNow.AddDate(0, 0, 7)).
			Return([]inventory.Batch{orphan}, nil)
		f.ingredients.On("FindByIDs", anyCtx, f.tenantID, []uuid.UUID{orphanID}).
			Return([]inventory.Ingredient{}, nil)

		report, err := f.service.CheckExpiry(ctx, f.tenantID, 7)

		require.NoError(t, err)
		assert.Empty(t, report.Ingredients)
		require.Len(t, report.Skipped, 1)
		assert.Equal(t, orphan.ID, report.Skipped[0].BatchID)
	})

	t.Run("nothing expiring skips the ingredient lookup", func(t *testing.T) {
		f := newServiceFixture()
		f.batches.On("FindExpiringWithin", anyCtx, f.tenantID, mock.Anything, mock.Anything).
			Return([]inventory.Batch{}, nil)

		report, err := f.service.CheckExpiry(ctx, f.tenantID, 3)

		require.NoError(t, err)
		assert.Empty(t, report.Ingredients)
		f.ingredients.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything, mock.Anything)
	})
}

// noCursor is the position a sweep starts from
var noCursor = (*inventory.ExpiryCursor)(nil)

func TestInventoryService_ExpireBatches(t *testing.T) {
	ctx := context.Background()

	t.Run("writes off remaining stock as waste", func(t *testing.T) {
		f := newServiceFixture()
		ingredientID := uuid.New()
		ingredient := f.newFlour(t, ingredientID, 10, 0)
		expired := f.newExpiringBatch(t, ingredientID, 3, 10, fixedNow.AddDate(0, 0, -1))
		reloaded := expired

		var ledger *inventory.StockTransaction
		f.batches.On("FindExpiredActive", anyCtx, fixedNow, noCursor, 500).Return([]inventory.Batch{expired}, nil)
		f.batches.On("FindByID", anyCtx, expired.ID).Return(&reloaded, nil)
		f.ingredients.On("FindByID", anyCtx, ingredientID).Return(ingredient, nil)
		f.batches.On("UpdateStatus", anyCtx, expired.ID, inventory.BatchStatusExpired).Return(nil)
		f.ingredients.On("SaveWithLock", anyCtx, ingredient).Return(nil)
		f.ledger.On("Create", anyCtx, mock.Anything).
			Run(func(args mock.Arguments) { ledger = args.Get(1).(*inventory.StockTransaction) }).
			Return(nil)

		result, err := f.service.ExpireBatches(ctx)

		require.NoError(t, err)
		assert.Equal(t, ExpireBatchesResult{Scanned: 1, Expired: 1, Failed: 0, Pages: 1}, *result)
		assert.Equal(t, inventory.BatchStatusExpired, reloaded.Status)
		assert.True(t, ingredient.CurrentStock.Amount().Equal(decimal.NewFromInt(7)))

		require.NotNil(t, ledger)
		assert.Equal(t, inventory.TransactionTypeWaste, ledger.Type)
		assert.True(t, ledger.Quantity.Equal(decimal.NewFromInt(-3)))
		assert.Equal(t, int64(100), ledger.UnitCost.Money().Cents())
		assert.Equal(t, int64(300), ledger.TotalCost.Cents())
		assert.Equal(t, "EXP-1", ledger.ReferenceID)
		assert.Equal(t, "system", ledger.PerformedBy)
		assert.Equal(t, expired.ID, *ledger.BatchID)

		assert.Len(t, f.publisher.GetEventsByType(inventory.EventTypeBatchExpired), 1)
		assert.Equal(t, 1, f.metrics.expired)
	})

	t.Run("batch retired concurrently is not counted", func(t *testing.T) {
		f := newServiceFixture()
		ingredientID := uuid.New()
		expired := f.newExpiringBatch(t, ingredientID, 3, 10, fixedNow.AddDate(0, 0, -1))
		reloaded := expired
		require.NoError(t, reloaded.MarkExpired(fixedNow))

		f.batches.On("FindExpiredActive", anyCtx, fixedNow, noCursor, 500).Return([]inventory.Batch{expired}, nil)
		f.batches.On("FindByID", anyCtx, expired.ID).Return(&reloaded, nil)

		result, err := f.service.ExpireBatches(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Expired)
		assert.Equal(t, 0, result.Failed)
		f.ingredients.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		f.ledger.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("failing batch is counted and the sweep continues", func(t *testing.T) {
		f := newServiceFixture()
		ingredientID := uuid.New()
		ingredient := f.newFlour(t, ingredientID, 5, 0)
		broken := f.newExpiringBatch(t, ingredientID, 1, 10, fixedNow.AddDate(0, 0, -2))
		ok := f.newExpiringBatch(t, ingredientID, 2, 9, fixedNow.AddDate(0, 0, -1))
		reloaded := ok

		f.batches.On("FindExpiredActive", anyCtx, fixedNow, noCursor, 500).Return([]inventory.Batch{broken, ok}, nil)
		f.batches.On("FindByID", anyCtx, broken.ID).Return(nil, errors.New("connection reset"))
		f.batches.On("FindByID", anyCtx, ok.ID).Return(&reloaded, nil)
		f.ingredients.On("FindByID", anyCtx, ingredientID).Return(ingredient, nil)
		f.batches.On("UpdateStatus", anyCtx, ok.ID, inventory.BatchStatusExpired).Return(nil)
		f.ingredients.On("SaveWithLock", anyCtx, ingredient).Return(nil)
		f.ledger.On("Create", anyCtx, mock.Anything).Return(nil)

		result, err := f.service.ExpireBatches(ctx)

		require.NoError(t, err)
		assert.Equal(t, ExpireBatchesResult{Scanned: 2, Expired: 1, Failed: 1, Pages: 1}, *result)
	})

	t.Run("failing batches do not hold back later pages", func(t *testing.T) {
		f := newServiceFixture()
		f.service.config.ExpirySweepLimit = 2
		ingredientID := uuid.New()
		ingredient := f.newFlour(t, ingredientID, 5, 0)
		broken1 := f.newExpiringBatch(t, ingredientID, 1, 10, fixedNow.AddDate(0, 0, -3))
		broken2 := f.newExpiringBatch(t, ingredientID, 1, 10, fixedNow.AddDate(0, 0, -2))
		ok := f.newExpiringBatch(t, ingredientID, 2, 9, fixedNow.AddDate(0, 0, -1))
		reloaded := ok

		f.batches.On("FindExpiredActive", anyCtx, fixedNow, noCursor, 2).
			Return([]inventory.Batch{broken1, broken2}, nil).Once()
		f.batches.On("FindExpiredActive", anyCtx, fixedNow, inventory.SweepCursor(broken2), 2).
			Return([]inventory.Batch{ok}, nil).Once()
		f.batches.On("FindByID", anyCtx, broken1.ID).Return(nil, errors.New("connection reset"))
		f.batches.On("FindByID", anyCtx, broken2.ID).Return(nil, errors.New("connection reset"))
		f.batches.On("FindByID", anyCtx, ok.ID).Return(&reloaded, nil)
		f.ingredients.On("FindByID", anyCtx, ingredientID).Return(ingredient, nil)
		f.batches.On("UpdateStatus", anyCtx, ok.ID, inventory.BatchStatusExpired).Return(nil)
		f.ingredients.On("SaveWithLock", anyCtx, ingredient).Return(nil)
		f.ledger.On("Create", anyCtx, mock.Anything).Return(nil)

		result, err := f.service.ExpireBatches(ctx)

		require.NoError(t, err)
		assert.Equal(t, ExpireBatchesResult{Scanned: 3, Expired: 1, Failed: 2, Pages: 2}, *result)
		assert.Equal(t, inventory.BatchStatusExpired, reloaded.Status)
		f.batches.AssertExpectations(t)
	})

	t.Run("read failure aborts the sweep", func(t *testing.T) {
		f := newServiceFixture()
		f.batches.On("FindExpiredActive", anyCtx, fixedNow, noCursor, 500).Return(nil, errors.New("connection reset"))

		result, err := f.service.ExpireBatches(ctx)

		require.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("stock lower than batch remainder is an integrity failure", func(t *testing.T) {
		f := newServiceFixture()
		ingredientID := uuid.New()
		ingredient := f.newFlour(t, ingredientID, 1, 0)
		expired := f.newExpiringBatch(t, ingredientID, 3, 10, fixedNow.AddDate(0, 0, -1))
		reloaded := expired

		f.batches.On("FindExpiredActive", anyCtx, fixedNow, noCursor, 500).Return([]inventory.Batch{expired}, nil)
		f.batches.On("FindByID", anyCtx, expired.ID).Return(&reloaded, nil)
		f.ingredients.On("FindByID", anyCtx, ingredientID).Return(ingredient, nil)
		f.batches.On("UpdateStatus", anyCtx, expired.ID, inventory.BatchStatusExpired).Return(nil)

		result, err := f.service.ExpireBatches(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		f.ingredients.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		assert.Zero(t, f.publisher.Count())
	})
}
