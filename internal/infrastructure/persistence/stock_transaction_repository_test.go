package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLedgerEntry(t *testing.T, ingredient *inventory.Ingredient, txType inventory.TransactionType, qty string, at time.Time) *inventory.StockTransaction {
	t.Helper()
	tx, err := inventory.NewStockTransactionBuilder(uuid.New(), ingredient, txType, decimal.RequireFromString(qty),
		valueobject.PricePer(valueobject.FromCents(120, valueobject.USD), ingredient.Unit), at).
		WithReason("test").
		WithPerformedBy("chef@bistro").
		Build()
	require.NoError(t, err)
	return tx
}

func TestGormStockTransactionRepository(t *testing.T) {
	db := setupLedgerTestDB(t)
	ingredients := NewGormIngredientRepository(db)
	repo := NewGormStockTransactionRepository(db)
	ctx := context.Background()

	butter := newTestIngredient(t, uuid.New(), uuid.New(), "Butter", valueobject.Kilogram, 0)
	require.NoError(t, ingredients.Save(ctx, butter))

	purchase := buildLedgerEntry(t, butter, inventory.TransactionTypePurchase, "5", ledgerEpoch)
	batchID := uuid.New()
	purchase.BatchID = &batchID
	sale := buildLedgerEntry(t, butter, inventory.TransactionTypeSale, "-1.25", ledgerEpoch.Add(time.Hour))
	waste := buildLedgerEntry(t, butter, inventory.TransactionTypeWaste, "-0.5", ledgerEpoch.Add(2*time.Hour))

	for _, tx := range []*inventory.StockTransaction{purchase, sale, waste} {
		require.NoError(t, repo.Create(ctx, tx))
	}

	t.Run("find by id keeps signed quantity and batch link", func(t *testing.T) {
		stored, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.True(t, stored.Quantity.Equal(decimal.RequireFromString("-1.25")))
		assert.Equal(t, inventory.TransactionTypeSale, stored.Type)
		assert.Equal(t, "Butter", stored.IngredientName)
		assert.Equal(t, "chef@bistro", stored.PerformedBy)
		assert.Nil(t, stored.BatchID)

		stored, err = repo.FindByID(ctx, purchase.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.BatchID)
		assert.Equal(t, batchID, *stored.BatchID)
	})

	t.Run("newest first by default", func(t *testing.T) {
		txs, err := repo.FindByIngredient(ctx, butter.TenantID, butter.ID, shared.Filter{})
		require.NoError(t, err)
		require.Len(t, txs, 3)
		assert.Equal(t, waste.ID, txs[0].ID)
		assert.Equal(t, sale.ID, txs[1].ID)
		assert.Equal(t, purchase.ID, txs[2].ID)
	})

	t.Run("type filter and count", func(t *testing.T) {
		filter := shared.Filter{Filters: map[string]interface{}{"type": inventory.TransactionTypeSale}}
		txs, err := repo.FindByIngredient(ctx, butter.TenantID, butter.ID, filter)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, sale.ID, txs[0].ID)

		count, err := repo.CountByIngredient(ctx, butter.TenantID, butter.ID, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("other tenants see no entries", func(t *testing.T) {
		txs, err := repo.FindByIngredient(ctx, uuid.New(), butter.ID, shared.Filter{})
		require.NoError(t, err)
		assert.Empty(t, txs)

		count, err := repo.CountByIngredient(ctx, uuid.New(), butter.ID, shared.Filter{})
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("keeps a sub-cent unit cost and the rounded total", func(t *testing.T) {
		salt := newTestIngredient(t, butter.TenantID, butter.OutletID, "Salt", valueobject.Gram, 0)
		require.NoError(t, ingredients.Save(ctx, salt))
		perKg := valueobject.PricePer(valueobject.FromCents(90, valueobject.USD), valueobject.Kilogram)
		tx, err := inventory.NewStockTransactionBuilder(uuid.New(), salt, inventory.TransactionTypeSale, decimal.NewFromInt(-2500), perKg, ledgerEpoch).Build()
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, tx))

		stored, err := repo.FindByID(ctx, tx.ID)
		require.NoError(t, err)
		assert.True(t, stored.UnitCost.Amount().Equal(decimal.RequireFromString("0.0009")), stored.UnitCost.String())
		assert.Equal(t, valueobject.Gram, stored.UnitCost.Unit())
		assert.Equal(t, int64(225), stored.TotalCost.Cents())
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}
