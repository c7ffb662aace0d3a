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

func TestStockTransactionBuilder(t *testing.T) {
	ingredient := createTestIngredient(t, valueobject.Kilogram, 0)
	cost := valueobject.PricePer(valueobject.NewMoney(1.25, valueobject.USD), valueobject.Kilogram)

	t.Run("builds purchase with batch reference", func(t *testing.T) {
		batchID := uuid.New()
		tx, err := NewStockTransactionBuilder(uuid.New(), ingredient, TransactionTypePurchase, decimal.NewFromInt(4), cost, testNow).
			WithBatchID(batchID).
			WithReason(" delivery ").
			WithReference("INV-1").
			WithPerformedBy("chef").
			Build()

		require.NoError(t, err)
		assert.Equal(t, ingredient.ID, tx.IngredientID)
		assert.Equal(t, "Flour", tx.IngredientName)
		assert.Equal(t, valueobject.Kilogram, tx.Unit)
		assert.Equal(t, batchID, *tx.BatchID)
		assert.Equal(t, "delivery", tx.Reason)
		assert.Equal(t, "INV-1", tx.ReferenceID)
		assert.Equal(t, "chef", tx.PerformedBy)
		assert.True(t, tx.IsInbound())
		assert.Equal(t, int64(500), tx.TotalCost.Cents())
	})

	t.Run("stores a sub-cent unit cost per stock unit", func(t *testing.T) {
		grams := createTestIngredient(t, valueobject.Gram, 0)
		perKg := valueobject.PricePer(valueobject.NewMoney(1, valueobject.USD), valueobject.Kilogram)

		tx, err := NewStockTransactionBuilder(uuid.New(), grams, TransactionTypeSale, decimal.NewFromInt(-5000), perKg, testNow).Build()

		require.NoError(t, err)
		assert.Equal(t, valueobject.Gram, tx.UnitCost.Unit())
		assert.True(t, tx.UnitCost.Amount().Equal(decimal.RequireFromString("0.001")), tx.UnitCost.String())
		assert.Equal(t, int64(500), tx.TotalCost.Cents())
	})

	t.Run("total can be overridden", func(t *testing.T) {
		tx, err := NewStockTransactionBuilder(uuid.New(), ingredient, TransactionTypePurchase, decimal.NewFromInt(3), cost, testNow).
			WithTotalCost(valueobject.NewMoney(3.74, valueobject.USD)).
			Build()

		require.NoError(t, err)
		assert.Equal(t, int64(374), tx.TotalCost.Cents())
	})

	t.Run("price must convert into the stock unit", func(t *testing.T) {
		perLiter := valueobject.PricePer(valueobject.NewMoney(1, valueobject.USD), valueobject.Liter)

		_, err := NewStockTransactionBuilder(uuid.New(), ingredient, TransactionTypePurchase, decimal.NewFromInt(1), perLiter, testNow).Build()

		assert.ErrorIs(t, err, shared.ErrMissingDensity)
	})

	t.Run("sale must be negative", func(t *testing.T) {
		_, err := NewStockTransactionBuilder(uuid.New(), ingredient, TransactionTypeSale, decimal.NewFromInt(1), cost, testNow).Build()
		assert.ErrorIs(t, err, shared.ErrValidation)

		tx, err := NewStockTransactionBuilder(uuid.New(), ingredient, TransactionTypeSale, decimal.NewFromInt(-1), cost, testNow).Build()
		require.NoError(t, err)
		assert.False(t, tx.IsInbound())
	})

	t.Run("purchase must be positive", func(t *testing.T) {
		_, err := NewStockTransactionBuilder(uuid.New(), ingredient, TransactionTypePurchase, decimal.NewFromInt(-1), cost, testNow).Build()
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("adjustment accepts either sign", func(t *testing.T) {
		_, err := NewStockTransactionBuilder(uuid.New(), ingredient, TransactionTypeAdjustment, decimal.NewFromInt(-1), cost, testNow).Build()
		assert.NoError(t, err)
		_, err = NewStockTransactionBuilder(uuid.New(), ingredient, TransactionTypeAdjustment, decimal.NewFromInt(1), cost, testNow).Build()
		assert.NoError(t, err)
	})

	t.Run("zero quantity is rejected", func(t *testing.T) {
		_, err := NewStockTransactionBuilder(uuid.New(), ingredient, TransactionTypeAudit, decimal.Zero, cost, testNow).Build()
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("errors short-circuit the chain", func(t *testing.T) {
		tx, err := NewStockTransactionBuilder(uuid.New(), nil, TransactionTypeSale, decimal.NewFromInt(-1), cost, testNow).
			WithReason("x").
			WithBatchID(uuid.New()).
			Build()
		assert.Nil(t, tx)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestResolveDirection(t *testing.T) {
	tests := []struct {
		txType   TransactionType
		supplied Direction
		want     Direction
		wantErr  bool
	}{
		{TransactionTypePurchase, "", DirectionIncrease, false},
		{TransactionTypeProduction, DirectionDecrease, DirectionIncrease, false},
		{TransactionTypeInitialStock, "", DirectionIncrease, false},
		{TransactionTypeWaste, "", DirectionDecrease, false},
		{TransactionTypeSale, DirectionIncrease, DirectionDecrease, false},
		{TransactionTypeAdjustment, DirectionIncrease, DirectionIncrease, false},
		{TransactionTypeAdjustment, DirectionDecrease, DirectionDecrease, false},
		{TransactionTypeAdjustment, "", "", true},
		{"REFUND", DirectionIncrease, "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.txType)+"/"+string(tt.supplied), func(t *testing.T) {
			got, err := ResolveDirection(tt.txType, tt.supplied)
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTransactionType(t *testing.T) {
	got, err := ParseTransactionType(" waste ")
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeWaste, got)

	_, err = ParseTransactionType("theft")
	assert.ErrorIs(t, err, shared.ErrValidation)
}
