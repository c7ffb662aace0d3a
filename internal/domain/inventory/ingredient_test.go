package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func createTestIngredient(t *testing.T, unit valueobject.Unit, minimum float64) *Ingredient {
	t.Helper()
	ingredient, err := NewIngredient(NewIngredientParams{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		OutletID:     uuid.New(),
		Name:         "Flour",
		Category:     "Dry goods",
		Unit:         unit,
		Currency:     valueobject.USD,
		MinimumStock: decimal.NewFromFloat(minimum),
		Now:          testNow,
	})
	require.NoError(t, err)
	return ingredient
}

func TestNewIngredient(t *testing.T) {
	t.Run("creates ingredient with zero stock", func(t *testing.T) {
		ingredient := createTestIngredient(t, valueobject.Kilogram, 5)

		assert.Equal(t, "Flour", ingredient.Name)
		assert.Equal(t, valueobject.Kilogram, ingredient.Unit)
		assert.True(t, ingredient.CurrentStock.IsZero())
		assert.Equal(t, valueobject.Kilogram, ingredient.CurrentStock.Unit())
		assert.Nil(t, ingredient.LastCost)
		assert.Nil(t, ingredient.AverageCost)
		assert.Equal(t, 1, ingredient.Version)
	})

	t.Run("fails with blank name", func(t *testing.T) {
		ingredient, err := NewIngredient(NewIngredientParams{
			OutletID: uuid.New(),
			Name:     "   ",
			Unit:     valueobject.Kilogram,
		})

		assert.Nil(t, ingredient)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("fails without outlet", func(t *testing.T) {
		_, err := NewIngredient(NewIngredientParams{Name: "Flour", Unit: valueobject.Kilogram})

		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Contains(t, err.Error(), "outlet")
	})

	t.Run("fails with unknown unit", func(t *testing.T) {
		_, err := NewIngredient(NewIngredientParams{OutletID: uuid.New(), Name: "Flour", Unit: "bushel"})

		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("defaults currency", func(t *testing.T) {
		ingredient, err := NewIngredient(NewIngredientParams{OutletID: uuid.New(), Name: "Salt", Unit: valueobject.Gram})

		require.NoError(t, err)
		assert.Equal(t, valueobject.DefaultCurrency, ingredient.Currency)
	})
}

func TestIngredient_ReceiveStock(t *testing.T) {
	t.Run("computes moving weighted average cost", func(t *testing.T) {
		ingredient := createTestIngredient(t, valueobject.Kilogram, 0)

		err := ingredient.ReceiveStock(valueobject.MustNewQuantity(10, valueobject.Kilogram), valueobject.NewMoney(2, valueobject.USD), testNow)
		require.NoError(t, err)
		assert.Equal(t, "2", ingredient.AverageCost.Amount().String())

		// (10*2.00 + 10*4.00) / 20 = 3.00
		err = ingredient.ReceiveStock(valueobject.MustNewQuantity(10, valueobject.Kilogram), valueobject.NewMoney(4, valueobject.USD), testNow)
		require.NoError(t, err)

		assert.True(t, ingredient.CurrentStock.Equals(valueobject.MustNewQuantity(20, valueobject.Kilogram), valueobject.NoContext))
		assert.Equal(t, int64(400), ingredient.LastCost.Cents())
		assert.Equal(t, valueobject.Kilogram, ingredient.LastCostUnit)
		assert.Equal(t, "3", ingredient.AverageCost.Amount().String())
		assert.Equal(t, valueobject.Kilogram, ingredient.AverageCost.Unit())
	})

	t.Run("keeps last cost in the batch unit", func(t *testing.T) {
		ingredient := createTestIngredient(t, valueobject.Kilogram, 0)

		err := ingredient.ReceiveStock(valueobject.MustNewQuantity(500, valueobject.Gram), valueobject.NewMoney(0.01, valueobject.USD), testNow)

		require.NoError(t, err)
		assert.Equal(t, "0.5", ingredient.CurrentStock.Amount().String())
		assert.Equal(t, int64(1), ingredient.LastCost.Cents())
		assert.Equal(t, valueobject.Gram, ingredient.LastCostUnit)
		assert.Equal(t, "10", ingredient.AverageCost.Amount().String(), "0.01 per g is 10.00 per kg")
	})

	t.Run("keeps sub-cent cost when receiving kg into a gram stock", func(t *testing.T) {
		ingredient := createTestIngredient(t, valueobject.Gram, 0)

		require.NoError(t, ingredient.ReceiveStock(valueobject.MustNewQuantity(5, valueobject.Kilogram), valueobject.NewMoney(1, valueobject.USD), testNow))

		assert.Equal(t, int64(100), ingredient.LastCost.Cents())
		assert.Equal(t, valueobject.Kilogram, ingredient.LastCostUnit)
		assert.True(t, ingredient.AverageCost.Amount().Equal(decimal.RequireFromString("0.001")), ingredient.AverageCost.String())
		assert.Equal(t, int64(500), ingredient.StockValue().Cents())

		// 3 oz at 0.50/oz: (5.00 + 1.50) / (5000 + 85.048569375) g
		require.NoError(t, ingredient.ReceiveStock(valueobject.MustNewQuantity(3, valueobject.Ounce), valueobject.NewMoney(0.5, valueobject.USD), testNow))

		assert.Equal(t, int64(50), ingredient.LastCost.Cents())
		assert.Equal(t, valueobject.Ounce, ingredient.LastCostUnit)
		assert.True(t, ingredient.AverageCost.Amount().GreaterThan(decimal.RequireFromString("0.00127")), ingredient.AverageCost.String())
		assert.Equal(t, int64(650), ingredient.StockValue().Cents())
	})

	t.Run("raises StockReceived event", func(t *testing.T) {
		ingredient := createTestIngredient(t, valueobject.Kilogram, 0)

		require.NoError(t, ingredient.ReceiveStock(valueobject.MustNewQuantity(1, valueobject.Kilogram), valueobject.NewMoney(1, valueobject.USD), testNow))

		events := ingredient.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeStockReceived, events[0].EventType())
		assert.Equal(t, ingredient.ID, events[0].AggregateID())
	})

	t.Run("rejects currency mismatch", func(t *testing.T) {
		ingredient := createTestIngredient(t, valueobject.Kilogram, 0)

		err := ingredient.ReceiveStock(valueobject.MustNewQuantity(1, valueobject.Kilogram), valueobject.NewMoney(1, valueobject.EUR), testNow)

		assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)
		assert.True(t, ingredient.CurrentStock.IsZero())
	})

	t.Run("rejects volume without density", func(t *testing.T) {
		ingredient := createTestIngredient(t, valueobject.Kilogram, 0)

		err := ingredient.ReceiveStock(valueobject.MustNewQuantity(1, valueobject.Liter), valueobject.NewMoney(1, valueobject.USD), testNow)

		assert.ErrorIs(t, err, shared.ErrMissingDensity)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		ingredient := createTestIngredient(t, valueobject.Kilogram, 0)

		err := ingredient.ReceiveStock(valueobject.ZeroQuantity(valueobject.Kilogram), valueobject.NewMoney(1, valueobject.USD), testNow)

		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestIngredient_ReleaseStock(t *testing.T) {
	t.Run("decrements stock and raises low stock event", func(t *testing.T) {
		ingredient := createTestIngredient(t, valueobject.Kilogram, 8)
		require.NoError(t, ingredient.ReceiveStock(valueobject.MustNewQuantity(10, valueobject.Kilogram), valueobject.NewMoney(1, valueobject.USD), testNow))
		ingredient.ClearDomainEvents()

		err := ingredient.ReleaseStock(valueobject.MustNewQuantity(3, valueobject.Kilogram), TransactionTypeSale, testNow)

		require.NoError(t, err)
		assert.Equal(t, "7", ingredient.CurrentStock.Amount().String())
		assert.True(t, ingredient.IsBelowMinimum())
		events := ingredient.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeStockConsumed, events[0].EventType())
		assert.Equal(t, EventTypeStockLow, events[1].EventType())
	})

	t.Run("fails with insufficient stock", func(t *testing.T) {
		ingredient := createTestIngredient(t, valueobject.Kilogram, 0)
		require.NoError(t, ingredient.ReceiveStock(valueobject.MustNewQuantity(10, valueobject.Kilogram), valueobject.NewMoney(1, valueobject.USD), testNow))

		err := ingredient.ReleaseStock(valueobject.MustNewQuantity(11, valueobject.Kilogram), TransactionTypeSale, testNow)

		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, "Insufficient stock for Flour: requested 11 kg, available 10 kg", err.Error())
		assert.Equal(t, "10", ingredient.CurrentStock.Amount().String())
	})

	t.Run("releases exact stock to zero", func(t *testing.T) {
		ingredient := createTestIngredient(t, valueobject.Kilogram, 0)
		require.NoError(t, ingredient.ReceiveStock(valueobject.MustNewQuantity(2, valueobject.Kilogram), valueobject.NewMoney(1, valueobject.USD), testNow))

		err := ingredient.ReleaseStock(valueobject.MustNewQuantity(2000, valueobject.Gram), TransactionTypeWaste, testNow)

		require.NoError(t, err)
		assert.True(t, ingredient.CurrentStock.IsZero())
	})
}

func TestIngredient_ConsumptionPrice(t *testing.T) {
	ingredient := createTestIngredient(t, valueobject.Kilogram, 0)
	assert.True(t, ingredient.ConsumptionPrice().IsZero())
	assert.Equal(t, valueobject.USD, ingredient.ConsumptionPrice().Currency())
	assert.Nil(t, ingredient.LastPrice())

	last := valueobject.NewMoney(3, valueobject.USD)
	ingredient.LastCost = &last
	ingredient.LastCostUnit = valueobject.Pound
	price := ingredient.ConsumptionPrice()
	assert.Equal(t, valueobject.Kilogram, price.Unit())
	assert.Equal(t, int64(661), price.Money().Cents(), "3.00 per lb is about 6.61 per kg")

	avg, err := valueobject.NewUnitPrice(decimal.RequireFromString("2.5"), valueobject.USD, valueobject.Kilogram)
	require.NoError(t, err)
	ingredient.AverageCost = &avg
	assert.True(t, ingredient.ConsumptionPrice().Equals(avg))
}

func TestIngredient_IsBelowMinimum(t *testing.T) {
	t.Run("zero minimum never alerts", func(t *testing.T) {
		ingredient := createTestIngredient(t, valueobject.Kilogram, 0)
		assert.False(t, ingredient.IsBelowMinimum())
	})

	t.Run("empty stock under a positive minimum alerts", func(t *testing.T) {
		ingredient := createTestIngredient(t, valueobject.Kilogram, 1)
		assert.True(t, ingredient.IsBelowMinimum())
	})
}
