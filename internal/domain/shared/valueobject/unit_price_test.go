package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnitPrice(t *testing.T) {
	p, err := NewUnitPrice(decimal.RequireFromString("0.0012"), USD, Gram)
	require.NoError(t, err)
	assert.True(t, p.Amount().Equal(decimal.RequireFromString("0.0012")))
	assert.Equal(t, Gram, p.Unit())
	assert.Equal(t, "USD 0.0012/g", p.String())

	_, err = NewUnitPrice(decimal.NewFromInt(-1), USD, Gram)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = NewUnitPrice(decimal.NewFromInt(1), USD, Unit("bushel"))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUnitPrice_In(t *testing.T) {
	perKg := PricePer(NewMoney(1, USD), Kilogram)

	t.Run("keeps sub-cent precision", func(t *testing.T) {
		perGram, err := perKg.In(Gram, ConversionContext{})
		require.NoError(t, err)
		assert.True(t, perGram.Amount().Equal(decimal.RequireFromString("0.001")), perGram.String())
		assert.True(t, perGram.Money().IsZero(), "one gram rounds to zero cents")
	})

	t.Run("round trips", func(t *testing.T) {
		perGram, err := perKg.In(Gram, ConversionContext{})
		require.NoError(t, err)
		back, err := perGram.In(Kilogram, ConversionContext{})
		require.NoError(t, err)
		assert.True(t, back.Equals(perKg), back.String())
	})

	t.Run("needs density across categories", func(t *testing.T) {
		_, err := perKg.In(Liter, ConversionContext{})
		assert.ErrorIs(t, err, shared.ErrMissingDensity)
	})
}

func TestUnitPrice_CostOf(t *testing.T) {
	perKg := PricePer(NewMoney(1, USD), Kilogram)
	perGram, err := perKg.In(Gram, ConversionContext{})
	require.NoError(t, err)

	cost, err := perGram.CostOf(MustNewQuantity(5000, Gram), ConversionContext{})
	require.NoError(t, err)
	assert.Equal(t, int64(500), cost.Cents())

	cost, err = perKg.CostOf(MustNewQuantity(250, Gram), ConversionContext{})
	require.NoError(t, err)
	assert.Equal(t, int64(25), cost.Cents())
}

func TestUnitPrice_WeightedAverage(t *testing.T) {
	a, err := NewUnitPrice(decimal.RequireFromString("0.001"), USD, Gram)
	require.NoError(t, err)
	b, err := NewUnitPrice(decimal.RequireFromString("0.0176"), USD, Gram)
	require.NoError(t, err)

	avg, err := a.WeightedAverage(decimal.NewFromInt(5000), b, decimal.NewFromInt(100))
	require.NoError(t, err)
	// (5 + 1.76) / 5100
	assert.True(t, avg.Amount().Equal(decimal.RequireFromString("0.0013254902")), avg.String())

	_, err = a.WeightedAverage(decimal.Zero, PricePer(NewMoney(1, EUR), Gram), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)

	_, err = a.WeightedAverage(decimal.Zero, PricePer(NewMoney(1, USD), Kilogram), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUnitPrice_JSON(t *testing.T) {
	p, err := NewUnitPrice(decimal.RequireFromString("0.00125"), EUR, Milliliter)
	require.NoError(t, err)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"0.00125","currency":"EUR","unit":"ml"}`, string(data))

	var decoded UnitPrice
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equals(p))

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"x","currency":"EUR","unit":"ml"}`), &decoded))
}
