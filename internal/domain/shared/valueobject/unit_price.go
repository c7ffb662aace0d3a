package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UnitPriceScale is the number of decimal places a UnitPrice keeps
const UnitPriceScale int32 = 10

// UnitPrice is the price of one unit of measure. Unlike Money it is not rounded
// to cents, so a cheap ingredient priced per gram keeps its value; rounding to
// cents happens once, when CostOf prices a concrete quantity.
type UnitPrice struct {
	amount   decimal.Decimal
	currency Currency
	unit     Unit
}

// NewUnitPrice creates a price of amount per one unit
func NewUnitPrice(amount decimal.Decimal, currency Currency, unit Unit) (UnitPrice, error) {
	if !unit.IsValid() {
		return UnitPrice{}, shared.NewValidationError("unsupported unit: %q", string(unit))
	}
	if amount.IsNegative() {
		return UnitPrice{}, shared.NewValidationError("unit price cannot be negative")
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return UnitPrice{amount: amount.Round(UnitPriceScale), currency: currency, unit: unit}, nil
}

// PricePer reads m as the price of one unit
func PricePer(m Money, unit Unit) UnitPrice {
	return UnitPrice{amount: m.Amount(), currency: m.Currency(), unit: unit}
}

// ZeroPrice returns a zero price per unit
func ZeroPrice(currency Currency, unit Unit) UnitPrice {
	return PricePer(Zero(currency), unit)
}

// Amount returns the price of one unit
func (p UnitPrice) Amount() decimal.Decimal {
	return p.amount
}

// Currency returns the currency code
func (p UnitPrice) Currency() Currency {
	if p.currency == "" {
		return DefaultCurrency
	}
	return p.currency
}

// Unit returns the unit the price is quoted per
func (p UnitPrice) Unit() Unit {
	return p.unit
}

// IsZero returns true if the price is zero
func (p UnitPrice) IsZero() bool {
	return p.amount.IsZero()
}

// In quotes the same price per unit instead of per p.Unit()
func (p UnitPrice) In(unit Unit, ctx ConversionContext) (UnitPrice, error) {
	if unit == p.unit {
		return p, nil
	}
	perTarget, err := ConvertAmount(decimal.NewFromInt(1), unit, p.unit, ctx)
	if err != nil {
		return UnitPrice{}, err
	}
	return UnitPrice{amount: p.amount.Mul(perTarget).Round(UnitPriceScale), currency: p.Currency(), unit: unit}, nil
}

// CostOf prices q, rounding the total to the nearest cent
func (p UnitPrice) CostOf(q Quantity, ctx ConversionContext) (Money, error) {
	amount, err := ConvertAmount(q.Amount(), q.Unit(), p.unit, ctx)
	if err != nil {
		return Money{}, err
	}
	return NewMoneyFromDecimal(amount.Mul(p.amount), p.Currency()), nil
}

// Money returns the price of one unit rounded to cents
func (p UnitPrice) Money() Money {
	return NewMoneyFromDecimal(p.amount, p.Currency())
}

// WeightedAverage blends p held for held units with other bought for added
// units. Both prices must be quoted per the same unit.
func (p UnitPrice) WeightedAverage(held decimal.Decimal, other UnitPrice, added decimal.Decimal) (UnitPrice, error) {
	if p.Currency() != other.Currency() {
		return UnitPrice{}, shared.NewDomainError(shared.CodeCurrencyMismatch,
			fmt.Sprintf("cannot average prices with different currencies: %s and %s", p.Currency(), other.Currency()))
	}
	if p.unit != other.unit {
		return UnitPrice{}, shared.NewValidationError("cannot average prices per %s and per %s", p.unit, other.unit)
	}
	total := held.Add(added)
	if !total.IsPositive() {
		return UnitPrice{}, shared.NewDomainError(shared.CodeDivideByZero, "cannot average prices over a zero quantity")
	}
	value := p.amount.Mul(held).Add(other.amount.Mul(added))
	return UnitPrice{amount: value.Div(total).Round(UnitPriceScale), currency: p.Currency(), unit: p.unit}, nil
}

// Equals compares amount, currency and unit
func (p UnitPrice) Equals(other UnitPrice) bool {
	return p.amount.Equal(other.amount) && p.Currency() == other.Currency() && p.unit == other.unit
}

// String returns e.g. "USD 0.001/g"
func (p UnitPrice) String() string {
	return fmt.Sprintf("%s %s/%s", p.Currency(), p.amount.String(), p.unit)
}

type unitPriceJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
	Unit     Unit     `json:"unit"`
}

// MarshalJSON implements json.Marshaler
func (p UnitPrice) MarshalJSON() ([]byte, error) {
	return json.Marshal(unitPriceJSON{Amount: p.amount.String(), Currency: p.Currency(), Unit: p.unit})
}

// UnmarshalJSON validates the unit and the non-negative amount
func (p *UnitPrice) UnmarshalJSON(data []byte) error {
	var v unitPriceJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return shared.NewValidationError("invalid unit price amount: %q", v.Amount)
	}
	parsed, err := NewUnitPrice(amount, v.Currency, v.Unit)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
