package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	CAD Currency = "CAD"
	AUD Currency = "AUD"
	JPY Currency = "JPY"
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = USD

var hundred = decimal.NewFromInt(100)

// Money is an amount of integer cents tagged with a currency.
// It is immutable - all operations return new Money instances.
type Money struct {
	cents    int64
	currency Currency
}

// NewMoney creates Money from a decimal amount, rounding to the nearest cent
func NewMoney(amount float64, currency Currency) Money {
	return NewMoneyFromDecimal(decimal.NewFromFloat(amount), currency)
}

// NewMoneyFromDecimal creates Money from a decimal amount, rounding to the nearest cent
func NewMoneyFromDecimal(amount decimal.Decimal, currency Currency) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{
		cents:    amount.Mul(hundred).Round(0).IntPart(),
		currency: currency,
	}
}

// NewMoneyFromString parses a decimal amount string
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, shared.NewValidationError("invalid money amount: %q", amount)
	}
	return NewMoneyFromDecimal(d, currency), nil
}

// FromCents creates Money directly from cents. No validation is applied,
// so this is also how negative balances are represented.
func FromCents(cents int64, currency Currency) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{cents: cents, currency: currency}
}

// Zero returns zero in the given currency
func Zero(currency Currency) Money {
	return FromCents(0, currency)
}

// ParseCurrency validates a three-letter currency code
func ParseCurrency(s string) (Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if len(code) != 3 {
		return "", shared.NewValidationError("invalid currency code: %q", s)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", shared.NewValidationError("invalid currency code: %q", s)
		}
	}
	return Currency(code), nil
}

// Cents returns the amount in cents
func (m Money) Cents() int64 {
	return m.cents
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	if m.currency == "" {
		return DefaultCurrency
	}
	return m.currency
}

// Amount returns the amount as a decimal with two places
func (m Money) Amount() decimal.Decimal {
	return decimal.New(m.cents, -2)
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.cents == 0
}

// IsNegative returns true if the amount is below zero
func (m Money) IsNegative() bool {
	return m.cents < 0
}

func (m Money) checkCurrency(other Money, op string) error {
	if m.Currency() != other.Currency() {
		return shared.NewDomainError(shared.CodeCurrencyMismatch,
			fmt.Sprintf("cannot %s money with different currencies: %s and %s", op, m.Currency(), other.Currency()))
	}
	return nil
}

// Add adds two Money values (must have same currency)
func (m Money) Add(other Money) (Money, error) {
	if err := m.checkCurrency(other, "add"); err != nil {
		return Money{}, err
	}
	return Money{cents: m.cents + other.cents, currency: m.Currency()}, nil
}

// Subtract subtracts other from m (must have same currency).
// The result may be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.checkCurrency(other, "subtract"); err != nil {
		return Money{}, err
	}
	return Money{cents: m.cents - other.cents, currency: m.Currency()}, nil
}

// Multiply multiplies by a scalar and rounds to the nearest cent
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{
		cents:    decimal.NewFromInt(m.cents).Mul(factor).Round(0).IntPart(),
		currency: m.Currency(),
	}
}

// Divide divides by a scalar and rounds to the nearest cent
func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, shared.NewDomainError(shared.CodeDivideByZero, "cannot divide money by zero")
	}
	return Money{
		cents:    decimal.NewFromInt(m.cents).Div(divisor).Round(0).IntPart(),
		currency: m.Currency(),
	}, nil
}

// Negate returns the negated amount
func (m Money) Negate() Money {
	return Money{cents: -m.cents, currency: m.Currency()}
}

// Equals reports whether both cents and currency match
func (m Money) Equals(other Money) bool {
	return m.cents == other.cents && m.Currency() == other.Currency()
}

// Compare returns -1, 0 or 1. Different currencies fail with CURRENCY_MISMATCH.
func (m Money) Compare(other Money) (int, error) {
	if err := m.checkCurrency(other, "compare"); err != nil {
		return 0, err
	}
	switch {
	case m.cents < other.cents:
		return -1, nil
	case m.cents > other.cents:
		return 1, nil
	default:
		return 0, nil
	}
}

// IsGreaterThan reports whether m > other
func (m Money) IsGreaterThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c > 0, err
}

// IsLessThan reports whether m < other
func (m Money) IsLessThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c < 0, err
}

// String returns "<CUR> <amount>" with two decimal places, e.g. "USD 12.50"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency(), m.Amount().StringFixed(2))
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Cents    int64    `json:"cents"`
	Currency Currency `json:"currency"`
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		Amount:   m.Amount().StringFixed(2),
		Cents:    m.cents,
		Currency: m.Currency(),
	})
}

// UnmarshalJSON prefers cents when present, otherwise rounds amount
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Amount == "" {
		*m = FromCents(v.Cents, v.Currency)
		return nil
	}
	parsed, err := NewMoneyFromString(v.Amount, v.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer. Only cents are stored; currency lives in its own column.
func (m Money) Value() (driver.Value, error) {
	return m.cents, nil
}
