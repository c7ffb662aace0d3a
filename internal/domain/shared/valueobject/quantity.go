package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// QuantityTolerance is the absolute tolerance used for comparisons after conversion
var QuantityTolerance = decimal.New(1, -4)

// QuantityScale is the number of decimal places a Quantity keeps. It matches the
// scale of the quantity columns, so a stored value reads back unchanged.
const QuantityScale int32 = 12

func roundQuantity(v decimal.Decimal) decimal.Decimal {
	return v.Round(QuantityScale)
}

// Quantity is a non-negative amount in a unit of measure.
// It is immutable - all operations return new Quantity instances.
// The right-hand operand of any arithmetic is converted into the receiver's unit.
type Quantity struct {
	value decimal.Decimal
	unit  Unit
}

// NewQuantity creates a new Quantity with validation
func NewQuantity(value decimal.Decimal, unit Unit) (Quantity, error) {
	if !unit.IsValid() {
		return Quantity{}, shared.NewValidationError("unsupported unit: %q", string(unit))
	}
	if value.IsNegative() {
		return Quantity{}, shared.NewDomainError(shared.CodeNegativeQuantity,
			fmt.Sprintf("quantity cannot be negative: %s %s", value.String(), unit))
	}
	return Quantity{value: roundQuantity(value), unit: unit}, nil
}

// NewQuantityFromFloat creates a Quantity from a float64 value
func NewQuantityFromFloat(value float64, unit Unit) (Quantity, error) {
	return NewQuantity(decimal.NewFromFloat(value), unit)
}

// NewQuantityFromString creates a Quantity from a decimal string
func NewQuantityFromString(value string, unit Unit) (Quantity, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Quantity{}, shared.NewValidationError("invalid quantity value: %q", value)
	}
	return NewQuantity(d, unit)
}

// MustNewQuantity creates a Quantity, panicking on error. Use only for constants and tests.
func MustNewQuantity(value float64, unit Unit) Quantity {
	q, err := NewQuantityFromFloat(value, unit)
	if err != nil {
		panic(err)
	}
	return q
}

// ZeroQuantity returns a zero quantity in the given unit
func ZeroQuantity(unit Unit) Quantity {
	return Quantity{value: decimal.Zero, unit: unit}
}

// Amount returns the numeric value
func (q Quantity) Amount() decimal.Decimal {
	return q.value
}

// Unit returns the unit of measure
func (q Quantity) Unit() Unit {
	return q.unit
}

// Float64 returns the value as float64
func (q Quantity) Float64() float64 {
	f, _ := q.value.Float64()
	return f
}

// IsZero returns true if the value is within tolerance of zero
func (q Quantity) IsZero() bool {
	return q.value.Abs().LessThanOrEqual(QuantityTolerance)
}

// IsPositive returns true if the value exceeds the tolerance
func (q Quantity) IsPositive() bool {
	return q.value.GreaterThan(QuantityTolerance)
}

// ConvertTo returns the same physical amount expressed in unit
func (q Quantity) ConvertTo(unit Unit, ctx ConversionContext) (Quantity, error) {
	v, err := ConvertAmount(q.value, q.unit, unit, ctx)
	if err != nil {
		return Quantity{}, err
	}
	return NewQuantity(v, unit)
}

// Add returns q + other, with other converted into q's unit
func (q Quantity) Add(other Quantity, ctx ConversionContext) (Quantity, error) {
	v, err := ConvertAmount(other.value, other.unit, q.unit, ctx)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{value: roundQuantity(q.value.Add(v)), unit: q.unit}, nil
}

// Subtract returns q - other, with other converted into q's unit.
// A result below zero beyond tolerance fails with NEGATIVE_QUANTITY;
// a result within tolerance of zero is clamped to zero.
func (q Quantity) Subtract(other Quantity, ctx ConversionContext) (Quantity, error) {
	v, err := ConvertAmount(other.value, other.unit, q.unit, ctx)
	if err != nil {
		return Quantity{}, err
	}
	diff := roundQuantity(q.value.Sub(v))
	if diff.IsNegative() {
		if diff.Abs().GreaterThan(QuantityTolerance) {
			return Quantity{}, shared.NewDomainError(shared.CodeNegativeQuantity,
				fmt.Sprintf("cannot subtract %s from %s: result would be negative", other, q))
		}
		diff = decimal.Zero
	}
	return Quantity{value: diff, unit: q.unit}, nil
}

// Multiply returns q scaled by factor
func (q Quantity) Multiply(factor decimal.Decimal) (Quantity, error) {
	if factor.IsNegative() {
		return Quantity{}, shared.NewDomainError(shared.CodeNegativeQuantity, "cannot multiply quantity by a negative factor")
	}
	return Quantity{value: roundQuantity(q.value.Mul(factor)), unit: q.unit}, nil
}

// Divide returns q divided by divisor, which must be positive
func (q Quantity) Divide(divisor decimal.Decimal) (Quantity, error) {
	if !divisor.IsPositive() {
		return Quantity{}, shared.NewDomainError(shared.CodeDivideByZero,
			fmt.Sprintf("cannot divide quantity by %s", divisor.String()))
	}
	return Quantity{value: roundQuantity(q.value.Div(divisor)), unit: q.unit}, nil
}

// Min returns the smaller of q and other, expressed in q's unit
func (q Quantity) Min(other Quantity, ctx ConversionContext) (Quantity, error) {
	v, err := ConvertAmount(other.value, other.unit, q.unit, ctx)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{value: roundQuantity(decimal.Min(q.value, v)), unit: q.unit}, nil
}

// Compare returns -1, 0 or 1 comparing q with other after conversion.
// Values within tolerance compare equal.
func (q Quantity) Compare(other Quantity, ctx ConversionContext) (int, error) {
	v, err := ConvertAmount(other.value, other.unit, q.unit, ctx)
	if err != nil {
		return 0, err
	}
	diff := q.value.Sub(v)
	switch {
	case diff.Abs().LessThanOrEqual(QuantityTolerance):
		return 0, nil
	case diff.IsNegative():
		return -1, nil
	default:
		return 1, nil
	}
}

// Equals reports whether q and other describe the same amount within tolerance.
// Quantities that cannot be converted into each other are never equal.
func (q Quantity) Equals(other Quantity, ctx ConversionContext) bool {
	c, err := q.Compare(other, ctx)
	return err == nil && c == 0
}

// IsGreaterThan reports whether q > other beyond tolerance
func (q Quantity) IsGreaterThan(other Quantity, ctx ConversionContext) (bool, error) {
	c, err := q.Compare(other, ctx)
	return c > 0, err
}

// IsLessThan reports whether q < other beyond tolerance
func (q Quantity) IsLessThan(other Quantity, ctx ConversionContext) (bool, error) {
	c, err := q.Compare(other, ctx)
	return c < 0, err
}

// String returns e.g. "2.5 kg"
func (q Quantity) String() string {
	return fmt.Sprintf("%s %s", q.value.String(), q.unit)
}

type quantityJSON struct {
	Value string `json:"value"`
	Unit  Unit   `json:"unit"`
}

// MarshalJSON implements json.Marshaler
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(quantityJSON{Value: q.value.String(), Unit: q.unit})
}

// UnmarshalJSON validates the unit and keeps the non-negative invariant
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var v quantityJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewQuantityFromString(v.Value, v.Unit)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
