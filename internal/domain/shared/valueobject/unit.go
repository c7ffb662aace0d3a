package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UnitCategory groups units that can be converted by a fixed factor
type UnitCategory string

const (
	CategoryMass   UnitCategory = "MASS"
	CategoryVolume UnitCategory = "VOLUME"
	CategoryCount  UnitCategory = "COUNT"
)

// Unit is a unit of measure from a closed set.
// Mass units convert through kg, volume units through L.
type Unit string

const (
	Kilogram   Unit = "kg"
	Gram       Unit = "g"
	Milligram  Unit = "mg"
	Pound      Unit = "lb"
	Ounce      Unit = "oz"
	Liter      Unit = "L"
	Milliliter Unit = "ml"
	Gallon     Unit = "gal"
	Quart      Unit = "qt"
	Pint       Unit = "pt"
	Cup        Unit = "cup"
	Tablespoon Unit = "tbsp"
	Teaspoon   Unit = "tsp"
	Piece      Unit = "unit"
)

type unitInfo struct {
	category UnitCategory
	toBase   decimal.Decimal
}

var units = map[Unit]unitInfo{
	Kilogram:   {CategoryMass, decimal.NewFromInt(1)},
	Gram:       {CategoryMass, decimal.RequireFromString("0.001")},
	Milligram:  {CategoryMass, decimal.RequireFromString("0.000001")},
	Pound:      {CategoryMass, decimal.RequireFromString("0.45359237")},
	Ounce:      {CategoryMass, decimal.RequireFromString("0.028349523125")},
	Liter:      {CategoryVolume, decimal.NewFromInt(1)},
	Milliliter: {CategoryVolume, decimal.RequireFromString("0.001")},
	Gallon:     {CategoryVolume, decimal.RequireFromString("3.785411784")},
	Quart:      {CategoryVolume, decimal.RequireFromString("0.946352946")},
	Pint:       {CategoryVolume, decimal.RequireFromString("0.473176473")},
	Cup:        {CategoryVolume, decimal.RequireFromString("0.2365882365")},
	Tablespoon: {CategoryVolume, decimal.RequireFromString("0.01478676478125")},
	Teaspoon:   {CategoryVolume, decimal.RequireFromString("0.00492892159375")},
	Piece:      {CategoryCount, decimal.NewFromInt(1)},
}

var unitAliases = map[string]Unit{
	"kg": Kilogram, "kilogram": Kilogram, "kilograms": Kilogram,
	"g": Gram, "gram": Gram, "grams": Gram,
	"mg": Milligram, "milligram": Milligram, "milligrams": Milligram,
	"lb": Pound, "lbs": Pound, "pound": Pound, "pounds": Pound,
	"oz": Ounce, "ounce": Ounce, "ounces": Ounce,
	"l": Liter, "liter": Liter, "liters": Liter, "litre": Liter, "litres": Liter,
	"ml": Milliliter, "milliliter": Milliliter, "milliliters": Milliliter, "millilitre": Milliliter,
	"gal": Gallon, "gallon": Gallon, "gallons": Gallon,
	"qt": Quart, "quart": Quart, "quarts": Quart,
	"pt": Pint, "pint": Pint, "pints": Pint,
	"cup": Cup, "cups": Cup,
	"tbsp": Tablespoon, "tablespoon": Tablespoon, "tablespoons": Tablespoon,
	"tsp": Teaspoon, "teaspoon": Teaspoon, "teaspoons": Teaspoon,
	"unit": Piece, "units": Piece, "piece": Piece, "pieces": Piece, "pcs": Piece, "ea": Piece,
}

// ParseUnit resolves a unit string (canonical form or common alias, case-insensitive)
func ParseUnit(s string) (Unit, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if u, ok := unitAliases[key]; ok {
		return u, nil
	}
	return "", shared.NewValidationError("unsupported unit: %q", s)
}

// AllUnits returns every supported unit
func AllUnits() []Unit {
	return []Unit{
		Kilogram, Gram, Milligram, Pound, Ounce,
		Liter, Milliliter, Gallon, Quart, Pint, Cup, Tablespoon, Teaspoon,
		Piece,
	}
}

// IsValid reports whether u is a supported unit
func (u Unit) IsValid() bool {
	_, ok := units[u]
	return ok
}

// Category returns the unit's category
func (u Unit) Category() UnitCategory {
	return units[u].category
}

// BaseFactor returns the multiplier from u to its category base unit
func (u Unit) BaseFactor() decimal.Decimal {
	return units[u].toBase
}

// String returns the canonical unit symbol
func (u Unit) String() string {
	return string(u)
}

// Value implements driver.Valuer
func (u Unit) Value() (driver.Value, error) {
	return string(u), nil
}

// Scan implements sql.Scanner
func (u *Unit) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Unit", value)
	}
	parsed, err := ParseUnit(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// UnmarshalJSON accepts any alias ParseUnit understands
func (u *Unit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseUnit(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// ConversionContext carries the ingredient properties needed for
// cross-category conversion. Density is kg per L and PieceWeight is kg per piece.
// A zero or negative value means the property is unknown.
type ConversionContext struct {
	Density     decimal.Decimal
	PieceWeight decimal.Decimal
}

// NoContext is the empty conversion context
var NoContext = ConversionContext{}

// HasDensity reports whether a usable density is set
func (c ConversionContext) HasDensity() bool {
	return c.Density.IsPositive()
}

// HasPieceWeight reports whether a usable piece weight is set
func (c ConversionContext) HasPieceWeight() bool {
	return c.PieceWeight.IsPositive()
}

// ConvertAmount converts amount expressed in from into to.
// Same-category conversion goes through the base unit. Mass and volume
// convert through density (kg = L * density), count and mass through piece weight
// (kg = pieces * pieceWeight). Count and volume need both.
func ConvertAmount(amount decimal.Decimal, from, to Unit, ctx ConversionContext) (decimal.Decimal, error) {
	if !from.IsValid() {
		return decimal.Zero, shared.NewValidationError("unsupported unit: %q", string(from))
	}
	if !to.IsValid() {
		return decimal.Zero, shared.NewValidationError("unsupported unit: %q", string(to))
	}
	if from == to {
		return amount, nil
	}

	fromCat, toCat := from.Category(), to.Category()
	if fromCat == toCat {
		return amount.Mul(from.BaseFactor()).Div(to.BaseFactor()), nil
	}

	if fromCat != CategoryCount && toCat != CategoryCount && !ctx.HasDensity() {
		return decimal.Zero, shared.NewDomainError(shared.CodeMissingDensity,
			fmt.Sprintf("cannot convert %s to %s without density", from, to))
	}
	if (fromCat == CategoryCount || toCat == CategoryCount) && !ctx.HasPieceWeight() {
		return decimal.Zero, shared.NewDomainError(shared.CodeMissingPieceWeight,
			fmt.Sprintf("cannot convert %s to %s without piece weight", from, to))
	}

	kg, err := toKilograms(amount.Mul(from.BaseFactor()), fromCat, ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	base, err := fromKilograms(kg, toCat, ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return base.Div(to.BaseFactor()), nil
}

func toKilograms(base decimal.Decimal, cat UnitCategory, ctx ConversionContext, from, to Unit) (decimal.Decimal, error) {
	switch cat {
	case CategoryMass:
		return base, nil
	case CategoryVolume:
		if !ctx.HasDensity() {
			return decimal.Zero, shared.NewDomainError(shared.CodeMissingDensity,
				fmt.Sprintf("cannot convert %s to %s without density", from, to))
		}
		return base.Mul(ctx.Density), nil
	default:
		return base.Mul(ctx.PieceWeight), nil
	}
}

func fromKilograms(kg decimal.Decimal, cat UnitCategory, ctx ConversionContext, from, to Unit) (decimal.Decimal, error) {
	switch cat {
	case CategoryMass:
		return kg, nil
	case CategoryVolume:
		if !ctx.HasDensity() {
			return decimal.Zero, shared.NewDomainError(shared.CodeMissingDensity,
				fmt.Sprintf("cannot convert %s to %s without density", from, to))
		}
		return kg.Div(ctx.Density), nil
	default:
		return kg.Div(ctx.PieceWeight), nil
	}
}
