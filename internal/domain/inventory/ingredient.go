package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Ingredient is the aggregate root for one stocked ingredient at an outlet.
// CurrentStock is a cached total of the ingredient's active batches and is only
// changed by ReceiveStock and ReleaseStock.
type Ingredient struct {
	shared.TenantAggregateRoot
	OutletID     uuid.UUID
	Name         string
	Category     string
	SKU          string
	Unit         valueobject.Unit
	Density      decimal.Decimal // kg per L, zero if unknown
	PieceWeight  decimal.Decimal // kg per piece, zero if unknown
	Currency     valueobject.Currency
	CurrentStock valueobject.Quantity
	MinimumStock valueobject.Quantity
	// LastCost is the unit cost of the latest batch as invoiced, quoted per LastCostUnit
	LastCost     *valueobject.Money
	LastCostUnit valueobject.Unit
	// AverageCost is the moving weighted average per stock unit
	AverageCost *valueobject.UnitPrice
}

// NewIngredientParams holds the fields required to create an Ingredient
type NewIngredientParams struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	OutletID     uuid.UUID
	Name         string
	Category     string
	SKU          string
	Unit         valueobject.Unit
	Density      decimal.Decimal
	PieceWeight  decimal.Decimal
	Currency     valueobject.Currency
	MinimumStock decimal.Decimal
	Now          time.Time
}

// NewIngredient creates an ingredient with zero stock
func NewIngredient(p NewIngredientParams) (*Ingredient, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, shared.NewValidationError("ingredient name is required")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("ingredient name cannot exceed 200 characters")
	}
	if p.OutletID == uuid.Nil {
		return nil, shared.NewValidationError("outlet is required")
	}
	if !p.Unit.IsValid() {
		return nil, shared.NewValidationError("unsupported unit: %q", string(p.Unit))
	}
	if p.Density.IsNegative() || p.PieceWeight.IsNegative() {
		return nil, shared.NewValidationError("density and piece weight cannot be negative")
	}
	minimum, err := valueobject.NewQuantity(p.MinimumStock, p.Unit)
	if err != nil {
		return nil, err
	}
	currency := p.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	return &Ingredient{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(p.TenantID, p.ID, p.Now),
		OutletID:            p.OutletID,
		Name:                name,
		Category:            strings.TrimSpace(p.Category),
		SKU:                 strings.TrimSpace(p.SKU),
		Unit:                p.Unit,
		Density:             p.Density,
		PieceWeight:         p.PieceWeight,
		Currency:            currency,
		CurrentStock:        valueobject.ZeroQuantity(p.Unit),
		MinimumStock:        minimum,
	}, nil
}

// ConversionContext returns the density and piece weight used to convert
// quantities of this ingredient across unit categories
func (i *Ingredient) ConversionContext() valueobject.ConversionContext {
	return valueobject.ConversionContext{
		Density:     i.Density,
		PieceWeight: i.PieceWeight,
	}
}

// ToStockUnit expresses q in the ingredient's stock unit
func (i *Ingredient) ToStockUnit(q valueobject.Quantity) (valueobject.Quantity, error) {
	return q.ConvertTo(i.Unit, i.ConversionContext())
}

// EnsureAvailable fails with INSUFFICIENT_STOCK when requested exceeds CurrentStock
func (i *Ingredient) EnsureAvailable(requested valueobject.Quantity) error {
	greater, err := requested.IsGreaterThan(i.CurrentStock, i.ConversionContext())
	if err != nil {
		return err
	}
	if greater {
		return NewInsufficientStockError(i.Name, requested, i.CurrentStock)
	}
	return nil
}

// ReceiveStock adds q to CurrentStock, sets LastCost to unitCost as given and
// recomputes AverageCost as the moving weighted average of stock on hand.
// unitCost is the price per unit of q.
func (i *Ingredient) ReceiveStock(q valueobject.Quantity, unitCost valueobject.Money, now time.Time) error {
	if !q.IsPositive() {
		return shared.NewValidationError("received quantity must be positive")
	}
	if unitCost.IsNegative() {
		return shared.NewValidationError("unit cost cannot be negative")
	}
	if unitCost.Currency() != i.Currency {
		return shared.NewDomainError(shared.CodeCurrencyMismatch,
			fmt.Sprintf("unit cost currency %s does not match ingredient currency %s", unitCost.Currency(), i.Currency))
	}

	received, err := i.ToStockUnit(q)
	if err != nil {
		return err
	}
	stockPrice, err := valueobject.PricePer(unitCost, q.Unit()).In(i.Unit, i.ConversionContext())
	if err != nil {
		return err
	}

	previous := i.CurrentStock
	newStock, err := previous.Add(received, i.ConversionContext())
	if err != nil {
		return err
	}

	// New Cost = (Old Quantity * Old Cost + New Quantity * New Cost) / (Old Quantity + New Quantity)
	avg := stockPrice
	if i.AverageCost != nil && previous.IsPositive() {
		held, err := i.AverageCost.In(i.Unit, i.ConversionContext())
		if err != nil {
			return err
		}
		avg, err = held.WeightedAverage(previous.Amount(), stockPrice, received.Amount())
		if err != nil {
			return err
		}
	}

	i.CurrentStock = newStock
	i.LastCost = &unitCost
	i.LastCostUnit = q.Unit()
	i.AverageCost = &avg
	i.Touch(now)

	i.AddDomainEvent(NewStockReceivedEvent(i, q, unitCost, now))
	return nil
}

// ReleaseStock removes q from CurrentStock
func (i *Ingredient) ReleaseStock(q valueobject.Quantity, reason TransactionType, now time.Time) error {
	if err := i.EnsureAvailable(q); err != nil {
		return err
	}
	released, err := i.ToStockUnit(q)
	if err != nil {
		return err
	}
	newStock, err := i.CurrentStock.Subtract(released, i.ConversionContext())
	if err != nil {
		return err
	}

	i.CurrentStock = newStock
	i.Touch(now)

	i.AddDomainEvent(NewStockConsumedEvent(i, released, reason, now))
	if i.IsBelowMinimum() {
		i.AddDomainEvent(NewStockLowEvent(i, now))
	}
	return nil
}

// LastPrice is LastCost quoted per LastCostUnit, or nil before the first receipt
func (i *Ingredient) LastPrice() *valueobject.UnitPrice {
	if i.LastCost == nil {
		return nil
	}
	unit := i.LastCostUnit
	if unit == "" {
		unit = i.Unit
	}
	p := valueobject.PricePer(*i.LastCost, unit)
	return &p
}

// ConsumptionPrice is the price per stock unit booked on outgoing ledger rows:
// average cost, then last cost, then zero
func (i *Ingredient) ConsumptionPrice() valueobject.UnitPrice {
	if i.AverageCost != nil {
		if p, err := i.AverageCost.In(i.Unit, i.ConversionContext()); err == nil {
			return p
		}
	}
	if last := i.LastPrice(); last != nil {
		if p, err := last.In(i.Unit, i.ConversionContext()); err == nil {
			return p
		}
	}
	return valueobject.ZeroPrice(i.Currency, i.Unit)
}

// IsBelowMinimum reports whether CurrentStock is under MinimumStock
func (i *Ingredient) IsBelowMinimum() bool {
	if !i.MinimumStock.IsPositive() {
		return false
	}
	below, err := i.CurrentStock.IsLessThan(i.MinimumStock, i.ConversionContext())
	return err == nil && below
}

// StockValue is CurrentStock priced at ConsumptionPrice
func (i *Ingredient) StockValue() valueobject.Money {
	value, err := i.ConsumptionPrice().CostOf(i.CurrentStock, i.ConversionContext())
	if err != nil {
		return valueobject.Zero(i.Currency)
	}
	return value
}

// UpdateDetails changes descriptive fields
func (i *Ingredient) UpdateDetails(name, category string, minimumStock decimal.Decimal, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("ingredient name is required")
	}
	minimum, err := valueobject.NewQuantity(minimumStock, i.Unit)
	if err != nil {
		return err
	}
	i.Name = name
	i.Category = strings.TrimSpace(category)
	i.MinimumStock = minimum
	i.Touch(now)
	return nil
}

// NewInsufficientStockError reports both the requested and the available quantity
func NewInsufficientStockError(name string, requested, available valueobject.Quantity) *shared.DomainError {
	return shared.NewDomainError(shared.CodeInsufficientStock,
		fmt.Sprintf("Insufficient stock for %s: requested %s, available %s", name, requested, available))
}
