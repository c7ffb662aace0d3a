package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of a ledger entry
type TransactionType string

const (
	TransactionTypePurchase     TransactionType = "PURCHASE"
	TransactionTypeWaste        TransactionType = "WASTE"
	TransactionTypeSale         TransactionType = "SALE"
	TransactionTypeAdjustment   TransactionType = "ADJUSTMENT"
	TransactionTypeProduction   TransactionType = "PRODUCTION"
	TransactionTypeAudit        TransactionType = "AUDIT"
	TransactionTypeInitialStock TransactionType = "INITIAL_STOCK"
)

// ParseTransactionType resolves a type name case-insensitively
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", shared.NewValidationError("unknown transaction type: %q", s)
	}
	return t, nil
}

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypePurchase, TransactionTypeWaste, TransactionTypeSale,
		TransactionTypeAdjustment, TransactionTypeProduction, TransactionTypeAudit,
		TransactionTypeInitialStock:
		return true
	}
	return false
}

// IsIncrease returns true for types that always add stock
func (t TransactionType) IsIncrease() bool {
	switch t {
	case TransactionTypePurchase, TransactionTypeProduction, TransactionTypeInitialStock:
		return true
	}
	return false
}

// IsDecrease returns true for types that always remove stock
func (t TransactionType) IsDecrease() bool {
	switch t {
	case TransactionTypeWaste, TransactionTypeSale:
		return true
	}
	return false
}

// String returns the string representation
func (t TransactionType) String() string {
	return string(t)
}

// Direction is the sign of a stock movement
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// ParseDirection resolves "increase" or "decrease"
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if d != DirectionIncrease && d != DirectionDecrease {
		return "", shared.NewValidationError("direction must be increase or decrease, got %q", s)
	}
	return d, nil
}

// ResolveDirection maps a transaction type to the direction it moves stock.
// Directional types use the supplied direction, which must then be set.
func ResolveDirection(t TransactionType, supplied Direction) (Direction, error) {
	switch {
	case !t.IsValid():
		return "", shared.NewValidationError("unknown transaction type: %q", string(t))
	case t.IsIncrease():
		return DirectionIncrease, nil
	case t.IsDecrease():
		return DirectionDecrease, nil
	}
	if supplied != DirectionIncrease && supplied != DirectionDecrease {
		return "", shared.NewValidationError("%s requires a direction", t)
	}
	return supplied, nil
}

// StockTransaction is an append-only ledger entry.
// Quantity is signed: positive adds stock, negative removes it.
type StockTransaction struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	IngredientID   uuid.UUID
	IngredientName string
	Quantity       decimal.Decimal
	Unit           valueobject.Unit
	UnitCost       valueobject.UnitPrice // per Unit
	TotalCost      valueobject.Money
	Type           TransactionType
	Date           time.Time
	PerformedBy    string
	Reason         string
	ReferenceID    string
	BatchID        *uuid.UUID
	BalanceAfter   decimal.Decimal
	CreatedAt      time.Time
}

// IsInbound returns true if the entry added stock
func (t *StockTransaction) IsInbound() bool {
	return t.Quantity.IsPositive()
}

// StockTransactionBuilder provides a fluent API for creating ledger entries
type StockTransactionBuilder struct {
	tx  *StockTransaction
	err error
}

// NewStockTransactionBuilder starts a ledger entry for ingredient.
// signedQuantity is in the ingredient's stock unit, positive for inbound movements
// and negative for outbound ones. price may be quoted per any convertible unit;
// the entry stores it per stock unit and prices the quantity once, to the cent.
func NewStockTransactionBuilder(
	id uuid.UUID,
	ingredient *Ingredient,
	txType TransactionType,
	signedQuantity decimal.Decimal,
	price valueobject.UnitPrice,
	date time.Time,
) *StockTransactionBuilder {
	if ingredient == nil {
		return &StockTransactionBuilder{err: shared.NewValidationError("ingredient is required")}
	}
	if !txType.IsValid() {
		return &StockTransactionBuilder{err: shared.NewValidationError("unknown transaction type: %q", string(txType))}
	}
	if signedQuantity.IsZero() {
		return &StockTransactionBuilder{err: shared.NewValidationError("transaction quantity cannot be zero")}
	}
	if txType.IsIncrease() && signedQuantity.IsNegative() {
		return &StockTransactionBuilder{err: shared.NewValidationError("%s quantity must be positive", txType)}
	}
	if txType.IsDecrease() && signedQuantity.IsPositive() {
		return &StockTransactionBuilder{err: shared.NewValidationError("%s quantity must be negative", txType)}
	}
	if price.Amount().IsNegative() {
		return &StockTransactionBuilder{err: shared.NewValidationError("unit cost cannot be negative")}
	}
	unitCost, err := price.In(ingredient.Unit, ingredient.ConversionContext())
	if err != nil {
		return &StockTransactionBuilder{err: err}
	}
	moved, err := valueobject.NewQuantity(signedQuantity.Abs(), ingredient.Unit)
	if err != nil {
		return &StockTransactionBuilder{err: err}
	}
	total, err := unitCost.CostOf(moved, ingredient.ConversionContext())
	if err != nil {
		return &StockTransactionBuilder{err: err}
	}

	return &StockTransactionBuilder{
		tx: &StockTransaction{
			ID:             id,
			TenantID:       ingredient.TenantID,
			IngredientID:   ingredient.ID,
			IngredientName: ingredient.Name,
			Quantity:       signedQuantity,
			Unit:           ingredient.Unit,
			UnitCost:       unitCost,
			TotalCost:      total,
			Type:           txType,
			Date:           date,
			BalanceAfter:   ingredient.CurrentStock.Amount(),
			CreatedAt:      date,
		},
	}
}

// WithReason sets the free-text reason
func (b *StockTransactionBuilder) WithReason(reason string) *StockTransactionBuilder {
	if b.err != nil || b.tx == nil {
		return b
	}
	b.tx.Reason = strings.TrimSpace(reason)
	return b
}

// WithReference sets the external reference (order, invoice, audit id)
func (b *StockTransactionBuilder) WithReference(referenceID string) *StockTransactionBuilder {
	if b.err != nil || b.tx == nil {
		return b
	}
	b.tx.ReferenceID = referenceID
	return b
}

// WithTotalCost replaces the computed total, e.g. with the invoiced batch total
func (b *StockTransactionBuilder) WithTotalCost(total valueobject.Money) *StockTransactionBuilder {
	if b.err != nil || b.tx == nil {
		return b
	}
	b.tx.TotalCost = total
	return b
}

// WithBatchID links the entry to the batch it created
func (b *StockTransactionBuilder) WithBatchID(batchID uuid.UUID) *StockTransactionBuilder {
	if b.err != nil || b.tx == nil {
		return b
	}
	b.tx.BatchID = &batchID
	return b
}

// WithPerformedBy sets the user who performed the movement
func (b *StockTransactionBuilder) WithPerformedBy(user string) *StockTransactionBuilder {
	if b.err != nil || b.tx == nil {
		return b
	}
	b.tx.PerformedBy = user
	return b
}

// WithBalanceAfter overrides the stock balance recorded on the entry
func (b *StockTransactionBuilder) WithBalanceAfter(balance decimal.Decimal) *StockTransactionBuilder {
	if b.err != nil || b.tx == nil {
		return b
	}
	b.tx.BalanceAfter = balance
	return b
}

// Build returns the transaction or the first error encountered
func (b *StockTransactionBuilder) Build() (*StockTransaction, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}
