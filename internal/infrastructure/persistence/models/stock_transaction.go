package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// StockTransactionModel is the persistence model for ledger entries.
// Rows are only ever inserted.
type StockTransactionModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_tx_ingredient_date,priority:1"`
	IngredientName string          `gorm:"type:varchar(200);not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(30,12);not null"`
	Unit           string          `gorm:"type:varchar(10);not null"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(30,10);not null"`
	TotalCostCents int64           `gorm:"type:bigint;not null"`
	Currency       string          `gorm:"type:varchar(3);not null"`
	Type           string          `gorm:"type:varchar(20);not null;index"`
	Date           time.Time       `gorm:"not null;index:idx_stock_tx_ingredient_date,priority:2"`
	PerformedBy    string          `gorm:"type:varchar(100)"`
	Reason         string          `gorm:"type:varchar(500)"`
	ReferenceID    string          `gorm:"type:varchar(100);index"`
	BatchID        *uuid.UUID      `gorm:"type:uuid;index"`
	BalanceAfter   decimal.Decimal `gorm:"type:decimal(30,12);not null"`
	CreatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockTransactionModel) TableName() string {
	return "stock_transactions"
}

// ToDomain converts the persistence model to a domain StockTransaction.
func (m *StockTransactionModel) ToDomain() (*inventory.StockTransaction, error) {
	unit, err := valueobject.ParseUnit(m.Unit)
	if err != nil {
		return nil, fmt.Errorf("stock transaction %s: %w", m.ID, err)
	}
	txType, err := inventory.ParseTransactionType(m.Type)
	if err != nil {
		return nil, fmt.Errorf("stock transaction %s: %w", m.ID, err)
	}
	currency := valueobject.Currency(m.Currency)
	unitCost, err := valueobject.NewUnitPrice(m.UnitCost, currency, unit)
	if err != nil {
		return nil, fmt.Errorf("stock transaction %s: %w", m.ID, err)
	}
	return &inventory.StockTransaction{
		ID:             m.ID,
		TenantID:       m.TenantID,
		IngredientID:   m.IngredientID,
		IngredientName: m.IngredientName,
		Quantity:       m.Quantity,
		Unit:           unit,
		UnitCost:       unitCost,
		TotalCost:      valueobject.FromCents(m.TotalCostCents, currency),
		Type:           txType,
		Date:           m.Date,
		PerformedBy:    m.PerformedBy,
		Reason:         m.Reason,
		ReferenceID:    m.ReferenceID,
		BatchID:        m.BatchID,
		BalanceAfter:   m.BalanceAfter,
		CreatedAt:      m.CreatedAt,
	}, nil
}

// FromDomain populates the persistence model from a domain StockTransaction.
func (m *StockTransactionModel) FromDomain(tx *inventory.StockTransaction) {
	m.ID = tx.ID
	m.TenantID = tx.TenantID
	m.IngredientID = tx.IngredientID
	m.IngredientName = tx.IngredientName
	m.Quantity = tx.Quantity
	m.Unit = tx.Unit.String()
	m.UnitCost = tx.UnitCost.Amount()
	m.TotalCostCents = tx.TotalCost.Cents()
	m.Currency = string(tx.UnitCost.Currency())
	m.Type = tx.Type.String()
	m.Date = tx.Date
	m.PerformedBy = tx.PerformedBy
	m.Reason = tx.Reason
	m.ReferenceID = tx.ReferenceID
	m.BatchID = tx.BatchID
	m.BalanceAfter = tx.BalanceAfter
	m.CreatedAt = tx.CreatedAt
}

// StockTransactionModelFromDomain creates a new persistence model from a domain StockTransaction.
func StockTransactionModelFromDomain(tx *inventory.StockTransaction) *StockTransactionModel {
	m := &StockTransactionModel{}
	m.FromDomain(tx)
	return m
}
