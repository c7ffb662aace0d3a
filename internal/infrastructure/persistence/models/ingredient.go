package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// IngredientModel is the persistence model for the Ingredient aggregate root.
type IngredientModel struct {
	TenantAggregateModel
	OutletID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name          string           `gorm:"type:varchar(200);not null"`
	Category      string           `gorm:"type:varchar(100);index"`
	SKU           string           `gorm:"column:sku;type:varchar(50)"`
	Unit          string           `gorm:"type:varchar(10);not null"`
	Density       decimal.Decimal  `gorm:"type:decimal(18,6);not null;default:0"`
	PieceWeight   decimal.Decimal  `gorm:"type:decimal(18,6);not null;default:0"`
	Currency      string           `gorm:"type:varchar(3);not null"`
	CurrentStock  decimal.Decimal  `gorm:"type:decimal(30,12);not null;default:0"`
	MinimumStock  decimal.Decimal  `gorm:"type:decimal(30,12);not null;default:0"`
	LastCostCents *int64           `gorm:"type:bigint"`
	LastCostUnit  string           `gorm:"type:varchar(10)"`
	AverageCost   *decimal.Decimal `gorm:"type:decimal(30,10)"`
}

// TableName returns the table name for GORM
func (IngredientModel) TableName() string {
	return "ingredients"
}

// ToDomain converts the persistence model to a domain Ingredient.
func (m *IngredientModel) ToDomain() (*inventory.Ingredient, error) {
	unit, err := valueobject.ParseUnit(m.Unit)
	if err != nil {
		return nil, fmt.Errorf("ingredient %s: %w", m.ID, err)
	}
	currentStock, err := valueobject.NewQuantity(m.CurrentStock, unit)
	if err != nil {
		return nil, fmt.Errorf("ingredient %s: %w", m.ID, err)
	}
	minimumStock, err := valueobject.NewQuantity(m.MinimumStock, unit)
	if err != nil {
		return nil, fmt.Errorf("ingredient %s: %w", m.ID, err)
	}
	currency := valueobject.Currency(m.Currency)

	ingredient := &inventory.Ingredient{
		OutletID:     m.OutletID,
		Name:         m.Name,
		Category:     m.Category,
		SKU:          m.SKU,
		Unit:         unit,
		Density:      m.Density,
		PieceWeight:  m.PieceWeight,
		Currency:     currency,
		CurrentStock: currentStock,
		MinimumStock: minimumStock,
		LastCost:     moneyPtr(m.LastCostCents, currency),
	}
	if m.LastCostCents != nil {
		ingredient.LastCostUnit = unit
		if m.LastCostUnit != "" {
			if ingredient.LastCostUnit, err = valueobject.ParseUnit(m.LastCostUnit); err != nil {
				return nil, fmt.Errorf("ingredient %s: %w", m.ID, err)
			}
		}
	}
	if m.AverageCost != nil {
		avg, err := valueobject.NewUnitPrice(*m.AverageCost, currency, unit)
		if err != nil {
			return nil, fmt.Errorf("ingredient %s: %w", m.ID, err)
		}
		ingredient.AverageCost = &avg
	}
	m.PopulateTenantAggregateRoot(&ingredient.TenantAggregateRoot)
	return ingredient, nil
}

// FromDomain populates the persistence model from a domain Ingredient.
func (m *IngredientModel) FromDomain(i *inventory.Ingredient) {
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	m.OutletID = i.OutletID
	m.Name = i.Name
	m.Category = i.Category
	m.SKU = i.SKU
	m.Unit = i.Unit.String()
	m.Density = i.Density
	m.PieceWeight = i.PieceWeight
	m.Currency = string(i.Currency)
	m.CurrentStock = i.CurrentStock.Amount()
	m.MinimumStock = i.MinimumStock.Amount()
	m.LastCostCents = centsPtr(i.LastCost)
	m.LastCostUnit = ""
	if i.LastCost != nil {
		m.LastCostUnit = i.LastCostUnit.String()
	}
	m.AverageCost = nil
	if i.AverageCost != nil {
		// stored per stock unit
		avg, err := i.AverageCost.In(i.Unit, i.ConversionContext())
		if err != nil {
			avg = *i.AverageCost
		}
		amount := avg.Amount()
		m.AverageCost = &amount
	}
}

// IngredientModelFromDomain creates a new persistence model from a domain Ingredient.
func IngredientModelFromDomain(i *inventory.Ingredient) *IngredientModel {
	m := &IngredientModel{}
	m.FromDomain(i)
	return m
}

// IngredientsToDomain converts a slice of models, failing on the first invalid row
func IngredientsToDomain(rows []IngredientModel) ([]inventory.Ingredient, error) {
	out := make([]inventory.Ingredient, 0, len(rows))
	for i := range rows {
		ingredient, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *ingredient)
	}
	return out, nil
}

func moneyPtr(cents *int64, currency valueobject.Currency) *valueobject.Money {
	if cents == nil {
		return nil
	}
	m := valueobject.FromCents(*cents, currency)
	return &m
}

func centsPtr(m *valueobject.Money) *int64 {
	if m == nil {
		return nil
	}
	c := m.Cents()
	return &c
}
