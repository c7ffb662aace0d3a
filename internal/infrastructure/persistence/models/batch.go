package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BatchModel is the persistence model for the Batch entity.
type BatchModel struct {
	BaseModel
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_batch_fifo,priority:1"`
	OutletID          uuid.UUID       `gorm:"type:uuid;not null"`
	LotNumber         string          `gorm:"type:varchar(100);not null"`
	Quantity          decimal.Decimal `gorm:"type:decimal(30,12);not null"`
	RemainingQuantity decimal.Decimal `gorm:"type:decimal(30,12);not null"`
	Unit              string          `gorm:"type:varchar(10);not null"`
	UnitCostCents     int64           `gorm:"type:bigint;not null"`
	TotalCostCents    int64           `gorm:"type:bigint;not null"`
	Currency          string          `gorm:"type:varchar(3);not null"`
	Supplier          string          `gorm:"type:varchar(200)"`
	ExpiryDate        *time.Time      `gorm:"index"`
	ReceivedDate      time.Time       `gorm:"not null;index:idx_batch_fifo,priority:3"`
	Status            string          `gorm:"type:varchar(20);not null;index:idx_batch_fifo,priority:2"`
	InvoiceRef        string          `gorm:"type:varchar(100)"`
	Notes             string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BatchModel) TableName() string {
	return "ingredient_batches"
}

// ToDomain converts the persistence model to a domain Batch.
func (m *BatchModel) ToDomain() (*inventory.Batch, error) {
	unit, err := valueobject.ParseUnit(m.Unit)
	if err != nil {
		return nil, fmt.Errorf("batch %s: %w", m.ID, err)
	}
	quantity, err := valueobject.NewQuantity(m.Quantity, unit)
	if err != nil {
		return nil, fmt.Errorf("batch %s: %w", m.ID, err)
	}
	remaining, err := valueobject.NewQuantity(m.RemainingQuantity, unit)
	if err != nil {
		return nil, fmt.Errorf("batch %s: %w", m.ID, err)
	}
	status := inventory.BatchStatus(m.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("batch %s: %w", m.ID, shared.NewValidationError("unknown batch status: %q", m.Status))
	}
	currency := valueobject.Currency(m.Currency)

	return &inventory.Batch{
		BaseEntity:        m.BaseModel.ToDomain(),
		TenantID:          m.TenantID,
		IngredientID:      m.IngredientID,
		OutletID:          m.OutletID,
		LotNumber:         m.LotNumber,
		Quantity:          quantity,
		RemainingQuantity: remaining,
		UnitCost:          valueobject.FromCents(m.UnitCostCents, currency),
		TotalCost:         valueobject.FromCents(m.TotalCostCents, currency),
		Supplier:          m.Supplier,
		ExpiryDate:        m.ExpiryDate,
		ReceivedDate:      m.ReceivedDate,
		Status:            status,
		InvoiceRef:        m.InvoiceRef,
		Notes:             m.Notes,
	}, nil
}

// FromDomain populates the persistence model from a domain Batch.
func (m *BatchModel) FromDomain(b *inventory.Batch) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.TenantID = b.TenantID
	m.IngredientID = b.IngredientID
	m.OutletID = b.OutletID
	m.LotNumber = b.LotNumber
	m.Quantity = b.Quantity.Amount()
	m.RemainingQuantity = b.RemainingQuantity.Amount()
	m.Unit = b.Quantity.Unit().String()
	m.UnitCostCents = b.UnitCost.Cents()
	m.TotalCostCents = b.TotalCost.Cents()
	m.Currency = string(b.UnitCost.Currency())
	m.Supplier = b.Supplier
	m.ExpiryDate = b.ExpiryDate
	m.ReceivedDate = b.ReceivedDate
	m.Status = b.Status.String()
	m.InvoiceRef = b.InvoiceRef
	m.Notes = b.Notes
}

// BatchModelFromDomain creates a new persistence model from a domain Batch.
func BatchModelFromDomain(b *inventory.Batch) *BatchModel {
	m := &BatchModel{}
	m.FromDomain(b)
	return m
}

// BatchesToDomain converts a slice of models, failing on the first invalid row
func BatchesToDomain(rows []BatchModel) ([]inventory.Batch, error) {
	out := make([]inventory.Batch, 0, len(rows))
	for i := range rows {
		batch, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *batch)
	}
	return out, nil
}
