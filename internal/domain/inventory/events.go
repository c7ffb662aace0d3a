package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeIngredient = "Ingredient"
	AggregateTypeBatch      = "Batch"
)

// Event type constants
const (
	EventTypeStockReceived = "StockReceived"
	EventTypeStockConsumed = "StockConsumed"
	EventTypeStockLow      = "StockLow"
	EventTypeBatchExpired  = "BatchExpired"
)

// StockReceivedEvent is raised when a batch adds stock to an ingredient
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	IngredientID uuid.UUID         `json:"ingredient_id"`
	OutletID     uuid.UUID         `json:"outlet_id"`
	Quantity     decimal.Decimal   `json:"quantity"`
	Unit         valueobject.Unit  `json:"unit"`
	UnitCost     valueobject.Money `json:"unit_cost"`
	NewStock     decimal.Decimal   `json:"new_stock"`
}

// NewStockReceivedEvent creates a new StockReceivedEvent
func NewStockReceivedEvent(i *Ingredient, received valueobject.Quantity, unitCost valueobject.Money, now time.Time) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, AggregateTypeIngredient, i.ID, i.TenantID, now),
		IngredientID:    i.ID,
		OutletID:        i.OutletID,
		Quantity:        received.Amount(),
		Unit:            received.Unit(),
		UnitCost:        unitCost,
		NewStock:        i.CurrentStock.Amount(),
	}
}

// StockConsumedEvent is raised when stock leaves an ingredient
type StockConsumedEvent struct {
	shared.BaseDomainEvent
	IngredientID uuid.UUID        `json:"ingredient_id"`
	OutletID     uuid.UUID        `json:"outlet_id"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Unit         valueobject.Unit `json:"unit"`
	Reason       TransactionType  `json:"reason"`
	NewStock     decimal.Decimal  `json:"new_stock"`
}

// NewStockConsumedEvent creates a new StockConsumedEvent
func NewStockConsumedEvent(i *Ingredient, released valueobject.Quantity, reason TransactionType, now time.Time) *StockConsumedEvent {
	return &StockConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockConsumed, AggregateTypeIngredient, i.ID, i.TenantID, now),
		IngredientID:    i.ID,
		OutletID:        i.OutletID,
		Quantity:        released.Amount(),
		Unit:            released.Unit(),
		Reason:          reason,
		NewStock:        i.CurrentStock.Amount(),
	}
}

// StockLowEvent is raised when consumption leaves stock under the minimum
type StockLowEvent struct {
	shared.BaseDomainEvent
	IngredientID   uuid.UUID        `json:"ingredient_id"`
	OutletID       uuid.UUID        `json:"outlet_id"`
	IngredientName string           `json:"ingredient_name"`
	CurrentStock   decimal.Decimal  `json:"current_stock"`
	MinimumStock   decimal.Decimal  `json:"minimum_stock"`
	Unit           valueobject.Unit `json:"unit"`
}

// NewStockLowEvent creates a new StockLowEvent
func NewStockLowEvent(i *Ingredient, now time.Time) *StockLowEvent {
	return &StockLowEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockLow, AggregateTypeIngredient, i.ID, i.TenantID, now),
		IngredientID:    i.ID,
		OutletID:        i.OutletID,
		IngredientName:  i.Name,
		CurrentStock:    i.CurrentStock.Amount(),
		MinimumStock:    i.MinimumStock.Amount(),
		Unit:            i.Unit,
	}
}

// BatchExpiredEvent is raised when the expiry sweep retires a batch
type BatchExpiredEvent struct {
	shared.BaseDomainEvent
	BatchID        uuid.UUID         `json:"batch_id"`
	IngredientID   uuid.UUID         `json:"ingredient_id"`
	LotNumber      string            `json:"lot_number"`
	WrittenOff     decimal.Decimal   `json:"written_off"`
	Unit           valueobject.Unit  `json:"unit"`
	WrittenOffCost valueobject.Money `json:"written_off_cost"`
	ExpiryDate     time.Time         `json:"expiry_date"`
}

// NewBatchExpiredEvent creates a new BatchExpiredEvent
func NewBatchExpiredEvent(b *Batch, writtenOff valueobject.Quantity, now time.Time) *BatchExpiredEvent {
	var expiry time.Time
	if b.ExpiryDate != nil {
		expiry = *b.ExpiryDate
	}
	return &BatchExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchExpired, AggregateTypeBatch, b.ID, b.TenantID, now),
		BatchID:         b.ID,
		IngredientID:    b.IngredientID,
		LotNumber:       b.LotNumber,
		WrittenOff:      writtenOff.Amount(),
		Unit:            writtenOff.Unit(),
		WrittenOffCost:  b.ConsumedCost(writtenOff),
		ExpiryDate:      expiry,
	}
}
