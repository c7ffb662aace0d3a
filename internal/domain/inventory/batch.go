package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
)

// BatchStatus is the lifecycle state of a batch
type BatchStatus string

const (
	BatchStatusActive   BatchStatus = "ACTIVE"
	BatchStatusDepleted BatchStatus = "DEPLETED"
	BatchStatusExpired  BatchStatus = "EXPIRED"
)

// IsValid checks if the status is valid
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusActive, BatchStatusDepleted, BatchStatusExpired:
		return true
	}
	return false
}

// String returns the string representation
func (s BatchStatus) String() string {
	return string(s)
}

// Batch is one received delivery (lot) of an ingredient.
// RemainingQuantity never goes negative and only decreases after creation.
type Batch struct {
	shared.BaseEntity
	TenantID          uuid.UUID
	IngredientID      uuid.UUID
	OutletID          uuid.UUID
	LotNumber         string
	Quantity          valueobject.Quantity
	RemainingQuantity valueobject.Quantity
	UnitCost          valueobject.Money
	TotalCost         valueobject.Money
	Supplier          string
	ExpiryDate        *time.Time
	ReceivedDate      time.Time
	Status            BatchStatus
	InvoiceRef        string
	Notes             string
}

// NewBatchParams holds the fields required to create a Batch
type NewBatchParams struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	IngredientID uuid.UUID
	OutletID     uuid.UUID
	LotNumber    string
	Quantity     valueobject.Quantity
	UnitCost     valueobject.Money
	Supplier     string
	ExpiryDate   *time.Time
	ReceivedDate time.Time
	InvoiceRef   string
	Notes        string
	Now          time.Time
}

// NewBatch creates an ACTIVE batch with RemainingQuantity equal to Quantity
func NewBatch(p NewBatchParams) (*Batch, error) {
	if p.IngredientID == uuid.Nil {
		return nil, shared.NewValidationError("ingredient is required")
	}
	if p.OutletID == uuid.Nil {
		return nil, shared.NewValidationError("outlet is required")
	}
	if !p.Quantity.IsPositive() {
		return nil, shared.NewValidationError("batch quantity must be positive")
	}
	if p.UnitCost.IsNegative() {
		return nil, shared.NewValidationError("unit cost cannot be negative")
	}
	received := p.ReceivedDate
	if received.IsZero() {
		received = p.Now
	}
	if p.ExpiryDate != nil && p.ExpiryDate.Before(received) {
		return nil, shared.NewValidationError("expiry date cannot be before received date")
	}

	return &Batch{
		BaseEntity:        shared.NewBaseEntity(p.ID, p.Now),
		TenantID:          p.TenantID,
		IngredientID:      p.IngredientID,
		OutletID:          p.OutletID,
		LotNumber:         strings.TrimSpace(p.LotNumber),
		Quantity:          p.Quantity,
		RemainingQuantity: p.Quantity,
		UnitCost:          p.UnitCost,
		TotalCost:         p.UnitCost.Multiply(p.Quantity.Amount()),
		Supplier:          strings.TrimSpace(p.Supplier),
		ExpiryDate:        p.ExpiryDate,
		ReceivedDate:      received,
		Status:            BatchStatusActive,
		InvoiceRef:        p.InvoiceRef,
		Notes:             p.Notes,
	}, nil
}

// IsActive returns true if the batch can still be consumed
func (b *Batch) IsActive() bool {
	return b.Status == BatchStatusActive
}

// Consume removes q (converted into the batch unit) from the remaining quantity.
// The batch becomes DEPLETED when nothing is left.
func (b *Batch) Consume(q valueobject.Quantity, ctx valueobject.ConversionContext, now time.Time) error {
	if !b.IsActive() {
		return shared.NewValidationError("batch %s is %s and cannot be consumed", b.ID, b.Status)
	}
	remaining, err := b.RemainingQuantity.Subtract(q, ctx)
	if err != nil {
		return err
	}
	b.RemainingQuantity = remaining
	if remaining.IsZero() {
		b.RemainingQuantity = valueobject.ZeroQuantity(remaining.Unit())
		b.Status = BatchStatusDepleted
	}
	b.Touch(now)
	return nil
}

// IsExpired reports whether the expiry date has passed at now
func (b *Batch) IsExpired(now time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(now)
}

// ExpiresWithin reports whether the batch expires in [now, until]
func (b *Batch) ExpiresWithin(now, until time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return !b.ExpiryDate.Before(now) && !b.ExpiryDate.After(until)
}

// MarkExpired moves an ACTIVE batch past its expiry date to EXPIRED
func (b *Batch) MarkExpired(now time.Time) error {
	if !b.IsActive() {
		return shared.NewValidationError("batch %s is %s and cannot expire", b.ID, b.Status)
	}
	if !b.IsExpired(now) {
		return shared.NewValidationError("batch %s has not passed its expiry date", b.ID)
	}
	b.Status = BatchStatusExpired
	b.Touch(now)
	return nil
}

// ConsumedCost prices q at the batch unit cost
func (b *Batch) ConsumedCost(q valueobject.Quantity) valueobject.Money {
	return b.UnitCost.Multiply(q.Amount())
}
