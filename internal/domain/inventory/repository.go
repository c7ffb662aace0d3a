package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/shared"
)

// IngredientRepository defines the interface for ingredient persistence
type IngredientRepository interface {
	// FindByID finds an ingredient by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Ingredient, error)

	// FindByIDForTenant finds an ingredient by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Ingredient, error)

	// FindByIDs finds multiple ingredients by their IDs
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Ingredient, error)

	// FindAllForTenant finds all ingredients for a tenant.
	// Filters supports "outlet_id" and "category".
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Ingredient, error)

	// CountForTenant counts ingredients matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// FindBelowMinimum finds ingredients whose stock is under the minimum
	FindBelowMinimum(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Ingredient, error)

	// CountBelowMinimum counts ingredients whose stock is under the minimum
	CountBelowMinimum(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates an ingredient without a version check
	Save(ctx context.Context, ingredient *Ingredient) error

	// SaveWithLock updates an ingredient only if its stored version matches.
	// On success the ingredient's version is incremented; otherwise
	// CONCURRENCY_CONFLICT is returned.
	SaveWithLock(ctx context.Context, ingredient *Ingredient) error
}

// ExpiryCursor is the position of the last batch an expiry sweep has read
type ExpiryCursor struct {
	ExpiryDate time.Time
	BatchID    uuid.UUID
}

// SweepCursor returns the sweep position of b
func SweepCursor(b Batch) *ExpiryCursor {
	if b.ExpiryDate == nil {
		return nil
	}
	return &ExpiryCursor{ExpiryDate: *b.ExpiryDate, BatchID: b.ID}
}

// BatchRepository defines the interface for batch persistence
type BatchRepository interface {
	// Create inserts a new batch
	Create(ctx context.Context, batch *Batch) error

	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)

	// FindActiveFIFO returns the ingredient's ACTIVE batches, oldest first
	FindActiveFIFO(ctx context.Context, tenantID, ingredientID uuid.UUID) ([]Batch, error)

	// FindByIngredient lists batches of an ingredient.
	// Filters supports "status".
	FindByIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID, filter shared.Filter) ([]Batch, error)

	// CountByIngredient counts batches matching the filter
	CountByIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID, filter shared.Filter) (int64, error)

	// Consume persists a batch's remaining quantity and status
	Consume(ctx context.Context, batch *Batch) error

	// UpdateStatus sets a batch's status
	UpdateStatus(ctx context.Context, id uuid.UUID, status BatchStatus) error

	// FindExpiringWithin finds ACTIVE batches of a tenant expiring in [from, until]
	FindExpiringWithin(ctx context.Context, tenantID uuid.UUID, from, until time.Time) ([]Batch, error)

	// FindExpiredActive finds ACTIVE batches across tenants whose expiry is before now,
	// ordered by expiry date then ID. A non-nil after resumes behind that position.
	FindExpiredActive(ctx context.Context, now time.Time, after *ExpiryCursor, limit int) ([]Batch, error)
}

// StockTransactionRepository defines the interface for ledger persistence.
// The ledger is append-only: there is no update or delete.
type StockTransactionRepository interface {
	// Create appends a ledger entry
	Create(ctx context.Context, tx *StockTransaction) error

	// FindByID finds a ledger entry by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockTransaction, error)

	// FindByIngredient lists an ingredient's entries, newest first.
	// Filters supports "type".
	FindByIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID, filter shared.Filter) ([]StockTransaction, error)

	// CountByIngredient counts entries matching the filter
	CountByIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID, filter shared.Filter) (int64, error)
}
