package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type serviceFixture struct {
	service     *InventoryService
	ingredients *MockIngredientRepository
	batches     *MockBatchRepository
	ledger      *MockStockTransactionRepository
	publisher   *MockEventPublisher
	metrics     *recordingMetrics
	tenantID    uuid.UUID
	outletID    uuid.UUID
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		ingredients: new(MockIngredientRepository),
		batches:     new(MockBatchRepository),
		ledger:      new(MockStockTransactionRepository),
		publisher:   NewMockEventPublisher(),
		metrics:     &recordingMetrics{},
		tenantID:    uuid.New(),
		outletID:    uuid.New(),
	}
	scope := NewNoOpTransactionScope(f.ingredients, f.batches, f.ledger)
	f.service = NewInventoryService(f.ingredients, f.batches, f.ledger, scope, DefaultServiceConfig())
	f.service.SetClock(shared.FixedClock{At: fixedNow})
	f.service.SetIDGenerator(shared.NewSequenceIDGenerator(1000))
	f.service.SetEventPublisher(f.publisher)
	f.service.SetMetrics(f.metrics)
	return f
}

// newFlour builds a kg ingredient holding stock at 1.00 per kg
func (f *serviceFixture) newFlour(t *testing.T, id uuid.UUID, stock, minimum float64) *inventory.Ingredient {
	t.Helper()
	ingredient, err := inventory.NewIngredient(inventory.NewIngredientParams{
		ID:           id,
		TenantID:     f.tenantID,
		OutletID:     f.outletID,
		Name:         "Flour",
		Unit:         valueobject.Kilogram,
		Currency:     valueobject.USD,
		MinimumStock: decimal.NewFromFloat(minimum),
		Now:          fixedNow.AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	if stock > 0 {
		require.NoError(t, ingredient.ReceiveStock(
			valueobject.MustNewQuantity(stock, valueobject.Kilogram),
			valueobject.NewMoney(1, valueobject.USD),
			fixedNow.AddDate(0, 0, -5),
		))
	}
	ingredient.ClearDomainEvents()
	return ingredient
}

// flourFunc returns a fresh copy of the ingredient on each repository call
func (f *serviceFixture) flourFunc(t *testing.T, id uuid.UUID, stock, minimum float64) ingredientFunc {
	return func() *inventory.Ingredient {
		return f.newFlour(t, id, stock, minimum)
	}
}

type batchSpec struct {
	id       uuid.UUID
	qty      float64
	unitCost float64
	daysAgo  int
}

func (f *serviceFixture) newBatch(t *testing.T, ingredientID uuid.UUID, spec batchSpec) inventory.Batch {
	t.Helper()
	batch, err := inventory.NewBatch(inventory.NewBatchParams{
		ID:           spec.id,
		TenantID:     f.tenantID,
		IngredientID: ingredientID,
		OutletID:     f.outletID,
		LotNumber:    "LOT-" + spec.id.String()[:4],
		Quantity:     valueobject.MustNewQuantity(spec.qty, valueobject.Kilogram),
		UnitCost:     valueobject.NewMoney(spec.unitCost, valueobject.USD),
		ReceivedDate: fixedNow.AddDate(0, 0, -spec.daysAgo),
		Now:          fixedNow.AddDate(0, 0, -spec.daysAgo),
	})
	require.NoError(t, err)
	return *batch
}

// freshBatches returns a fresh slice on each call, since consumption mutates batches
func (f *serviceFixture) freshBatches(t *testing.T, ingredientID uuid.UUID, specs ...batchSpec) batchesFunc {
	return func() []inventory.Batch {
		out := make([]inventory.Batch, len(specs))
		for i, spec := range specs {
			out[i] = f.newBatch(t, ingredientID, spec)
		}
		return out
	}
}
