package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var ledgerEpoch = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

// setupLedgerTestDB creates an in-memory SQLite database with the ledger tables
func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to ":memory:" is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func newTestIngredient(t *testing.T, tenantID, outletID uuid.UUID, name string, unit valueobject.Unit, minimum float64) *inventory.Ingredient {
	t.Helper()
	ingredient, err := inventory.NewIngredient(inventory.NewIngredientParams{
		ID:           uuid.New(),
		TenantID:     tenantID,
		OutletID:     outletID,
		Name:         name,
		Category:     "dry goods",
		Unit:         unit,
		Currency:     valueobject.USD,
		MinimumStock: decimal.NewFromFloat(minimum),
		Now:          ledgerEpoch,
	})
	require.NoError(t, err)
	return ingredient
}

func newTestBatch(t *testing.T, ingredient *inventory.Ingredient, qty float64, unitCostCents int64, received time.Time, expiry *time.Time) *inventory.Batch {
	t.Helper()
	batch, err := inventory.NewBatch(inventory.NewBatchParams{
		ID:           uuid.New(),
		TenantID:     ingredient.TenantID,
		IngredientID: ingredient.ID,
		OutletID:     ingredient.OutletID,
		LotNumber:    "LOT-" + received.Format("0102"),
		Quantity:     valueobject.MustNewQuantity(qty, ingredient.Unit),
		UnitCost:     valueobject.FromCents(unitCostCents, valueobject.USD),
		Supplier:     "Mill & Co",
		ExpiryDate:   expiry,
		ReceivedDate: received,
		Now:          received,
	})
	require.NoError(t, err)
	return batch
}

func timePtr(t time.Time) *time.Time {
	return &t
}
