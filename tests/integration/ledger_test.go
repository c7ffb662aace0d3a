//go:build integration

package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appinv "github.com/kitchenops/backend/internal/application/inventory"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/infrastructure/event"
	"github.com/kitchenops/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var ledgerNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type recordingHandler struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (h *recordingHandler) EventTypes() []string { return nil }

func (h *recordingHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evt)
	return nil
}

func (h *recordingHandler) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, e := range h.events {
		out[i] = e.EventType()
	}
	return out
}

type ledgerSuite struct {
	db       *TestDB
	service  *appinv.InventoryService
	recorder *recordingHandler
	tenantID uuid.UUID
	outletID uuid.UUID
}

func newLedgerSuite(t *testing.T, db *TestDB, cfg appinv.ServiceConfig) *ledgerSuite {
	t.Helper()
	log := zaptest.NewLogger(t)

	svc := appinv.NewInventoryService(
		persistence.NewGormIngredientRepository(db.DB),
		persistence.NewGormBatchRepository(db.DB),
		persistence.NewGormStockTransactionRepository(db.DB),
		persistence.NewGormTransactionScope(db.DB),
		cfg,
	)
	svc.SetLogger(log)
	svc.SetClock(shared.FixedClock{At: ledgerNow})

	bus := event.NewInMemoryEventBus(log)
	recorder := &recordingHandler{}
	bus.Subscribe(recorder)
	require.NoError(t, bus.Start(context.Background()))
	svc.SetEventPublisher(bus)

	return &ledgerSuite{
		db:       db,
		service:  svc,
		recorder: recorder,
		tenantID: uuid.New(),
		outletID: uuid.New(),
	}
}

func (s *ledgerSuite) createFlour(t *testing.T, minimum int64) *appinv.IngredientResponse {
	t.Helper()
	ing, err := s.service.CreateIngredient(context.Background(), s.tenantID, appinv.CreateIngredientRequest{
		OutletID:     s.outletID,
		Name:         "Bread flour",
		Category:     "dry goods",
		Unit:         "kg",
		Currency:     "USD",
		MinimumStock: decimal.NewFromInt(minimum),
		PerformedBy:  "chef-ana",
	})
	require.NoError(t, err)
	return ing
}

func (s *ledgerSuite) receive(t *testing.T, ingredientID uuid.UUID, lot string, qty, cost string, receivedAt time.Time, expiry *time.Time) *appinv.BatchResponse {
	t.Helper()
	batch, err := s.service.AddBatch(context.Background(), s.tenantID, appinv.AddBatchRequest{
		IngredientID: ingredientID,
		LotNumber:    lot,
		Quantity:     decimal.RequireFromString(qty),
		Unit:         "kg",
		UnitCost:     decimal.RequireFromString(cost),
		Currency:     "USD",
		ReceivedDate: &receivedAt,
		ExpiryDate:   expiry,
	})
	require.NoError(t, err)
	return batch
}

func (s *ledgerSuite) ledger(t *testing.T, ingredientID uuid.UUID) []appinv.TransactionResponse {
	t.Helper()
	txs, _, err := s.service.ListTransactions(context.Background(), s.tenantID, ingredientID,
		appinv.TransactionListFilter{Page: 1, PageSize: 100})
	require.NoError(t, err)
	return txs
}

func TestLedger_FIFOAcrossBatches(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := NewTestDB(t)
	s := newLedgerSuite(t, db, appinv.DefaultServiceConfig())
	ctx := context.Background()

	flour := s.createFlour(t, 2)
	older := s.receive(t, flour.ID, "LOT-A", "5", "1.20", ledgerNow.Add(-48*time.Hour), nil)
	newer := s.receive(t, flour.ID, "LOT-B", "10", "1.50", ledgerNow.Add(-24*time.Hour), nil)

	result, err := s.service.ConsumeFIFO(ctx, s.tenantID, appinv.ConsumeRequest{
		IngredientID: flour.ID,
		Quantity:     decimal.NewFromInt(7),
		Unit:         "kg",
		ReferenceID:  "order-1001",
		PerformedBy:  "chef-ana",
	})
	require.NoError(t, err)

	require.Len(t, result.Batches, 2)
	assert.Equal(t, older.ID, result.Batches[0].BatchID, "oldest batch is drawn first")
	assert.True(t, result.Batches[0].Consumed.Equal(decimal.NewFromInt(5)))
	assert.True(t, result.Batches[0].Depleted)
	assert.Equal(t, newer.ID, result.Batches[1].BatchID)
	assert.True(t, result.Batches[1].Consumed.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, int64(900), result.TotalCost.Cents(), "5 x 1.20 + 2 x 1.50")
	assert.True(t, result.NewStock.Equal(decimal.NewFromInt(8)))

	ing, err := s.service.GetIngredient(ctx, s.tenantID, flour.ID)
	require.NoError(t, err)
	assert.True(t, ing.CurrentStock.Equal(decimal.NewFromInt(8)))

	batches, _, err := s.service.ListBatches(ctx, s.tenantID, flour.ID, appinv.BatchListFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	statuses := map[uuid.UUID]string{}
	for _, b := range batches {
		statuses[b.ID] = b.Status
	}
	assert.Equal(t, string(inventory.BatchStatusDepleted), statuses[older.ID])
	assert.Equal(t, string(inventory.BatchStatusActive), statuses[newer.ID])

	// The ledger replays to the stored stock
	balance := decimal.Zero
	for _, tx := range s.ledger(t, flour.ID) {
		balance = balance.Add(tx.Quantity)
	}
	assert.True(t, balance.Equal(ing.CurrentStock), "ledger sum %s != stock %s", balance, ing.CurrentStock)

	_, err = s.service.ConsumeFIFO(ctx, s.tenantID, appinv.ConsumeRequest{
		IngredientID: flour.ID,
		Quantity:     decimal.NewFromInt(9),
		Unit:         "kg",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

	assert.Contains(t, s.recorder.types(), inventory.EventTypeStockReceived)
	assert.Contains(t, s.recorder.types(), inventory.EventTypeStockConsumed)
}

func TestLedger_ConcurrentConsumptionNeverOversells(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := NewTestDB(t)
	cfg := appinv.DefaultServiceConfig()
	cfg.MaxConflictRetries = 20
	s := newLedgerSuite(t, db, cfg)
	ctx := context.Background()

	flour := s.createFlour(t, 0)
	s.receive(t, flour.ID, "LOT-A", "10", "2.00", ledgerNow.Add(-time.Hour), nil)

	const workers = 15
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.ConsumeFIFO(ctx, s.tenantID, appinv.ConsumeRequest{
				IngredientID: flour.ID,
				Quantity:     decimal.NewFromInt(1),
				Unit:         "kg",
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.True(t,
				errors.Is(err, shared.ErrInsufficientStock) || errors.Is(err, shared.ErrConcurrencyConflict),
				"unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, succeeded, 10)

	ing, err := s.service.GetIngredient(ctx, s.tenantID, flour.ID)
	require.NoError(t, err)
	assert.False(t, ing.CurrentStock.IsNegative())
	assert.True(t, ing.CurrentStock.Equal(decimal.NewFromInt(int64(10-succeeded))),
		"stock %s after %d consumptions", ing.CurrentStock, succeeded)

	balance := decimal.Zero
	for _, tx := range s.ledger(t, flour.ID) {
		balance = balance.Add(tx.Quantity)
	}
	assert.True(t, balance.Equal(ing.CurrentStock))
}

func TestLedger_ExpirySweep(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := NewTestDB(t)
	s := newLedgerSuite(t, db, appinv.DefaultServiceConfig())
	ctx := context.Background()

	flour := s.createFlour(t, 0)
	yesterday := ledgerNow.Add(-24 * time.Hour)
	nextWeek := ledgerNow.Add(7 * 24 * time.Hour)
	inTwoDays := ledgerNow.Add(48 * time.Hour)
	stale := s.receive(t, flour.ID, "LOT-OLD", "4", "1.00", ledgerNow.Add(-72*time.Hour), &yesterday)
	s.receive(t, flour.ID, "LOT-SOON", "3", "1.10", ledgerNow.Add(-48*time.Hour), &inTwoDays)
	s.receive(t, flour.ID, "LOT-FRESH", "6", "1.20", ledgerNow.Add(-24*time.Hour), &nextWeek)

	report, err := s.service.CheckExpiry(ctx, s.tenantID, 3)
	require.NoError(t, err)
	require.Len(t, report.Ingredients, 1)
	require.Len(t, report.Ingredients[0].Batches, 1, "only the batch expiring inside the window is reported")
	assert.Equal(t, "LOT-SOON", report.Ingredients[0].Batches[0].LotNumber)

	result, err := s.service.ExpireBatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Expired)
	assert.Zero(t, result.Failed)

	again, err := s.service.ExpireBatches(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Expired, "sweep is idempotent")

	ing, err := s.service.GetIngredient(ctx, s.tenantID, flour.ID)
	require.NoError(t, err)
	assert.True(t, ing.CurrentStock.Equal(decimal.NewFromInt(9)))

	batches, _, err := s.service.ListBatches(ctx, s.tenantID, flour.ID,
		appinv.BatchListFilter{Status: string(inventory.BatchStatusExpired), Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, stale.ID, batches[0].ID)

	txs, _, err := s.service.ListTransactions(ctx, s.tenantID, flour.ID,
		appinv.TransactionListFilter{Type: string(inventory.TransactionTypeWaste), Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Quantity.Equal(decimal.NewFromInt(-4)))
	assert.Contains(t, s.recorder.types(), inventory.EventTypeBatchExpired)
}

func TestLedger_AuditReconcilesCount(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := NewTestDB(t)
	s := newLedgerSuite(t, db, appinv.DefaultServiceConfig())
	ctx := context.Background()

	flour := s.createFlour(t, 5)
	s.receive(t, flour.ID, "LOT-A", "10", "1.00", ledgerNow.Add(-time.Hour), nil)

	result, err := s.service.PerformAudit(ctx, s.tenantID, appinv.AuditRequest{
		IngredientID:     flour.ID,
		MeasuredQuantity: decimal.RequireFromString("4.5"),
		Unit:             "kg",
		PerformedBy:      "auditor",
	})
	require.NoError(t, err)
	assert.True(t, result.Expected.Equal(decimal.NewFromInt(10)))
	assert.True(t, result.Difference.Equal(decimal.RequireFromString("-5.5")))
	require.NotNil(t, result.Consumption)

	ing, err := s.service.GetIngredient(ctx, s.tenantID, flour.ID)
	require.NoError(t, err)
	assert.True(t, ing.CurrentStock.Equal(decimal.RequireFromString("4.5")))
	assert.True(t, ing.IsBelowMinimum)
	assert.Contains(t, s.recorder.types(), inventory.EventTypeStockLow)

	below, total, err := s.service.ListBelowMinimum(ctx, s.tenantID, appinv.IngredientListFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, flour.ID, below[0].ID)
}

func TestLedger_TenantIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := NewTestDB(t)
	s := newLedgerSuite(t, db, appinv.DefaultServiceConfig())
	ctx := context.Background()

	flour := s.createFlour(t, 0)

	_, err := s.service.GetIngredient(ctx, uuid.New(), flour.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	db.CleanTables(t)
	_, err = s.service.GetIngredient(ctx, s.tenantID, flour.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
