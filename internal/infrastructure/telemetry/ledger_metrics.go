package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const ledgerMeterName = "github.com/kitchenops/backend/inventory"

// LedgerMetrics records stock ledger activity.
type LedgerMetrics struct {
	movements         *Counter
	movedQuantity     *FloatCounter
	integrityFailures *Counter
	conflicts         *Counter
	expiredBatches    *Counter
	sweepDuration     *Histogram
}

// NewLedgerMetrics registers the ledger instruments on meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	m := &LedgerMetrics{}
	var err error

	if m.movements, err = NewCounter(meter, "inventory.stock_movements",
		"Number of ledger entries written", "{entry}"); err != nil {
		return nil, err
	}
	if m.movedQuantity, err = NewFloatCounter(meter, "inventory.stock_moved_quantity",
		"Absolute quantity moved through the ledger", "{unit}"); err != nil {
		return nil, err
	}
	if m.integrityFailures, err = NewCounter(meter, "inventory.integrity_failures",
		"Consumptions refused because batch totals disagreed with stock", "{failure}"); err != nil {
		return nil, err
	}
	if m.conflicts, err = NewCounter(meter, "inventory.concurrency_conflicts",
		"Optimistic lock conflicts on ingredient writes", "{conflict}"); err != nil {
		return nil, err
	}
	if m.expiredBatches, err = NewCounter(meter, "inventory.batches_expired",
		"Batches written off by the expiry sweep", "{batch}"); err != nil {
		return nil, err
	}
	if m.sweepDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "inventory.expiry_sweep.duration",
		Description: "Duration of expiry sweeps",
		Unit:        "s",
		Boundaries:  SweepDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// NewLedgerMetricsFromProvider is a convenience for wiring from main.
func NewLedgerMetricsFromProvider(mp *MeterProvider) (*LedgerMetrics, error) {
	return NewLedgerMetrics(mp.Meter(ledgerMeterName))
}

// RecordStockMovement counts one ledger entry and its absolute quantity.
func (m *LedgerMetrics) RecordStockMovement(ctx context.Context, tenantID uuid.UUID, txType inventory.TransactionType, quantity float64) {
	attrs := []attribute.KeyValue{
		AttrTenantID.String(tenantID.String()),
		AttrTransactionType.String(string(txType)),
	}
	m.movements.Inc(ctx, attrs...)
	if quantity < 0 {
		quantity = -quantity
	}
	m.movedQuantity.Add(ctx, quantity, attrs...)
}

// RecordIntegrityFailure counts a DATA_INTEGRITY_MISMATCH.
func (m *LedgerMetrics) RecordIntegrityFailure(ctx context.Context, tenantID, ingredientID uuid.UUID) {
	m.integrityFailures.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrIngredientID.String(ingredientID.String()),
	)
}

// RecordConcurrencyConflict counts an optimistic lock conflict for operation.
func (m *LedgerMetrics) RecordConcurrencyConflict(ctx context.Context, operation string) {
	m.conflicts.Inc(ctx, AttrOperation.String(operation))
}

// RecordBatchesExpired adds count to the expired batch counter.
func (m *LedgerMetrics) RecordBatchesExpired(ctx context.Context, count int) {
	if count <= 0 {
		return
	}
	m.expiredBatches.Add(ctx, int64(count))
}

// RecordSweepDuration records how long an expiry sweep took.
func (m *LedgerMetrics) RecordSweepDuration(ctx context.Context, d time.Duration) {
	m.sweepDuration.RecordDuration(ctx, d)
}
