package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/kitchenops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CheckExpiry reports the tenant's ACTIVE batches expiring within days, summed per
// ingredient. days <= 0 uses the configured window. Batches that cannot be summed
// are listed as skipped instead of failing the report.
func (s *InventoryService) CheckExpiry(ctx context.Context, tenantID uuid.UUID, days int) (*ExpiryReportResponse, error) {
	if days <= 0 {
		days = s.config.ExpiryWindowDays
	}
	now := s.now()
	until := now.AddDate(0, 0, days)

	stored, err := s.batchRepo.FindExpiringWithin(ctx, tenantID, now, until)
	if err != nil {
		return nil, err
	}

	batches := make([]*inventory.Batch, len(stored))
	ids := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]struct{})
	for i := range stored {
		batches[i] = &stored[i]
		if _, ok := seen[stored[i].IngredientID]; !ok {
			seen[stored[i].IngredientID] = struct{}{}
			ids = append(ids, stored[i].IngredientID)
		}
	}

	ingredients := make(map[uuid.UUID]*inventory.Ingredient, len(ids))
	if len(ids) > 0 {
		found, err := s.ingredientRepo.FindByIDs(ctx, tenantID, ids)
		if err != nil {
			return nil, err
		}
		for i := range found {
			ingredients[found[i].ID] = &found[i]
		}
	}

	report := inventory.BuildExpiryReport(batches, ingredients, now, days)
	for _, skipped := range report.Skipped {
		s.logger.Warn("batch left out of expiry report",
			zap.String("tenant_id", tenantID.String()),
			zap.String("batch_id", skipped.BatchID.String()),
			zap.String("ingredient_id", skipped.IngredientID.String()),
			zap.String("reason", skipped.Reason),
		)
	}

	resp := ToExpiryReportResponse(report, days)
	return &resp, nil
}

// ExpireBatches retires ACTIVE batches whose expiry date has passed. Each batch is
// marked EXPIRED and its remaining quantity is written off the ingredient's stock with
// a WASTE entry, one unit of work per batch. A failing batch is logged and counted;
// the sweep moves on to the next one.
//
// Candidates are read in pages of ExpirySweepLimit ordered by expiry date, and each
// page starts after the last batch of the previous one. Batches that keep failing
// therefore never hold back the expired batches behind them.
func (s *InventoryService) ExpireBatches(ctx context.Context) (*ExpireBatchesResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "expire_batches")
	defer span.End()

	now := s.now()
	limit := s.config.ExpirySweepLimit
	result := &ExpireBatchesResult{}
	var cursor *inventory.ExpiryCursor

	for {
		candidates, err := s.batchRepo.FindExpiredActive(ctx, now, cursor, limit)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		result.Scanned += len(candidates)
		result.Pages++

		for i := range candidates {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			expired, err := s.expireBatch(ctx, candidates[i].ID)
			if err != nil {
				result.Failed++
				s.logger.Error("failed to expire batch",
					zap.String("batch_id", candidates[i].ID.String()),
					zap.String("ingredient_id", candidates[i].IngredientID.String()),
					zap.Error(err),
				)
				continue
			}
			if expired {
				result.Expired++
			}
		}

		if limit <= 0 || len(candidates) < limit {
			break
		}
		cursor = inventory.SweepCursor(candidates[len(candidates)-1])
		if cursor == nil {
			break
		}
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrBatchCount, result.Scanned,
		"expired", result.Expired,
		"failed", result.Failed,
		"pages", result.Pages,
	)
	if s.metrics != nil && result.Expired > 0 {
		s.metrics.RecordBatchesExpired(ctx, result.Expired)
	}
	if result.Scanned > 0 {
		s.logger.Info("expiry sweep finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("expired", result.Expired),
			zap.Int("failed", result.Failed),
			zap.Int("pages", result.Pages),
		)
	}
	return result, nil
}

// expireBatch retires one batch. It reports false when the batch was already
// retired by someone else.
func (s *InventoryService) expireBatch(ctx context.Context, batchID uuid.UUID) (bool, error) {
	var (
		expired bool
		ledger  *inventory.StockTransaction
		events  []shared.DomainEvent
	)

	err := s.withConflictRetry(ctx, "expire_batch", func() error {
		expired = false
		ledger = nil
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			now := s.now()
			batch, err := repos.BatchRepo().FindByID(ctx, batchID)
			if err != nil {
				return err
			}
			if !batch.IsActive() || !batch.IsExpired(now) {
				return nil
			}
			ingredient, err := repos.IngredientRepo().FindByID(ctx, batch.IngredientID)
			if err != nil {
				return err
			}

			writtenOff := batch.RemainingQuantity
			if err := batch.MarkExpired(now); err != nil {
				return err
			}
			if err := repos.BatchRepo().UpdateStatus(ctx, batch.ID, batch.Status); err != nil {
				return err
			}

			if writtenOff.IsPositive() {
				if err := ingredient.EnsureAvailable(writtenOff); err != nil {
					return shared.NewDomainError(shared.CodeDataIntegrityMismatch,
						fmt.Sprintf("Stock for %s is %s but expired batch %s still holds %s",
							ingredient.Name, ingredient.CurrentStock, batch.ID, writtenOff))
				}
				released, err := ingredient.ToStockUnit(writtenOff)
				if err != nil {
					return err
				}
				if err := ingredient.ReleaseStock(writtenOff, inventory.TransactionTypeWaste, now); err != nil {
					return err
				}
				if err := repos.IngredientRepo().SaveWithLock(ctx, ingredient); err != nil {
					return err
				}
				batchPrice := valueobject.PricePer(batch.UnitCost, writtenOff.Unit())
				ledger, err = inventory.NewStockTransactionBuilder(s.ids.NewID(), ingredient, inventory.TransactionTypeWaste, released.Amount().Neg(), batchPrice, now).
					WithTotalCost(batch.ConsumedCost(writtenOff)).
					WithBatchID(batch.ID).
					WithReason("batch expired").
					WithReference(batch.LotNumber).
					WithPerformedBy("system").
					Build()
				if err != nil {
					return err
				}
				if err := repos.TransactionRepo().Create(ctx, ledger); err != nil {
					return err
				}
			}

			events = append(takeEvents(ingredient), inventory.NewBatchExpiredEvent(batch, writtenOff, now))
			expired = true
			return nil
		})
	})
	if err != nil {
		return false, err
	}

	s.publishEvents(ctx, events)
	s.recordMovement(ctx, ledger)
	return expired, nil
}
