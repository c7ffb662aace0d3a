package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/kitchenops/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// receiveParams describes stock entering an ingredient as a new batch
type receiveParams struct {
	txType       inventory.TransactionType
	quantity     valueobject.Quantity
	unitCost     valueobject.Money
	outletID     *uuid.UUID
	lotNumber    string
	supplier     string
	expiryDate   *time.Time
	receivedDate *time.Time
	invoiceRef   string
	notes        string
	reason       string
	referenceID  string
	performedBy  string
}

// consumeParams describes stock leaving an ingredient through FIFO
type consumeParams struct {
	txType      inventory.TransactionType
	quantity    valueobject.Quantity
	reason      string
	referenceID string
	performedBy string
}

// receiveInScope creates a batch, raises the ingredient's stock and appends the
// inbound ledger entry, all within repos' transaction
func (s *InventoryService) receiveInScope(
	ctx context.Context,
	repos TransactionalRepositories,
	ingredient *inventory.Ingredient,
	p receiveParams,
) (*inventory.Batch, *inventory.StockTransaction, error) {
	now := s.now()

	outletID := ingredient.OutletID
	if p.outletID != nil && *p.outletID != uuid.Nil {
		if *p.outletID != ingredient.OutletID {
			return nil, nil, shared.NewValidationError("batch outlet %s does not match ingredient outlet %s", *p.outletID, ingredient.OutletID)
		}
		outletID = *p.outletID
	}
	receivedDate := now
	if p.receivedDate != nil && !p.receivedDate.IsZero() {
		receivedDate = *p.receivedDate
	}

	batchID := s.ids.NewID()
	lotNumber := p.lotNumber
	if lotNumber == "" {
		lotNumber = defaultLotNumber(p.txType, receivedDate, batchID)
	}

	batch, err := inventory.NewBatch(inventory.NewBatchParams{
		ID:           batchID,
		TenantID:     ingredient.TenantID,
		IngredientID: ingredient.ID,
		OutletID:     outletID,
		LotNumber:    lotNumber,
		Quantity:     p.quantity,
		UnitCost:     p.unitCost,
		Supplier:     p.supplier,
		ExpiryDate:   p.expiryDate,
		ReceivedDate: receivedDate,
		InvoiceRef:   p.invoiceRef,
		Notes:        p.notes,
		Now:          now,
	})
	if err != nil {
		return nil, nil, err
	}

	received, err := ingredient.ToStockUnit(p.quantity)
	if err != nil {
		return nil, nil, err
	}
	if err := ingredient.ReceiveStock(p.quantity, p.unitCost, now); err != nil {
		return nil, nil, err
	}

	if err := repos.BatchRepo().Create(ctx, batch); err != nil {
		return nil, nil, err
	}
	if err := repos.IngredientRepo().SaveWithLock(ctx, ingredient); err != nil {
		return nil, nil, err
	}

	price := valueobject.PricePer(p.unitCost, p.quantity.Unit())
	tx, err := inventory.NewStockTransactionBuilder(s.ids.NewID(), ingredient, p.txType, received.Amount(), price, now).
		WithTotalCost(batch.TotalCost).
		WithBatchID(batch.ID).
		WithReason(p.reason).
		WithReference(p.referenceID).
		WithPerformedBy(p.performedBy).
		Build()
	if err != nil {
		return nil, nil, err
	}
	if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
		return nil, nil, err
	}

	return batch, tx, nil
}

// consumeInScope draws p.quantity from the ingredient's active batches oldest first,
// lowers the ingredient's stock and appends one outbound ledger entry
func (s *InventoryService) consumeInScope(
	ctx context.Context,
	repos TransactionalRepositories,
	ingredient *inventory.Ingredient,
	p consumeParams,
) (*ConsumeResult, *inventory.StockTransaction, error) {
	now := s.now()
	convCtx := ingredient.ConversionContext()

	if err := ingredient.EnsureAvailable(p.quantity); err != nil {
		return nil, nil, err
	}
	released, err := ingredient.ToStockUnit(p.quantity)
	if err != nil {
		return nil, nil, err
	}

	stored, err := repos.BatchRepo().FindActiveFIFO(ctx, ingredient.TenantID, ingredient.ID)
	if err != nil {
		return nil, nil, err
	}
	batches := make([]*inventory.Batch, len(stored))
	for i := range stored {
		batches[i] = &stored[i]
	}

	allocation, err := inventory.AllocateFIFO(batches, p.quantity, convCtx, ingredient.Currency)
	if err != nil {
		return nil, nil, err
	}
	if !allocation.IsComplete() {
		s.logger.Warn("active batches do not cover ingredient stock",
			zap.String("tenant_id", ingredient.TenantID.String()),
			zap.String("ingredient_id", ingredient.ID.String()),
			zap.String("current_stock", ingredient.CurrentStock.String()),
			zap.String("requested", p.quantity.String()),
			zap.String("unallocated", allocation.Unallocated.String()),
		)
		if s.metrics != nil {
			s.metrics.RecordIntegrityFailure(ctx, ingredient.TenantID, ingredient.ID)
		}
		return nil, nil, shared.NewDomainError(shared.CodeDataIntegrityMismatch,
			fmt.Sprintf("Stock for %s is %s but active batches leave %s unallocated",
				ingredient.Name, ingredient.CurrentStock, allocation.Unallocated))
	}

	result := &ConsumeResult{
		IngredientID: ingredient.ID,
		Batches:      make([]BatchConsumption, 0, len(allocation.Allocations)),
		TotalCost:    allocation.TotalCost,
		Unit:         ingredient.Unit,
	}
	for _, a := range allocation.Allocations {
		if err := a.Batch.Consume(a.Consumed, convCtx, now); err != nil {
			return nil, nil, err
		}
		if err := repos.BatchRepo().Consume(ctx, a.Batch); err != nil {
			return nil, nil, err
		}
		result.Batches = append(result.Batches, BatchConsumption{
			BatchID:   a.Batch.ID,
			LotNumber: a.Batch.LotNumber,
			Consumed:  a.Consumed.Amount(),
			Remaining: a.Batch.RemainingQuantity.Amount(),
			Unit:      a.Consumed.Unit(),
			UnitCost:  a.Batch.UnitCost,
			Cost:      a.Cost,
			Depleted:  a.Batch.Status == inventory.BatchStatusDepleted,
		})
	}

	costBasis := ingredient.ConsumptionPrice()
	if err := ingredient.ReleaseStock(p.quantity, p.txType, now); err != nil {
		return nil, nil, err
	}
	if err := repos.IngredientRepo().SaveWithLock(ctx, ingredient); err != nil {
		return nil, nil, err
	}

	tx, err := inventory.NewStockTransactionBuilder(s.ids.NewID(), ingredient, p.txType, released.Amount().Neg(), costBasis, now).
		WithReason(p.reason).
		WithReference(p.referenceID).
		WithPerformedBy(p.performedBy).
		Build()
	if err != nil {
		return nil, nil, err
	}
	if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
		return nil, nil, err
	}

	txID := tx.ID
	result.TransactionID = &txID
	result.NewStock = ingredient.CurrentStock.Amount()
	return result, tx, nil
}

// AddBatch receives a delivery: it creates the batch, raises the ingredient's stock,
// reprices it and appends a PURCHASE entry, atomically.
func (s *InventoryService) AddBatch(ctx context.Context, tenantID uuid.UUID, req AddBatchRequest) (*BatchResponse, error) {
	return s.addBatch(ctx, tenantID, req, inventory.TransactionTypePurchase)
}

func (s *InventoryService) addBatch(ctx context.Context, tenantID uuid.UUID, req AddBatchRequest, txType inventory.TransactionType) (*BatchResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "add_batch")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrIngredientID, req.IngredientID.String(),
		telemetry.SpanAttrQuantity, req.Quantity.String(),
	)

	var (
		batch  *inventory.Batch
		ledger *inventory.StockTransaction
		events []shared.DomainEvent
	)

	err := s.withConflictRetry(ctx, "add_batch", func() error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			ingredient, err := repos.IngredientRepo().FindByIDForTenant(ctx, tenantID, req.IngredientID)
			if err != nil {
				return err
			}
			unit, err := resolveUnit(req.Unit, ingredient)
			if err != nil {
				return err
			}
			quantity, err := valueobject.NewQuantity(req.Quantity, unit)
			if err != nil {
				return err
			}
			currency, err := resolveCurrency(req.Currency, ingredient)
			if err != nil {
				return err
			}

			batch, ledger, err = s.receiveInScope(ctx, repos, ingredient, receiveParams{
				txType:       txType,
				quantity:     quantity,
				unitCost:     valueobject.NewMoneyFromDecimal(req.UnitCost, currency),
				outletID:     req.OutletID,
				lotNumber:    req.LotNumber,
				supplier:     req.Supplier,
				expiryDate:   req.ExpiryDate,
				receivedDate: req.ReceivedDate,
				invoiceRef:   req.InvoiceRef,
				notes:        req.Notes,
				reason:       req.Reason,
				referenceID:  req.ReferenceID,
				performedBy:  req.PerformedBy,
			})
			if err != nil {
				return err
			}
			events = takeEvents(ingredient)
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrBatchID, batch.ID.String())
	s.publishEvents(ctx, events)
	s.recordMovement(ctx, ledger)
	s.logger.Info("batch received",
		zap.String("tenant_id", tenantID.String()),
		zap.String("ingredient_id", req.IngredientID.String()),
		zap.String("batch_id", batch.ID.String()),
		zap.String("transaction_type", txType.String()),
		zap.String("quantity", batch.Quantity.String()),
	)

	resp := ToBatchResponse(batch)
	return &resp, nil
}

// ConsumeFIFO draws stock from an ingredient's oldest active batches first.
// A non-positive quantity is a no-op and touches nothing.
func (s *InventoryService) ConsumeFIFO(ctx context.Context, tenantID uuid.UUID, req ConsumeRequest) (*ConsumeResult, error) {
	if !req.Quantity.IsPositive() {
		return &ConsumeResult{
			IngredientID: req.IngredientID,
			Batches:      []BatchConsumption{},
			TotalCost:    valueobject.Zero(s.config.DefaultCurrency),
		}, nil
	}

	txType := inventory.TransactionTypeSale
	if req.TransactionType != "" {
		parsed, err := inventory.ParseTransactionType(req.TransactionType)
		if err != nil {
			return nil, err
		}
		txType = parsed
	}
	if txType.IsIncrease() {
		return nil, shared.NewValidationError("%s cannot consume stock", txType)
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "consume_fifo")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrIngredientID, req.IngredientID.String(),
		telemetry.SpanAttrQuantity, req.Quantity.String(),
		telemetry.SpanAttrReferenceID, req.ReferenceID,
	)

	var (
		result *ConsumeResult
		ledger *inventory.StockTransaction
		events []shared.DomainEvent
	)

	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerLabels("consume_fifo", tenantID, req.IngredientID), func(ctx context.Context) {
		err = s.withConflictRetry(ctx, "consume_fifo", func() error {
			return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
				ingredient, err := repos.IngredientRepo().FindByIDForTenant(ctx, tenantID, req.IngredientID)
				if err != nil {
					return err
				}
				unit, err := resolveUnit(req.Unit, ingredient)
				if err != nil {
					return err
				}
				quantity, err := valueobject.NewQuantity(req.Quantity, unit)
				if err != nil {
					return err
				}

				result, ledger, err = s.consumeInScope(ctx, repos, ingredient, consumeParams{
					txType:      txType,
					quantity:    quantity,
					reason:      req.Reason,
					referenceID: req.ReferenceID,
					performedBy: req.PerformedBy,
				})
				if err != nil {
					return err
				}
				events = takeEvents(ingredient)
				return nil
			})
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrBatchCount, len(result.Batches))
	s.publishEvents(ctx, events)
	s.recordMovement(ctx, ledger)
	s.logger.Info("stock consumed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("ingredient_id", req.IngredientID.String()),
		zap.String("transaction_type", txType.String()),
		zap.String("quantity", req.Quantity.String()),
		zap.Int("batches", len(result.Batches)),
		zap.String("total_cost", result.TotalCost.String()),
	)
	return result, nil
}

// AdjustStock corrects stock by hand. Increases create a batch and need a unit cost;
// decreases consume FIFO. The ledger type defaults to ADJUSTMENT.
func (s *InventoryService) AdjustStock(ctx context.Context, tenantID uuid.UUID, req AdjustStockRequest) (*AdjustStockResult, error) {
	direction, err := inventory.ParseDirection(req.Direction)
	if err != nil {
		return nil, err
	}
	txType := inventory.TransactionTypeAdjustment
	if req.TransactionType != "" {
		if txType, err = inventory.ParseTransactionType(req.TransactionType); err != nil {
			return nil, err
		}
	}
	resolved, err := inventory.ResolveDirection(txType, direction)
	if err != nil {
		return nil, err
	}
	if resolved != direction {
		return nil, shared.NewValidationError("%s cannot %s stock", txType, direction)
	}

	return s.applyMovement(ctx, tenantID, direction, txType, StockMovementRequest{
		IngredientID: req.IngredientID,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		UnitCost:     req.UnitCost,
		Currency:     req.Currency,
		LotNumber:    req.LotNumber,
		Supplier:     req.Supplier,
		ExpiryDate:   req.ExpiryDate,
		Reason:       req.Reason,
		ReferenceID:  req.ReferenceID,
		PerformedBy:  req.PerformedBy,
	})
}

// ProcessStockMovement routes a typed movement: PURCHASE, PRODUCTION and INITIAL_STOCK
// increase stock, WASTE and SALE decrease it, ADJUSTMENT and AUDIT follow req.Direction.
func (s *InventoryService) ProcessStockMovement(ctx context.Context, tenantID uuid.UUID, req StockMovementRequest) (*AdjustStockResult, error) {
	txType, err := inventory.ParseTransactionType(req.TransactionType)
	if err != nil {
		return nil, err
	}
	var supplied inventory.Direction
	if req.Direction != "" {
		if supplied, err = inventory.ParseDirection(req.Direction); err != nil {
			return nil, err
		}
	}
	direction, err := inventory.ResolveDirection(txType, supplied)
	if err != nil {
		return nil, err
	}
	return s.applyMovement(ctx, tenantID, direction, txType, req)
}

func (s *InventoryService) applyMovement(
	ctx context.Context,
	tenantID uuid.UUID,
	direction inventory.Direction,
	txType inventory.TransactionType,
	req StockMovementRequest,
) (*AdjustStockResult, error) {
	result := &AdjustStockResult{
		IngredientID:    req.IngredientID,
		Direction:       string(direction),
		TransactionType: txType.String(),
	}

	if direction == inventory.DirectionDecrease {
		consumed, err := s.ConsumeFIFO(ctx, tenantID, ConsumeRequest{
			IngredientID:    req.IngredientID,
			Quantity:        req.Quantity,
			Unit:            req.Unit,
			Reason:          req.Reason,
			ReferenceID:     req.ReferenceID,
			TransactionType: txType.String(),
			PerformedBy:     req.PerformedBy,
		})
		if err != nil {
			return nil, err
		}
		result.Consumption = consumed
		return result, nil
	}

	if req.UnitCost == nil {
		return nil, shared.NewValidationError("unit cost is required to increase stock")
	}
	batch, err := s.addBatch(ctx, tenantID, AddBatchRequest{
		IngredientID: req.IngredientID,
		LotNumber:    req.LotNumber,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		UnitCost:     *req.UnitCost,
		Currency:     req.Currency,
		Supplier:     req.Supplier,
		ExpiryDate:   req.ExpiryDate,
		Reason:       req.Reason,
		ReferenceID:  req.ReferenceID,
		PerformedBy:  req.PerformedBy,
	}, txType)
	if err != nil {
		return nil, err
	}
	result.Batch = batch
	return result, nil
}

// PerformAudit books the difference between a physical count and the ledger.
// A surplus is received as an AUDIT batch priced at the last known cost, a shortfall
// is consumed FIFO as AUDIT, and a match within tolerance changes nothing.
func (s *InventoryService) PerformAudit(ctx context.Context, tenantID uuid.UUID, req AuditRequest) (*AuditResult, error) {
	if req.MeasuredQuantity.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeNegativeQuantity,
			fmt.Sprintf("measured quantity cannot be negative: %s", req.MeasuredQuantity))
	}

	reason := req.Notes
	if reason == "" {
		reason = "stock audit"
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "perform_audit")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrIngredientID, req.IngredientID.String(),
	)

	var (
		result *AuditResult
		ledger *inventory.StockTransaction
		events []shared.DomainEvent
	)

	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerLabels("perform_audit", tenantID, req.IngredientID), func(ctx context.Context) {
		err = s.withConflictRetry(ctx, "perform_audit", func() error {
			return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
				ledger = nil
				ingredient, err := repos.IngredientRepo().FindByIDForTenant(ctx, tenantID, req.IngredientID)
				if err != nil {
					return err
				}
				unit, err := resolveUnit(req.Unit, ingredient)
				if err != nil {
					return err
				}
				measured, err := valueobject.NewQuantity(req.MeasuredQuantity, unit)
				if err != nil {
					return err
				}
				measuredStock, err := ingredient.ToStockUnit(measured)
				if err != nil {
					return err
				}

				expected := ingredient.CurrentStock.Amount()
				diff := measuredStock.Amount().Sub(expected)
				result = &AuditResult{
					IngredientID: ingredient.ID,
					Expected:     expected,
					Measured:     measuredStock.Amount(),
					Difference:   diff,
					Unit:         ingredient.Unit,
				}

				if diff.Abs().LessThanOrEqual(valueobject.QuantityTolerance) {
					result.Difference = decimal.Zero
					return nil
				}

				if diff.IsPositive() {
					surplus, err := valueobject.NewQuantity(diff, ingredient.Unit)
					if err != nil {
						return err
					}
					surplus, unitCost := auditReceipt(ingredient, surplus)
					batch, tx, err := s.receiveInScope(ctx, repos, ingredient, receiveParams{
						txType:      inventory.TransactionTypeAudit,
						quantity:    surplus,
						unitCost:    unitCost,
						reason:      reason,
						referenceID: req.ReferenceID,
						performedBy: req.PerformedBy,
						notes:       req.Notes,
					})
					if err != nil {
						return err
					}
					resp := ToBatchResponse(batch)
					result.Batch = &resp
					ledger = tx
				} else {
					shortfall, err := valueobject.NewQuantity(diff.Neg(), ingredient.Unit)
					if err != nil {
						return err
					}
					consumed, tx, err := s.consumeInScope(ctx, repos, ingredient, consumeParams{
						txType:      inventory.TransactionTypeAudit,
						quantity:    shortfall,
						reason:      reason,
						referenceID: req.ReferenceID,
						performedBy: req.PerformedBy,
					})
					if err != nil {
						return err
					}
					result.Consumption = consumed
					ledger = tx
				}
				events = takeEvents(ingredient)
				return nil
			})
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.AddEvent(span, "audit_reconciled", "difference", result.Difference.String())
	s.publishEvents(ctx, events)
	s.recordMovement(ctx, ledger)
	s.logger.Info("stock audited",
		zap.String("tenant_id", tenantID.String()),
		zap.String("ingredient_id", req.IngredientID.String()),
		zap.String("expected", result.Expected.String()),
		zap.String("measured", result.Measured.String()),
		zap.String("difference", result.Difference.String()),
	)
	return result, nil
}

// auditReceipt prices an audit surplus at the last cost, then the average cost,
// then zero. With a last cost the surplus is expressed in the unit that cost was
// quoted per, so a price below one cent per stock unit is not rounded away.
func auditReceipt(ingredient *inventory.Ingredient, surplus valueobject.Quantity) (valueobject.Quantity, valueobject.Money) {
	if last := ingredient.LastPrice(); last != nil {
		if q, err := surplus.ConvertTo(last.Unit(), ingredient.ConversionContext()); err == nil {
			return q, *ingredient.LastCost
		}
	}
	if ingredient.AverageCost != nil {
		if avg, err := ingredient.AverageCost.In(surplus.Unit(), ingredient.ConversionContext()); err == nil {
			return surplus, avg.Money()
		}
	}
	return surplus, valueobject.Zero(ingredient.Currency)
}

func defaultLotNumber(txType inventory.TransactionType, received time.Time, batchID uuid.UUID) string {
	return fmt.Sprintf("%s-%s-%s", txType, received.Format("20060102"), batchID.String()[:8])
}
