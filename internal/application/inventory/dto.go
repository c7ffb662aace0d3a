package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ============================================================================
// Ingredient DTOs
// ============================================================================

// CreateIngredientRequest represents a request to register an ingredient.
// InitialQuantity, when positive, is booked as an INITIAL_STOCK batch.
type CreateIngredientRequest struct {
	OutletID        uuid.UUID        `json:"outlet_id" binding:"required"`
	Name            string           `json:"name" binding:"required,max=200"`
	Category        string           `json:"category" binding:"max=100"`
	SKU             string           `json:"sku" binding:"max=50"`
	Unit            string           `json:"unit" binding:"required,unit"`
	Density         *decimal.Decimal `json:"density"`
	PieceWeight     *decimal.Decimal `json:"piece_weight"`
	Currency        string           `json:"currency" binding:"omitempty,currency"`
	MinimumStock    decimal.Decimal  `json:"minimum_stock"`
	InitialQuantity decimal.Decimal  `json:"initial_quantity"`
	InitialUnitCost decimal.Decimal  `json:"initial_unit_cost"`
	PerformedBy     string           `json:"-"`
}

// UpdateIngredientRequest represents a request to change descriptive ingredient fields
type UpdateIngredientRequest struct {
	Name         string          `json:"name" binding:"required,max=200"`
	Category     string          `json:"category" binding:"max=100"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
}

// IngredientResponse represents an ingredient in API responses
type IngredientResponse struct {
	ID             uuid.UUID              `json:"id"`
	TenantID       uuid.UUID              `json:"tenant_id"`
	OutletID       uuid.UUID              `json:"outlet_id"`
	Name           string                 `json:"name"`
	Category       string                 `json:"category,omitempty"`
	SKU            string                 `json:"sku,omitempty"`
	Unit           valueobject.Unit       `json:"unit"`
	Density        *decimal.Decimal       `json:"density,omitempty"`
	PieceWeight    *decimal.Decimal       `json:"piece_weight,omitempty"`
	Currency       string                 `json:"currency"`
	CurrentStock   decimal.Decimal        `json:"current_stock"`
	MinimumStock   decimal.Decimal        `json:"minimum_stock"`
	LastCost       *valueobject.Money     `json:"last_cost,omitempty"`
	LastCostUnit   valueobject.Unit       `json:"last_cost_unit,omitempty"`
	AverageCost    *valueobject.UnitPrice `json:"average_cost,omitempty"`
	StockValue     valueobject.Money      `json:"stock_value"`
	IsBelowMinimum bool                   `json:"is_below_minimum"`
	Version        int                    `json:"version"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// IngredientListFilter represents filter options for ingredient lists
type IngredientListFilter struct {
	Search       string     `form:"search"`
	OutletID     *uuid.UUID `form:"outlet_id"`
	Category     string     `form:"category"`
	BelowMinimum bool       `form:"below_minimum"`
	Page         int        `form:"page" binding:"omitempty,min=1"`
	PageSize     int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string     `form:"order_by"`
	OrderDir     string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToIngredientResponse converts a domain Ingredient to a response
func ToIngredientResponse(i *inventory.Ingredient) IngredientResponse {
	resp := IngredientResponse{
		ID:             i.ID,
		TenantID:       i.TenantID,
		OutletID:       i.OutletID,
		Name:           i.Name,
		Category:       i.Category,
		SKU:            i.SKU,
		Unit:           i.Unit,
		Currency:       string(i.Currency),
		CurrentStock:   i.CurrentStock.Amount(),
		MinimumStock:   i.MinimumStock.Amount(),
		LastCost:       i.LastCost,
		LastCostUnit:   i.LastCostUnit,
		AverageCost:    i.AverageCost,
		StockValue:     i.StockValue(),
		IsBelowMinimum: i.IsBelowMinimum(),
		Version:        i.Version,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
	if i.Density.IsPositive() {
		d := i.Density
		resp.Density = &d
	}
	if i.PieceWeight.IsPositive() {
		w := i.PieceWeight
		resp.PieceWeight = &w
	}
	return resp
}

// ToIngredientResponses converts a slice of ingredients
func ToIngredientResponses(items []inventory.Ingredient) []IngredientResponse {
	responses := make([]IngredientResponse, len(items))
	for i := range items {
		responses[i] = ToIngredientResponse(&items[i])
	}
	return responses
}

// ============================================================================
// Batch DTOs
// ============================================================================

// AddBatchRequest represents a delivery of an ingredient.
// Unit defaults to the ingredient's stock unit and Currency to the ingredient's currency.
type AddBatchRequest struct {
	IngredientID uuid.UUID       `json:"ingredient_id" binding:"required"`
	OutletID     *uuid.UUID      `json:"outlet_id"`
	LotNumber    string          `json:"lot_number" binding:"max=100"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	Unit         string          `json:"unit" binding:"omitempty,unit"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Currency     string          `json:"currency" binding:"omitempty,currency"`
	Supplier     string          `json:"supplier" binding:"max=200"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
	ReceivedDate *time.Time      `json:"received_date"`
	InvoiceRef   string          `json:"invoice_ref" binding:"max=100"`
	Notes        string          `json:"notes" binding:"max=500"`
	Reason       string          `json:"reason"`
	ReferenceID  string          `json:"reference_id"`
	PerformedBy  string          `json:"-"`
}

// BatchResponse represents a batch in API responses
type BatchResponse struct {
	ID                uuid.UUID         `json:"id"`
	IngredientID      uuid.UUID         `json:"ingredient_id"`
	OutletID          uuid.UUID         `json:"outlet_id"`
	LotNumber         string            `json:"lot_number"`
	Quantity          decimal.Decimal   `json:"quantity"`
	RemainingQuantity decimal.Decimal   `json:"remaining_quantity"`
	Unit              valueobject.Unit  `json:"unit"`
	UnitCost          valueobject.Money `json:"unit_cost"`
	TotalCost         valueobject.Money `json:"total_cost"`
	Supplier          string            `json:"supplier,omitempty"`
	ExpiryDate        *time.Time        `json:"expiry_date,omitempty"`
	ReceivedDate      time.Time         `json:"received_date"`
	Status            string            `json:"status"`
	InvoiceRef        string            `json:"invoice_ref,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// BatchListFilter represents filter options for batch lists
type BatchListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE DEPLETED EXPIRED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToBatchResponse converts a domain Batch to a response
func ToBatchResponse(b *inventory.Batch) BatchResponse {
	return BatchResponse{
		ID:                b.ID,
		IngredientID:      b.IngredientID,
		OutletID:          b.OutletID,
		LotNumber:         b.LotNumber,
		Quantity:          b.Quantity.Amount(),
		RemainingQuantity: b.RemainingQuantity.Amount(),
		Unit:              b.Quantity.Unit(),
		UnitCost:          b.UnitCost,
		TotalCost:         b.TotalCost,
		Supplier:          b.Supplier,
		ExpiryDate:        b.ExpiryDate,
		ReceivedDate:      b.ReceivedDate,
		Status:            b.Status.String(),
		InvoiceRef:        b.InvoiceRef,
		Notes:             b.Notes,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// ToBatchResponses converts a slice of batches
func ToBatchResponses(batches []inventory.Batch) []BatchResponse {
	responses := make([]BatchResponse, len(batches))
	for i := range batches {
		responses[i] = ToBatchResponse(&batches[i])
	}
	return responses
}

// ============================================================================
// Consumption DTOs
// ============================================================================

// ConsumeRequest represents a FIFO draw-down of an ingredient.
// TransactionType defaults to SALE.
type ConsumeRequest struct {
	IngredientID    uuid.UUID       `json:"ingredient_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	Unit            string          `json:"unit" binding:"omitempty,unit"`
	Reason          string          `json:"reason" binding:"max=500"`
	ReferenceID     string          `json:"reference_id" binding:"max=100"`
	TransactionType string          `json:"transaction_type" binding:"omitempty,oneof=SALE WASTE ADJUSTMENT AUDIT"`
	PerformedBy     string          `json:"-"`
}

// BatchConsumption is one line of the FIFO cost trace
type BatchConsumption struct {
	BatchID   uuid.UUID         `json:"batch_id"`
	LotNumber string            `json:"lot_number"`
	Consumed  decimal.Decimal   `json:"consumed"`
	Remaining decimal.Decimal   `json:"remaining"`
	Unit      valueobject.Unit  `json:"unit"`
	UnitCost  valueobject.Money `json:"unit_cost"`
	Cost      valueobject.Money `json:"cost"`
	Depleted  bool              `json:"depleted"`
}

// ConsumeResult is the outcome of a FIFO consumption.
// An empty Batches slice with a nil TransactionID means nothing was consumed.
type ConsumeResult struct {
	IngredientID  uuid.UUID          `json:"ingredient_id"`
	Batches       []BatchConsumption `json:"batches"`
	TotalCost     valueobject.Money  `json:"total_cost"`
	TransactionID *uuid.UUID         `json:"transaction_id,omitempty"`
	NewStock      decimal.Decimal    `json:"new_stock"`
	Unit          valueobject.Unit   `json:"unit,omitempty"`
}

// ============================================================================
// Adjustment DTOs
// ============================================================================

// AdjustStockRequest represents a manual stock correction.
// Increasing stock creates a batch and requires UnitCost.
type AdjustStockRequest struct {
	IngredientID    uuid.UUID        `json:"ingredient_id" binding:"required"`
	Direction       string           `json:"direction" binding:"required,oneof=increase decrease"`
	Quantity        decimal.Decimal  `json:"quantity" binding:"required"`
	Unit            string           `json:"unit" binding:"omitempty,unit"`
	UnitCost        *decimal.Decimal `json:"unit_cost"`
	Currency        string           `json:"currency" binding:"omitempty,currency"`
	TransactionType string           `json:"transaction_type"`
	LotNumber       string           `json:"lot_number"`
	Supplier        string           `json:"supplier"`
	ExpiryDate      *time.Time       `json:"expiry_date"`
	Reason          string           `json:"reason" binding:"max=500"`
	ReferenceID     string           `json:"reference_id" binding:"max=100"`
	PerformedBy     string           `json:"-"`
}

// StockMovementRequest represents a typed stock movement.
// Direction is only read for ADJUSTMENT and AUDIT.
type StockMovementRequest struct {
	IngredientID    uuid.UUID        `json:"ingredient_id" binding:"required"`
	TransactionType string           `json:"transaction_type" binding:"required"`
	Direction       string           `json:"direction"`
	Quantity        decimal.Decimal  `json:"quantity" binding:"required"`
	Unit            string           `json:"unit" binding:"omitempty,unit"`
	UnitCost        *decimal.Decimal `json:"unit_cost"`
	Currency        string           `json:"currency" binding:"omitempty,currency"`
	LotNumber       string           `json:"lot_number"`
	Supplier        string           `json:"supplier"`
	ExpiryDate      *time.Time       `json:"expiry_date"`
	Reason          string           `json:"reason" binding:"max=500"`
	ReferenceID     string           `json:"reference_id" binding:"max=100"`
	PerformedBy     string           `json:"-"`
}

// AdjustStockResult carries either the created batch or the consumption trace
type AdjustStockResult struct {
	IngredientID    uuid.UUID      `json:"ingredient_id"`
	Direction       string         `json:"direction"`
	TransactionType string         `json:"transaction_type"`
	Batch           *BatchResponse `json:"batch,omitempty"`
	Consumption     *ConsumeResult `json:"consumption,omitempty"`
}

// ============================================================================
// Audit DTOs
// ============================================================================

// AuditRequest represents a physical count of an ingredient
type AuditRequest struct {
	IngredientID     uuid.UUID       `json:"ingredient_id" binding:"required"`
	MeasuredQuantity decimal.Decimal `json:"measured_quantity"`
	Unit             string          `json:"unit" binding:"omitempty,unit"`
	Notes            string          `json:"notes" binding:"max=500"`
	ReferenceID      string          `json:"reference_id" binding:"max=100"`
	PerformedBy      string          `json:"-"`
}

// AuditResult reports the counted difference in the ingredient's stock unit.
// Difference is measured minus expected; zero means the count matched.
type AuditResult struct {
	IngredientID uuid.UUID        `json:"ingredient_id"`
	Expected     decimal.Decimal  `json:"expected"`
	Measured     decimal.Decimal  `json:"measured"`
	Difference   decimal.Decimal  `json:"difference"`
	Unit         valueobject.Unit `json:"unit"`
	Batch        *BatchResponse   `json:"batch,omitempty"`
	Consumption  *ConsumeResult   `json:"consumption,omitempty"`
}

// ============================================================================
// Expiry DTOs
// ============================================================================

// ExpiringIngredientResponse is one ingredient's expiring stock
type ExpiringIngredientResponse struct {
	IngredientID   uuid.UUID        `json:"ingredient_id"`
	IngredientName string           `json:"ingredient_name"`
	TotalRemaining decimal.Decimal  `json:"total_remaining"`
	Unit           valueobject.Unit `json:"unit"`
	EarliestExpiry time.Time        `json:"earliest_expiry"`
	Batches        []BatchResponse  `json:"batches"`
}

// SkippedBatchResponse is a batch the expiry report could not sum
type SkippedBatchResponse struct {
	BatchID      uuid.UUID `json:"batch_id"`
	IngredientID uuid.UUID `json:"ingredient_id"`
	Reason       string    `json:"reason"`
}

// ExpiryReportResponse represents the expiry check result
type ExpiryReportResponse struct {
	Days        int                          `json:"days"`
	GeneratedAt time.Time                    `json:"generated_at"`
	Until       time.Time                    `json:"until"`
	Ingredients []ExpiringIngredientResponse `json:"ingredients"`
	Skipped     []SkippedBatchResponse       `json:"skipped,omitempty"`
}

// ToExpiryReportResponse converts a domain ExpiryReport to a response
func ToExpiryReportResponse(report *inventory.ExpiryReport, days int) ExpiryReportResponse {
	resp := ExpiryReportResponse{
		Days:        days,
		GeneratedAt: report.GeneratedAt,
		Until:       report.Until,
		Ingredients: make([]ExpiringIngredientResponse, 0, len(report.Groups)),
	}
	for _, g := range report.Groups {
		batches := make([]BatchResponse, len(g.Batches))
		for i, b := range g.Batches {
			batches[i] = ToBatchResponse(b)
		}
		resp.Ingredients = append(resp.Ingredients, ExpiringIngredientResponse{
			IngredientID:   g.IngredientID,
			IngredientName: g.IngredientName,
			TotalRemaining: g.TotalRemaining.Amount(),
			Unit:           g.TotalRemaining.Unit(),
			EarliestExpiry: g.EarliestExpiry,
			Batches:        batches,
		})
	}
	for _, s := range report.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedBatchResponse{
			BatchID:      s.BatchID,
			IngredientID: s.IngredientID,
			Reason:       s.Reason,
		})
	}
	return resp
}

// ExpireBatchesResult summarises one expiry sweep
type ExpireBatchesResult struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Failed  int `json:"failed"`
	Pages   int `json:"pages"`
}

// ============================================================================
// Ledger DTOs
// ============================================================================

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID             uuid.UUID             `json:"id"`
	IngredientID   uuid.UUID             `json:"ingredient_id"`
	IngredientName string                `json:"ingredient_name"`
	Quantity       decimal.Decimal       `json:"quantity"`
	Unit           valueobject.Unit      `json:"unit"`
	UnitCost       valueobject.UnitPrice `json:"unit_cost"`
	TotalCost      valueobject.Money     `json:"total_cost"`
	Type           string                `json:"type"`
	Date           time.Time             `json:"date"`
	PerformedBy    string                `json:"performed_by,omitempty"`
	Reason         string                `json:"reason,omitempty"`
	ReferenceID    string                `json:"reference_id,omitempty"`
	BatchID        *uuid.UUID            `json:"batch_id,omitempty"`
	BalanceAfter   decimal.Decimal       `json:"balance_after"`
}

// TransactionListFilter represents filter options for ledger lists
type TransactionListFilter struct {
	Type     string `form:"type"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToTransactionResponse converts a domain StockTransaction to a response
func ToTransactionResponse(tx *inventory.StockTransaction) TransactionResponse {
	return TransactionResponse{
		ID:             tx.ID,
		IngredientID:   tx.IngredientID,
		IngredientName: tx.IngredientName,
		Quantity:       tx.Quantity,
		Unit:           tx.Unit,
		UnitCost:       tx.UnitCost,
		TotalCost:      tx.TotalCost,
		Type:           tx.Type.String(),
		Date:           tx.Date,
		PerformedBy:    tx.PerformedBy,
		Reason:         tx.Reason,
		ReferenceID:    tx.ReferenceID,
		BatchID:        tx.BatchID,
		BalanceAfter:   tx.BalanceAfter,
	}
}

// ToTransactionResponses converts a slice of ledger entries
func ToTransactionResponses(txs []inventory.StockTransaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToTransactionResponse(&txs[i])
	}
	return responses
}
