package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinv "github.com/kitchenops/backend/internal/application/inventory"
	"github.com/kitchenops/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
)

// InventoryService is the part of the application service the HTTP layer uses
type InventoryService interface {
	CreateIngredient(ctx context.Context, tenantID uuid.UUID, req appinv.CreateIngredientRequest) (*appinv.IngredientResponse, error)
	GetIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID) (*appinv.IngredientResponse, error)
	UpdateIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID, req appinv.UpdateIngredientRequest) (*appinv.IngredientResponse, error)
	ListIngredients(ctx context.Context, tenantID uuid.UUID, filter appinv.IngredientListFilter) ([]appinv.IngredientResponse, int64, error)
	ListBelowMinimum(ctx context.Context, tenantID uuid.UUID, filter appinv.IngredientListFilter) ([]appinv.IngredientResponse, int64, error)
	ListBatches(ctx context.Context, tenantID, ingredientID uuid.UUID, filter appinv.BatchListFilter) ([]appinv.BatchResponse, int64, error)
	ListTransactions(ctx context.Context, tenantID, ingredientID uuid.UUID, filter appinv.TransactionListFilter) ([]appinv.TransactionResponse, int64, error)
	AddBatch(ctx context.Context, tenantID uuid.UUID, req appinv.AddBatchRequest) (*appinv.BatchResponse, error)
	ConsumeFIFO(ctx context.Context, tenantID uuid.UUID, req appinv.ConsumeRequest) (*appinv.ConsumeResult, error)
	AdjustStock(ctx context.Context, tenantID uuid.UUID, req appinv.AdjustStockRequest) (*appinv.AdjustStockResult, error)
	ProcessStockMovement(ctx context.Context, tenantID uuid.UUID, req appinv.StockMovementRequest) (*appinv.AdjustStockResult, error)
	PerformAudit(ctx context.Context, tenantID uuid.UUID, req appinv.AuditRequest) (*appinv.AuditResult, error)
	CheckExpiry(ctx context.Context, tenantID uuid.UUID, days int) (*appinv.ExpiryReportResponse, error)
	ExpireBatches(ctx context.Context) (*appinv.ExpireBatchesResult, error)
}

// InventoryHandler handles ingredient and stock endpoints
type InventoryHandler struct {
	BaseHandler
	service InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(service InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// ===================== Request Types =====================

// IngredientListQuery holds the query parameters of ingredient lists
type IngredientListQuery struct {
	Search       string `form:"search"`
	OutletID     string `form:"outlet_id" binding:"omitempty,uuid"`
	Category     string `form:"category"`
	BelowMinimum bool   `form:"below_minimum"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (q IngredientListQuery) toFilter() appinv.IngredientListFilter {
	page, pageSize := pagination(q.Page, q.PageSize)
	filter := appinv.IngredientListFilter{
		Search:       q.Search,
		Category:     q.Category,
		BelowMinimum: q.BelowMinimum,
		Page:         page,
		PageSize:     pageSize,
		OrderBy:      q.OrderBy,
		OrderDir:     q.OrderDir,
	}
	if id, err := uuid.Parse(q.OutletID); err == nil {
		filter.OutletID = &id
	}
	return filter
}

// AddBatchRequest is the body of a delivery
type AddBatchRequest struct {
	OutletID     string          `json:"outlet_id" binding:"omitempty,uuid"`
	LotNumber    string          `json:"lot_number" binding:"max=100"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit" binding:"omitempty,unit"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Currency     string          `json:"currency" binding:"omitempty,currency"`
	Supplier     string          `json:"supplier" binding:"max=200"`
	ExpiryDate   string          `json:"expiry_date"`
	ReceivedDate string          `json:"received_date"`
	InvoiceRef   string          `json:"invoice_ref" binding:"max=100"`
	Notes        string          `json:"notes" binding:"max=500"`
	ReferenceID  string          `json:"reference_id" binding:"max=100"`
}

// ConsumeRequest is the body of a FIFO draw-down
type ConsumeRequest struct {
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit" binding:"omitempty,unit"`
	Reason          string          `json:"reason" binding:"max=500"`
	ReferenceID     string          `json:"reference_id" binding:"max=100"`
	TransactionType string          `json:"transaction_type" binding:"omitempty,oneof=SALE WASTE ADJUSTMENT AUDIT"`
}

// AdjustStockRequest is the body of a manual correction
type AdjustStockRequest struct {
	Direction       string           `json:"direction" binding:"required,oneof=increase decrease"`
	Quantity        decimal.Decimal  `json:"quantity"`
	Unit            string           `json:"unit" binding:"omitempty,unit"`
	UnitCost        *decimal.Decimal `json:"unit_cost"`
	Currency        string           `json:"currency" binding:"omitempty,currency"`
	TransactionType string           `json:"transaction_type"`
	LotNumber       string           `json:"lot_number" binding:"max=100"`
	Supplier        string           `json:"supplier" binding:"max=200"`
	ExpiryDate      string           `json:"expiry_date"`
	Reason          string           `json:"reason" binding:"max=500"`
	ReferenceID     string           `json:"reference_id" binding:"max=100"`
}

// StockMovementRequest is the body of a typed movement
type StockMovementRequest struct {
	TransactionType string           `json:"transaction_type" binding:"required"`
	Direction       string           `json:"direction" binding:"omitempty,oneof=increase decrease"`
	Quantity        decimal.Decimal  `json:"quantity"`
	Unit            string           `json:"unit" binding:"omitempty,unit"`
	UnitCost        *decimal.Decimal `json:"unit_cost"`
	Currency        string           `json:"currency" binding:"omitempty,currency"`
	LotNumber       string           `json:"lot_number" binding:"max=100"`
	Supplier        string           `json:"supplier" binding:"max=200"`
	ExpiryDate      string           `json:"expiry_date"`
	Reason          string           `json:"reason" binding:"max=500"`
	ReferenceID     string           `json:"reference_id" binding:"max=100"`
}

// AuditRequest is the body of a physical count
type AuditRequest struct {
	MeasuredQuantity decimal.Decimal `json:"measured_quantity"`
	Unit             string          `json:"unit" binding:"omitempty,unit"`
	Notes            string          `json:"notes" binding:"max=500"`
	ReferenceID      string          `json:"reference_id" binding:"max=100"`
}

// ===================== Ingredient Handlers =====================

// CreateIngredient handles POST /ingredients
// @ID           createIngredient
// @Summary      Create an ingredient
// @Description  Register an ingredient with its stock unit, optional density and piece weight, and an optional opening stock
// @Tags         ingredients
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body appinv.CreateIngredientRequest true "Ingredient to create"
// @Success      201 {object} dto.Response{data=appinv.IngredientResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /ingredients [post]
func (h *InventoryHandler) CreateIngredient(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req appinv.CreateIngredientRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.PerformedBy = middleware.GetActor(c)

	ingredient, err := h.service.CreateIngredient(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ingredient)
}

// GetIngredient handles GET /ingredients/:id
// @ID           getIngredientById
// @Summary      Get ingredient by ID
// @Description  Retrieve an ingredient with its current stock, costs and stock value
// @Tags         ingredients
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Ingredient ID" format(uuid)
// @Success      200 {object} dto.Response{data=appinv.IngredientResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /ingredients/{id} [get]
func (h *InventoryHandler) GetIngredient(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	ingredientID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	ingredient, err := h.service.GetIngredient(c.Request.Context(), tenantID, ingredientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ingredient)
}

// UpdateIngredient handles PUT /ingredients/:id
// @ID           updateIngredient
// @Summary      Update an ingredient
// @Description  Update descriptive fields and the minimum stock of an ingredient
// @Tags         ingredients
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Ingredient ID" format(uuid)
// @Param        request body appinv.UpdateIngredientRequest true "Fields to update"
// @Success      200 {object} dto.Response{data=appinv.IngredientResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /ingredients/{id} [put]
func (h *InventoryHandler) UpdateIngredient(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	ingredientID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appinv.UpdateIngredientRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ingredient, err := h.service.UpdateIngredient(c.Request.Context(), tenantID, ingredientID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ingredient)
}

// ListIngredients handles GET /ingredients
// @ID           listIngredients
// @Summary      List ingredients
// @Description  Retrieve a paginated list of ingredients with optional filtering
// @Tags         ingredients
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        search query string false "Search by name or SKU"
// @Param        outlet_id query string false "Filter by outlet ID" format(uuid)
// @Param        category query string false "Filter by category"
// @Param        below_minimum query boolean false "Only ingredients below their minimum stock"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(name)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(asc)
// @Success      200 {object} dto.Response{data=[]appinv.IngredientResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /ingredients [get]
func (h *InventoryHandler) ListIngredients(c *gin.Context) {
	h.listIngredients(c, h.service.ListIngredients)
}

// ListBelowMinimum handles GET /ingredients/below-minimum
// @ID           listIngredientsBelowMinimum
// @Summary      List ingredients below minimum
// @Description  Retrieve ingredients whose current stock is below their minimum stock
// @Tags         ingredients
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        outlet_id query string false "Filter by outlet ID" format(uuid)
// @Param        category query string false "Filter by category"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]appinv.IngredientResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /ingredients/below-minimum [get]
func (h *InventoryHandler) ListBelowMinimum(c *gin.Context) {
	h.listIngredients(c, h.service.ListBelowMinimum)
}

func (h *InventoryHandler) listIngredients(
	c *gin.Context,
	list func(context.Context, uuid.UUID, appinv.IngredientListFilter) ([]appinv.IngredientResponse, int64, error),
) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var q IngredientListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter := q.toFilter()

	items, total, err := list(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListBatches handles GET /ingredients/:id/batches
// @ID           listIngredientBatches
// @Summary      List batches of an ingredient
// @Description  Retrieve the batches of an ingredient in FIFO order
// @Tags         batches
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Ingredient ID" format(uuid)
// @Param        status query string false "Filter by batch status" Enums(ACTIVE, DEPLETED, EXPIRED)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]appinv.BatchResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /ingredients/{id}/batches [get]
func (h *InventoryHandler) ListBatches(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	ingredientID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var filter appinv.BatchListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	filter.Page, filter.PageSize = pagination(filter.Page, filter.PageSize)

	batches, total, err := h.service.ListBatches(c.Request.Context(), tenantID, ingredientID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, batches, total, filter.Page, filter.PageSize)
}

// ListTransactions handles GET /ingredients/:id/transactions
// @ID           listIngredientTransactions
// @Summary      List ledger entries of an ingredient
// @Description  Retrieve the append-only stock ledger of an ingredient, newest first
// @Tags         ledger
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Ingredient ID" format(uuid)
// @Param        type query string false "Filter by transaction type" Enums(PURCHASE, SALE, WASTE, ADJUSTMENT, TRANSFER, AUDIT)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]appinv.TransactionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /ingredients/{id}/transactions [get]
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	ingredientID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var filter appinv.TransactionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	filter.Page, filter.PageSize = pagination(filter.Page, filter.PageSize)

	txs, total, err := h.service.ListTransactions(c.Request.Context(), tenantID, ingredientID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, txs, total, filter.Page, filter.PageSize)
}

// ===================== Stock Handlers =====================

// AddBatch handles POST /ingredients/:id/batches
// @ID           addIngredientBatch
// @Summary      Receive a delivery
// @Description  Receive stock as a new batch. The quantity may be given in any unit convertible to the stock unit
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        Idempotency-Key header string false "Replays the stored response for a repeated key"
// @Param        id path string true "Ingredient ID" format(uuid)
// @Param        request body AddBatchRequest true "Delivery"
// @Success      201 {object} dto.Response{data=appinv.BatchResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /ingredients/{id}/batches [post]
func (h *InventoryHandler) AddBatch(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	ingredientID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req AddBatchRequest
	if !h.bindJSON(c, &req) {
		return
	}
	expiry, ok := h.optionalDate(c, "expiry_date", req.ExpiryDate)
	if !ok {
		return
	}
	received, ok := h.optionalDate(c, "received_date", req.ReceivedDate)
	if !ok {
		return
	}

	appReq := appinv.AddBatchRequest{
		IngredientID: ingredientID,
		LotNumber:    req.LotNumber,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		UnitCost:     req.UnitCost,
		Currency:     req.Currency,
		Supplier:     req.Supplier,
		ExpiryDate:   expiry,
		ReceivedDate: received,
		InvoiceRef:   req.InvoiceRef,
		Notes:        req.Notes,
		ReferenceID:  req.ReferenceID,
		PerformedBy:  middleware.GetActor(c),
	}
	if id, err := uuid.Parse(req.OutletID); err == nil {
		appReq.OutletID = &id
	}

	batch, err := h.service.AddBatch(c.Request.Context(), tenantID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, batch)
}

// Consume handles POST /ingredients/:id/consume
// @ID           consumeIngredientFIFO
// @Summary      Consume stock FIFO
// @Description  Draw stock down from the oldest batches first and return the FIFO cost trace
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        Idempotency-Key header string false "Replays the stored response for a repeated key"
// @Param        id path string true "Ingredient ID" format(uuid)
// @Param        request body ConsumeRequest true "Quantity to consume"
// @Success      200 {object} dto.Response{data=appinv.ConsumeResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /ingredients/{id}/consume [post]
func (h *InventoryHandler) Consume(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	ingredientID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ConsumeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.ConsumeFIFO(c.Request.Context(), tenantID, appinv.ConsumeRequest{
		IngredientID:    ingredientID,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		Reason:          req.Reason,
		ReferenceID:     req.ReferenceID,
		TransactionType: req.TransactionType,
		PerformedBy:     middleware.GetActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// AdjustStock handles POST /ingredients/:id/adjust
// @ID           adjustIngredientStock
// @Summary      Adjust stock
// @Description  Correct stock by hand. Increases create a batch and need a unit cost; decreases consume FIFO
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        Idempotency-Key header string false "Replays the stored response for a repeated key"
// @Param        id path string true "Ingredient ID" format(uuid)
// @Param        request body AdjustStockRequest true "Adjustment"
// @Success      200 {object} dto.Response{data=appinv.AdjustStockResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /ingredients/{id}/adjust [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	ingredientID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	expiry, ok := h.optionalDate(c, "expiry_date", req.ExpiryDate)
	if !ok {
		return
	}

	result, err := h.service.AdjustStock(c.Request.Context(), tenantID, appinv.AdjustStockRequest{
		IngredientID:    ingredientID,
		Direction:       req.Direction,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		UnitCost:        req.UnitCost,
		Currency:        req.Currency,
		TransactionType: req.TransactionType,
		LotNumber:       req.LotNumber,
		Supplier:        req.Supplier,
		ExpiryDate:      expiry,
		Reason:          req.Reason,
		ReferenceID:     req.ReferenceID,
		PerformedBy:     middleware.GetActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ProcessMovement handles POST /ingredients/:id/movements
// @ID           processIngredientMovement
// @Summary      Record a typed stock movement
// @Description  Record a purchase, sale, waste, transfer or adjustment against an ingredient
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        Idempotency-Key header string false "Replays the stored response for a repeated key"
// @Param        id path string true "Ingredient ID" format(uuid)
// @Param        request body StockMovementRequest true "Movement"
// @Success      200 {object} dto.Response{data=appinv.AdjustStockResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /ingredients/{id}/movements [post]
func (h *InventoryHandler) ProcessMovement(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	ingredientID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req StockMovementRequest
	if !h.bindJSON(c, &req) {
		return
	}
	expiry, ok := h.optionalDate(c, "expiry_date", req.ExpiryDate)
	if !ok {
		return
	}

	result, err := h.service.ProcessStockMovement(c.Request.Context(), tenantID, appinv.StockMovementRequest{
		IngredientID:    ingredientID,
		TransactionType: req.TransactionType,
		Direction:       req.Direction,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		UnitCost:        req.UnitCost,
		Currency:        req.Currency,
		LotNumber:       req.LotNumber,
		Supplier:        req.Supplier,
		ExpiryDate:      expiry,
		Reason:          req.Reason,
		ReferenceID:     req.ReferenceID,
		PerformedBy:     middleware.GetActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// PerformAudit handles POST /ingredients/:id/audit
// @ID           auditIngredientStock
// @Summary      Reconcile a physical count
// @Description  Compare a counted quantity with the stock on hand and book the difference as an AUDIT entry
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        Idempotency-Key header string false "Replays the stored response for a repeated key"
// @Param        id path string true "Ingredient ID" format(uuid)
// @Param        request body AuditRequest true "Physical count"
// @Success      200 {object} dto.Response{data=appinv.AuditResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /ingredients/{id}/audit [post]
func (h *InventoryHandler) PerformAudit(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	ingredientID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req AuditRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.PerformAudit(c.Request.Context(), tenantID, appinv.AuditRequest{
		IngredientID:     ingredientID,
		MeasuredQuantity: req.MeasuredQuantity,
		Unit:             req.Unit,
		Notes:            req.Notes,
		ReferenceID:      req.ReferenceID,
		PerformedBy:      middleware.GetActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ===================== Expiry Handlers =====================

// CheckExpiry handles GET /expiry?days=N. Without days the configured window applies.
// @ID           checkExpiry
// @Summary      Report expiring batches
// @Description  List active batches past or near their expiry date
// @Tags         expiry
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        days query int false "Look-ahead window in days; the configured window applies when omitted" minimum(0)
// @Success      200 {object} dto.Response{data=appinv.ExpiryReportResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /expiry [get]
func (h *InventoryHandler) CheckExpiry(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.BadRequest(c, "days must be a non-negative integer")
			return
		}
		days = n
	}

	report, err := h.service.CheckExpiry(c.Request.Context(), tenantID, days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// SweepExpired handles POST /expiry/sweep, running one expiry sweep immediately
// @ID           sweepExpiredBatches
// @Summary      Run the expiry sweep
// @Description  Write off every expired batch across tenants immediately. Requires the inventory admin role
// @Tags         expiry
// @Produce      json
// @Success      200 {object} dto.Response{data=appinv.ExpireBatchesResult}
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /expiry/sweep [post]
func (h *InventoryHandler) SweepExpired(c *gin.Context) {
	result, err := h.service.ExpireBatches(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
