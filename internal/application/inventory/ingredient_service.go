package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateIngredient registers an ingredient. A positive InitialQuantity is booked in the
// same unit of work as an INITIAL_STOCK batch priced at InitialUnitCost.
func (s *InventoryService) CreateIngredient(ctx context.Context, tenantID uuid.UUID, req CreateIngredientRequest) (*IngredientResponse, error) {
	unit, err := valueobject.ParseUnit(req.Unit)
	if err != nil {
		return nil, err
	}
	currency := s.config.DefaultCurrency
	if req.Currency != "" {
		if currency, err = valueobject.ParseCurrency(req.Currency); err != nil {
			return nil, err
		}
	}

	ingredient, err := inventory.NewIngredient(inventory.NewIngredientParams{
		ID:           s.ids.NewID(),
		TenantID:     tenantID,
		OutletID:     req.OutletID,
		Name:         req.Name,
		Category:     req.Category,
		SKU:          req.SKU,
		Unit:         unit,
		Density:      decimalOrZero(req.Density),
		PieceWeight:  decimalOrZero(req.PieceWeight),
		Currency:     currency,
		MinimumStock: req.MinimumStock,
		Now:          s.now(),
	})
	if err != nil {
		return nil, err
	}

	var ledger *inventory.StockTransaction
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.IngredientRepo().Save(ctx, ingredient); err != nil {
			return err
		}
		if !req.InitialQuantity.IsPositive() {
			return nil
		}
		initial, err := valueobject.NewQuantity(req.InitialQuantity, unit)
		if err != nil {
			return err
		}
		_, ledger, err = s.receiveInScope(ctx, repos, ingredient, receiveParams{
			txType:      inventory.TransactionTypeInitialStock,
			quantity:    initial,
			unitCost:    valueobject.NewMoneyFromDecimal(req.InitialUnitCost, currency),
			reason:      "initial stock",
			performedBy: req.PerformedBy,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, takeEvents(ingredient))
	s.recordMovement(ctx, ledger)
	s.logger.Info("ingredient created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("ingredient_id", ingredient.ID.String()),
		zap.String("name", ingredient.Name),
	)

	resp := ToIngredientResponse(ingredient)
	return &resp, nil
}

// GetIngredient retrieves an ingredient by ID
func (s *InventoryService) GetIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID) (*IngredientResponse, error) {
	ingredient, err := s.ingredientRepo.FindByIDForTenant(ctx, tenantID, ingredientID)
	if err != nil {
		return nil, err
	}
	resp := ToIngredientResponse(ingredient)
	return &resp, nil
}

// UpdateIngredient changes an ingredient's name, category and minimum stock
func (s *InventoryService) UpdateIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID, req UpdateIngredientRequest) (*IngredientResponse, error) {
	var ingredient *inventory.Ingredient
	err := s.withConflictRetry(ctx, "update_ingredient", func() error {
		var err error
		ingredient, err = s.ingredientRepo.FindByIDForTenant(ctx, tenantID, ingredientID)
		if err != nil {
			return err
		}
		if err := ingredient.UpdateDetails(req.Name, req.Category, req.MinimumStock, s.now()); err != nil {
			return err
		}
		return s.ingredientRepo.SaveWithLock(ctx, ingredient)
	})
	if err != nil {
		return nil, err
	}
	resp := ToIngredientResponse(ingredient)
	return &resp, nil
}

// ListIngredients retrieves ingredients with filtering and pagination
func (s *InventoryService) ListIngredients(ctx context.Context, tenantID uuid.UUID, filter IngredientListFilter) ([]IngredientResponse, int64, error) {
	domainFilter := toIngredientFilter(filter)
	if filter.BelowMinimum {
		return s.listBelowMinimum(ctx, tenantID, domainFilter)
	}

	items, err := s.ingredientRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.ingredientRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToIngredientResponses(items), total, nil
}

// ListBelowMinimum retrieves ingredients whose stock is under their minimum
func (s *InventoryService) ListBelowMinimum(ctx context.Context, tenantID uuid.UUID, filter IngredientListFilter) ([]IngredientResponse, int64, error) {
	return s.listBelowMinimum(ctx, tenantID, toIngredientFilter(filter))
}

func (s *InventoryService) listBelowMinimum(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]IngredientResponse, int64, error) {
	items, err := s.ingredientRepo.FindBelowMinimum(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.ingredientRepo.CountBelowMinimum(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToIngredientResponses(items), total, nil
}

// ListBatches lists an ingredient's batches
func (s *InventoryService) ListBatches(ctx context.Context, tenantID, ingredientID uuid.UUID, filter BatchListFilter) ([]BatchResponse, int64, error) {
	if _, err := s.ingredientRepo.FindByIDForTenant(ctx, tenantID, ingredientID); err != nil {
		return nil, 0, err
	}

	domainFilter := pageFilter(filter.Page, filter.PageSize, "received_date", "asc")
	if filter.Status != "" {
		status := inventory.BatchStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("unknown batch status: %q", filter.Status)
		}
		domainFilter.Filters["status"] = status
	}

	batches, err := s.batchRepo.FindByIngredient(ctx, tenantID, ingredientID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.batchRepo.CountByIngredient(ctx, tenantID, ingredientID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToBatchResponses(batches), total, nil
}

// ListTransactions lists an ingredient's ledger entries, newest first
func (s *InventoryService) ListTransactions(ctx context.Context, tenantID, ingredientID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	if _, err := s.ingredientRepo.FindByIDForTenant(ctx, tenantID, ingredientID); err != nil {
		return nil, 0, err
	}

	domainFilter := pageFilter(filter.Page, filter.PageSize, "date", "desc")
	if filter.Type != "" {
		txType, err := inventory.ParseTransactionType(filter.Type)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Filters["type"] = txType
	}

	txs, err := s.transactionRepo.FindByIngredient(ctx, tenantID, ingredientID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transactionRepo.CountByIngredient(ctx, tenantID, ingredientID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToTransactionResponses(txs), total, nil
}

func toIngredientFilter(filter IngredientListFilter) shared.Filter {
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "name"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "asc"
	}
	domainFilter := pageFilter(filter.Page, filter.PageSize, orderBy, orderDir)
	domainFilter.Search = filter.Search
	if filter.OutletID != nil {
		domainFilter.Filters["outlet_id"] = *filter.OutletID
	}
	if filter.Category != "" {
		domainFilter.Filters["category"] = filter.Category
	}
	return domainFilter
}

func pageFilter(page, pageSize int, orderBy, orderDir string) shared.Filter {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  orderBy,
		OrderDir: orderDir,
		Filters:  make(map[string]interface{}),
	}
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
