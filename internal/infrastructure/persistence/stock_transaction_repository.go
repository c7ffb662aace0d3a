package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/infrastructure/persistence/models"
	"github.com/kitchenops/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormStockTransactionRepository implements StockTransactionRepository using GORM.
// It only inserts and reads; the ledger is never updated.
type GormStockTransactionRepository struct {
	db *gorm.DB
}

// NewGormStockTransactionRepository creates a new GormStockTransactionRepository
func NewGormStockTransactionRepository(db *gorm.DB) *GormStockTransactionRepository {
	return &GormStockTransactionRepository{db: db}
}

// Create appends a ledger entry
func (r *GormStockTransactionRepository) Create(ctx context.Context, tx *inventory.StockTransaction) error {
	return r.db.WithContext(ctx).Create(models.StockTransactionModelFromDomain(tx)).Error
}

// FindByID finds a ledger entry by its ID
func (r *GormStockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockTransaction, error) {
	var model models.StockTransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("stock transaction", id.String())
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByIngredient lists an ingredient's ledger entries, newest first by default
func (r *GormStockTransactionRepository) FindByIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID, filter shared.Filter) ([]inventory.StockTransaction, error) {
	var rows []models.StockTransactionModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.StockTransactionModel{}).
			Scopes(tenant.Scope(tenantID)).
			Where("ingredient_id = ?", ingredientID),
		filter,
	)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	txs := make([]inventory.StockTransaction, 0, len(rows))
	for i := range rows {
		tx, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, nil
}

// CountByIngredient counts an ingredient's ledger entries matching the filter
func (r *GormStockTransactionRepository) CountByIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.StockTransactionModel{}).
			Scopes(tenant.Scope(tenantID)).
			Where("ingredient_id = ?", ingredientID),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormStockTransactionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, StockTransactionSortFields, "date")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	// Entries written in the same instant keep insertion order
	return query.Order(sortField + " " + sortOrder).Order("created_at " + sortOrder)
}

// applyFilterWithoutPagination applies field filters only
func (r *GormStockTransactionRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "type":
			if txType, ok := value.(inventory.TransactionType); ok {
				value = txType.String()
			}
			query = query.Where("type = ?", value)
		}
	}
	return query
}

// Ensure GormStockTransactionRepository implements StockTransactionRepository
var _ inventory.StockTransactionRepository = (*GormStockTransactionRepository)(nil)
