package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/infrastructure/persistence/models"
	"github.com/kitchenops/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// belowMinimumCondition mirrors Ingredient.IsBelowMinimum, including the quantity tolerance
const belowMinimumCondition = "minimum_stock > 0 AND current_stock < minimum_stock - 0.0001"

// GormIngredientRepository implements IngredientRepository using GORM
type GormIngredientRepository struct {
	db *gorm.DB
}

// NewGormIngredientRepository creates a new GormIngredientRepository
func NewGormIngredientRepository(db *gorm.DB) *GormIngredientRepository {
	return &GormIngredientRepository{db: db}
}

// FindByID finds an ingredient by its ID
func (r *GormIngredientRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Ingredient, error) {
	var model models.IngredientModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("ingredient", id.String())
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByIDForTenant finds an ingredient by ID within a tenant
func (r *GormIngredientRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Ingredient, error) {
	var model models.IngredientModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("ingredient", id.String())
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByIDs finds multiple ingredients by their IDs
func (r *GormIngredientRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.Ingredient, error) {
	if len(ids) == 0 {
		return []inventory.Ingredient{}, nil
	}

	var rows []models.IngredientModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.IngredientsToDomain(rows)
}

// FindAllForTenant finds all ingredients for a tenant
func (r *GormIngredientRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.Ingredient, error) {
	var rows []models.IngredientModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.IngredientModel{}).
			Scopes(tenant.Scope(tenantID)),
		filter,
	)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.IngredientsToDomain(rows)
}

// CountForTenant counts ingredients for a tenant
func (r *GormIngredientRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.IngredientModel{}).
			Scopes(tenant.Scope(tenantID)),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindBelowMinimum finds ingredients whose stock is under their minimum
func (r *GormIngredientRepository) FindBelowMinimum(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.Ingredient, error) {
	var rows []models.IngredientModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.IngredientModel{}).
			Scopes(tenant.Scope(tenantID)).
			Where(belowMinimumCondition),
		filter,
	)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.IngredientsToDomain(rows)
}

// CountBelowMinimum counts ingredients whose stock is under their minimum
func (r *GormIngredientRepository) CountBelowMinimum(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.IngredientModel{}).
			Scopes(tenant.Scope(tenantID)).
			Where(belowMinimumCondition),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an ingredient without a version check
func (r *GormIngredientRepository) Save(ctx context.Context, ingredient *inventory.Ingredient) error {
	model := models.IngredientModelFromDomain(ingredient)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock updates the ingredient only if the stored version still matches
// the loaded one, then bumps the version in both places
func (r *GormIngredientRepository) SaveWithLock(ctx context.Context, ingredient *inventory.Ingredient) error {
	model := models.IngredientModelFromDomain(ingredient)
	result := r.db.WithContext(ctx).
		Model(&models.IngredientModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", ingredient.ID, ingredient.TenantID, ingredient.Version).
		Updates(map[string]interface{}{
			"name":            model.Name,
			"category":        model.Category,
			"current_stock":   model.CurrentStock,
			"minimum_stock":   model.MinimumStock,
			"last_cost_cents": model.LastCostCents,
			"last_cost_unit":  model.LastCostUnit,
			"average_cost":    model.AverageCost,
			"version":         gorm.Expr("version + 1"),
			"updated_at":      model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			"Ingredient "+ingredient.ID.String()+" was modified by another transaction")
	}
	ingredient.IncrementVersion()
	return nil
}

// applyFilter applies filter options to the query
func (r *GormIngredientRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, IngredientSortFields, "name")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	if filter.OrderDir == "" {
		sortOrder = "ASC"
	}
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies search and field filters only
func (r *GormIngredientRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(category) LIKE ?)",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "outlet_id":
			query = query.Where("outlet_id = ?", value)
		case "category":
			query = query.Where("category = ?", value)
		}
	}
	return query
}

// Ensure GormIngredientRepository implements IngredientRepository
var _ inventory.IngredientRepository = (*GormIngredientRepository)(nil)
