package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/infrastructure/persistence/models"
	"github.com/kitchenops/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// Create inserts a new batch
func (r *GormBatchRepository) Create(ctx context.Context, batch *inventory.Batch) error {
	return r.db.WithContext(ctx).Create(models.BatchModelFromDomain(batch)).Error
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	var model models.BatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("batch", id.String())
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindActiveFIFO returns the ingredient's ACTIVE batches, oldest first.
// Rows are read without a lock: concurrent consumers of one ingredient are
// serialized by the version check in IngredientRepository.SaveWithLock.
func (r *GormBatchRepository) FindActiveFIFO(ctx context.Context, tenantID, ingredientID uuid.UUID) ([]inventory.Batch, error) {
	var rows []models.BatchModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("ingredient_id = ? AND status = ?", ingredientID, inventory.BatchStatusActive.String()).
		Order("received_date ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.BatchesToDomain(rows)
}

// FindByIngredient lists batches of an ingredient
func (r *GormBatchRepository) FindByIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID, filter shared.Filter) ([]inventory.Batch, error) {
	var rows []models.BatchModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.BatchModel{}).
			Scopes(tenant.Scope(tenantID)).
			Where("ingredient_id = ?", ingredientID),
		filter,
	)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.BatchesToDomain(rows)
}

// CountByIngredient counts batches of an ingredient matching the filter
func (r *GormBatchRepository) CountByIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.BatchModel{}).
			Scopes(tenant.Scope(tenantID)).
			Where("ingredient_id = ?", ingredientID),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Consume persists a batch's remaining quantity and status
func (r *GormBatchRepository) Consume(ctx context.Context, batch *inventory.Batch) error {
	result := r.db.WithContext(ctx).
		Model(&models.BatchModel{}).
		Where("id = ?", batch.ID).
		Updates(map[string]interface{}{
			"remaining_quantity": batch.RemainingQuantity.Amount(),
			"status":             batch.Status.String(),
			"updated_at":         batch.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("batch", batch.ID.String())
	}
	return nil
}

// UpdateStatus sets a batch's status
func (r *GormBatchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status inventory.BatchStatus) error {
	if !status.IsValid() {
		return shared.NewValidationError("unknown batch status: %q", string(status))
	}
	result := r.db.WithContext(ctx).
		Model(&models.BatchModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status.String(),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("batch", id.String())
	}
	return nil
}

// FindExpiringWithin finds a tenant's ACTIVE batches expiring in [from, until]
func (r *GormBatchRepository) FindExpiringWithin(ctx context.Context, tenantID uuid.UUID, from, until time.Time) ([]inventory.Batch, error) {
	var rows []models.BatchModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("status = ?", inventory.BatchStatusActive.String()).
		Where("expiry_date IS NOT NULL AND expiry_date >= ? AND expiry_date <= ?", from, until).
		Order("expiry_date ASC, received_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.BatchesToDomain(rows)
}

// FindExpiredActive finds ACTIVE batches of every tenant whose expiry date has
// passed, keyset-paged on (expiry_date, id)
func (r *GormBatchRepository) FindExpiredActive(ctx context.Context, now time.Time, after *inventory.ExpiryCursor, limit int) ([]inventory.Batch, error) {
	var rows []models.BatchModel
	query := r.db.WithContext(ctx).
		Where("status = ? AND expiry_date IS NOT NULL AND expiry_date < ?", inventory.BatchStatusActive.String(), now)
	if after != nil {
		query = query.Where("(expiry_date > ? OR (expiry_date = ? AND id > ?))", after.ExpiryDate, after.ExpiryDate, after.BatchID)
	}
	query = query.Order("expiry_date ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.BatchesToDomain(rows)
}

// applyFilter applies filter options to the query
func (r *GormBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, BatchSortFields, "received_date")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	if filter.OrderDir == "" {
		sortOrder = "ASC"
	}
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies field filters only
func (r *GormBatchRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			if status, ok := value.(inventory.BatchStatus); ok {
				value = status.String()
			}
			query = query.Where("status = ?", value)
		}
	}
	return query
}

// Ensure GormBatchRepository implements BatchRepository
var _ inventory.BatchRepository = (*GormBatchRepository)(nil)
