package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// anyCtx matches the derived contexts services pass on (span, profiling labels)
var anyCtx = mock.MatchedBy(func(context.Context) bool { return true })

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

func (m *MockEventPublisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// MockIngredientRepository is a mock implementation of inventory.IngredientRepository.
// Find methods accept either a value or a func producing a fresh value per call.
type MockIngredientRepository struct {
	mock.Mock
}

type ingredientFunc func() *inventory.Ingredient

func ingredientResult(v interface{}) *inventory.Ingredient {
	switch r := v.(type) {
	case ingredientFunc:
		return r()
	case func() *inventory.Ingredient:
		return r()
	case *inventory.Ingredient:
		return r
	}
	return nil
}

func (m *MockIngredientRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Ingredient, error) {
	args := m.Called(ctx, id)
	return ingredientResult(args.Get(0)), args.Error(1)
}

func (m *MockIngredientRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Ingredient, error) {
	args := m.Called(ctx, tenantID, id)
	return ingredientResult(args.Get(0)), args.Error(1)
}

func (m *MockIngredientRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.Ingredient, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]inventory.Ingredient), args.Error(1)
}

func (m *MockIngredientRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.Ingredient, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]inventory.Ingredient), args.Error(1)
}

func (m *MockIngredientRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIngredientRepository) FindBelowMinimum(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.Ingredient, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]inventory.Ingredient), args.Error(1)
}

func (m *MockIngredientRepository) CountBelowMinimum(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIngredientRepository) Save(ctx context.Context, ingredient *inventory.Ingredient) error {
	args := m.Called(ctx, ingredient)
	return args.Error(0)
}

func (m *MockIngredientRepository) SaveWithLock(ctx context.Context, ingredient *inventory.Ingredient) error {
	args := m.Called(ctx, ingredient)
	return args.Error(0)
}

// MockBatchRepository is a mock implementation of inventory.BatchRepository
type MockBatchRepository struct {
	mock.Mock
}

type batchesFunc func() []inventory.Batch

func (m *MockBatchRepository) Create(ctx context.Context, batch *inventory.Batch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindActiveFIFO(ctx context.Context, tenantID, ingredientID uuid.UUID) ([]inventory.Batch, error) {
	args := m.Called(ctx, tenantID, ingredientID)
	if fn, ok := args.Get(0).(batchesFunc); ok {
		return fn(), args.Error(1)
	}
	return args.Get(0).([]inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindByIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID, filter shared.Filter) ([]inventory.Batch, error) {
	args := m.Called(ctx, tenantID, ingredientID, filter)
	return args.Get(0).([]inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) CountByIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, ingredientID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBatchRepository) Consume(ctx context.Context, batch *inventory.Batch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockBatchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status inventory.BatchStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockBatchRepository) FindExpiringWithin(ctx context.Context, tenantID uuid.UUID, from, until time.Time) ([]inventory.Batch, error) {
	args := m.Called(ctx, tenantID, from, until)
	return args.Get(0).([]inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindExpiredActive(ctx context.Context, now time.Time, after *inventory.ExpiryCursor, limit int) ([]inventory.Batch, error) {
	args := m.Called(ctx, now, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Batch), args.Error(1)
}

// MockStockTransactionRepository is a mock implementation of inventory.StockTransactionRepository
type MockStockTransactionRepository struct {
	mock.Mock
}

func (m *MockStockTransactionRepository) Create(ctx context.Context, tx *inventory.StockTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockStockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockTransaction), args.Error(1)
}

func (m *MockStockTransactionRepository) FindByIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID, filter shared.Filter) ([]inventory.StockTransaction, error) {
	args := m.Called(ctx, tenantID, ingredientID, filter)
	return args.Get(0).([]inventory.StockTransaction), args.Error(1)
}

func (m *MockStockTransactionRepository) CountByIngredient(ctx context.Context, tenantID, ingredientID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, ingredientID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// recordingMetrics captures StockMetrics calls
type recordingMetrics struct {
	mu                sync.Mutex
	movements         []inventory.TransactionType
	integrityFailures int
	conflicts         int
	expired           int
}

func (r *recordingMetrics) RecordStockMovement(_ context.Context, _ uuid.UUID, txType inventory.TransactionType, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, txType)
}

func (r *recordingMetrics) RecordIntegrityFailure(_ context.Context, _, _ uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.integrityFailures++
}

func (r *recordingMetrics) RecordConcurrencyConflict(_ context.Context, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts++
}

func (r *recordingMetrics) RecordBatchesExpired(_ context.Context, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired += count
}

var (
	_ inventory.IngredientRepository       = (*MockIngredientRepository)(nil)
	_ inventory.BatchRepository            = (*MockBatchRepository)(nil)
	_ inventory.StockTransactionRepository = (*MockStockTransactionRepository)(nil)
	_ StockMetrics                         = (*recordingMetrics)(nil)
)
