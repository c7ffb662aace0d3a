package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// ServiceConfig holds the tunables of InventoryService
type ServiceConfig struct {
	DefaultCurrency    valueobject.Currency
	ExpiryWindowDays   int
	MaxConflictRetries int
	ExpirySweepLimit   int
}

// DefaultServiceConfig returns the default service configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DefaultCurrency:    valueobject.DefaultCurrency,
		ExpiryWindowDays:   3,
		MaxConflictRetries: 3,
		ExpirySweepLimit:   500,
	}
}

// StockMetrics records ledger activity. Implemented by the telemetry package.
type StockMetrics interface {
	RecordStockMovement(ctx context.Context, tenantID uuid.UUID, txType inventory.TransactionType, quantity float64)
	RecordIntegrityFailure(ctx context.Context, tenantID, ingredientID uuid.UUID)
	RecordConcurrencyConflict(ctx context.Context, operation string)
	RecordBatchesExpired(ctx context.Context, count int)
}

// InventoryService handles the ingredient ledger: receiving batches, FIFO consumption,
// adjustments, audits and expiry.
type InventoryService struct {
	ingredientRepo  inventory.IngredientRepository
	batchRepo       inventory.BatchRepository
	transactionRepo inventory.StockTransactionRepository
	txScope         TransactionScope
	eventPublisher  shared.EventPublisher
	metrics         StockMetrics
	ids             shared.IDGenerator
	clock           shared.Clock
	logger          *zap.Logger
	config          ServiceConfig
}

// NewInventoryService creates a new InventoryService.
// Reads go through the given repositories; writes go through txScope.
func NewInventoryService(
	ingredientRepo inventory.IngredientRepository,
	batchRepo inventory.BatchRepository,
	transactionRepo inventory.StockTransactionRepository,
	txScope TransactionScope,
	config ServiceConfig,
) *InventoryService {
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = valueobject.DefaultCurrency
	}
	if config.ExpiryWindowDays <= 0 {
		config.ExpiryWindowDays = DefaultServiceConfig().ExpiryWindowDays
	}
	if config.MaxConflictRetries < 0 {
		config.MaxConflictRetries = 0
	}
	if config.ExpirySweepLimit <= 0 {
		config.ExpirySweepLimit = DefaultServiceConfig().ExpirySweepLimit
	}
	return &InventoryService{
		ingredientRepo:  ingredientRepo,
		batchRepo:       batchRepo,
		transactionRepo: transactionRepo,
		txScope:         txScope,
		ids:             shared.UUIDv7Generator{},
		clock:           shared.SystemClock{},
		logger:          zap.NewNop(),
		config:          config,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the ledger metrics recorder
func (s *InventoryService) SetMetrics(metrics StockMetrics) {
	s.metrics = metrics
}

// SetIDGenerator replaces the ID generator
func (s *InventoryService) SetIDGenerator(ids shared.IDGenerator) {
	s.ids = ids
}

// SetClock replaces the clock
func (s *InventoryService) SetClock(clock shared.Clock) {
	s.clock = clock
}

// SetLogger sets the logger
func (s *InventoryService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Config returns the service configuration
func (s *InventoryService) Config() ServiceConfig {
	return s.config
}

// withConflictRetry runs op again when it fails with CONCURRENCY_CONFLICT.
// op must reload everything it touches, since a conflicted attempt was rolled back.
func (s *InventoryService) withConflictRetry(ctx context.Context, operation string, op func() error) error {
	var err error
	for attempt := 0; attempt <= s.config.MaxConflictRetries; attempt++ {
		err = op()
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		if s.metrics != nil {
			s.metrics.RecordConcurrencyConflict(ctx, operation)
		}
		s.logger.Info("retrying after concurrent modification",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

// publishEvents publishes events collected during a committed unit of work
func (s *InventoryService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Publish errors are logged by the event bus, not propagated
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish inventory events", zap.Error(err))
	}
}

func (s *InventoryService) recordMovement(ctx context.Context, tx *inventory.StockTransaction) {
	if s.metrics == nil || tx == nil {
		return
	}
	qty, _ := tx.Quantity.Abs().Float64()
	s.metrics.RecordStockMovement(ctx, tx.TenantID, tx.Type, qty)
}

// resolveUnit parses an optional unit, falling back to the ingredient's stock unit
func resolveUnit(raw string, ingredient *inventory.Ingredient) (valueobject.Unit, error) {
	if raw == "" {
		return ingredient.Unit, nil
	}
	return valueobject.ParseUnit(raw)
}

// resolveCurrency parses an optional currency, falling back to the ingredient's currency
func resolveCurrency(raw string, ingredient *inventory.Ingredient) (valueobject.Currency, error) {
	if raw == "" {
		return ingredient.Currency, nil
	}
	return valueobject.ParseCurrency(raw)
}

// takeEvents drains the aggregate's pending events
func takeEvents(ingredient *inventory.Ingredient) []shared.DomainEvent {
	events := ingredient.GetDomainEvents()
	ingredient.ClearDomainEvents()
	return events
}

func (s *InventoryService) now() time.Time {
	return s.clock.Now()
}
