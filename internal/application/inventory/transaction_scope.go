package inventory

import (
	"context"

	"github.com/kitchenops/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to inventory repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all inventory repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	// IngredientRepo returns the ingredient repository scoped to the current transaction
	IngredientRepo() inventory.IngredientRepository
	// BatchRepo returns the batch repository scoped to the current transaction
	BatchRepo() inventory.BatchRepository
	// TransactionRepo returns the append-only ledger repository scoped to the current transaction
	TransactionRepo() inventory.StockTransactionRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	ingredientRepo  inventory.IngredientRepository
	batchRepo       inventory.BatchRepository
	transactionRepo inventory.StockTransactionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	ingredientRepo inventory.IngredientRepository,
	batchRepo inventory.BatchRepository,
	transactionRepo inventory.StockTransactionRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		ingredientRepo:  ingredientRepo,
		batchRepo:       batchRepo,
		transactionRepo: transactionRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// IngredientRepo returns the ingredient repository.
func (s *NoOpTransactionScope) IngredientRepo() inventory.IngredientRepository {
	return s.ingredientRepo
}

// BatchRepo returns the batch repository.
func (s *NoOpTransactionScope) BatchRepo() inventory.BatchRepository {
	return s.batchRepo
}

// TransactionRepo returns the ledger repository.
func (s *NoOpTransactionScope) TransactionRepo() inventory.StockTransactionRepository {
	return s.transactionRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
