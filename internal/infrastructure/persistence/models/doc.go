// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Quantities are stored as plain decimals next to a unit column, money as integer cents
// next to a currency column. ToDomain rebuilds the value objects and rejects rows that
// would violate their invariants.
//
// Structure:
//   - base.go: Base persistence models (BaseModel, AggregateModel, TenantAggregateModel)
//   - ingredient.go: Ingredient aggregate root
//   - batch.go: Ingredient batches (lots)
//   - stock_transaction.go: Append-only stock ledger
package models
