package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// IngredientSortFields contains allowed sort fields for ingredients
var IngredientSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"name":          true,
	"category":      true,
	"sku":           true,
	"current_stock": true,
	"minimum_stock": true,
}

// BatchSortFields contains allowed sort fields for ingredient batches
var BatchSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"lot_number":         true,
	"received_date":      true,
	"expiry_date":        true,
	"remaining_quantity": true,
	"status":             true,
}

// StockTransactionSortFields contains allowed sort fields for ledger entries
var StockTransactionSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"date":       true,
	"type":       true,
	"quantity":   true,
}
