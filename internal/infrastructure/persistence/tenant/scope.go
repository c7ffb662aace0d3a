// Package tenant scopes GORM queries to one restaurant account.
//
// Every ledger table carries a tenant_id column. Repositories chain Scope onto
// queries that serve a single tenant:
//
//	db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Find(&rows)
//
// Cross-tenant reads, such as the expiry sweep, simply leave it out.
package tenant

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is the tenant key shared by all ledger tables
const Column = "tenant_id"

// Scope restricts a query to rows of tenantID. A nil tenant matches nothing.
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			return db.Where("1 = 0")
		}
		return db.Where(Column+" = ?", tenantID)
	}
}
