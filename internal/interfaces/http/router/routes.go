package router

import (
	"github.com/kitchenops/backend/internal/infrastructure/auth"
	"github.com/kitchenops/backend/internal/interfaces/http/handler"
	"github.com/kitchenops/backend/internal/interfaces/http/middleware"
)

// IngredientRoutes maps ingredient, batch, ledger and stock movement endpoints
func IngredientRoutes(h *handler.InventoryHandler) *DomainGroup {
	g := NewDomainGroup("ingredients", "/ingredients")
	g.POST("", h.CreateIngredient).
		GET("", h.ListIngredients).
		GET("/below-minimum", h.ListBelowMinimum).
		GET("/:id", h.GetIngredient).
		PUT("/:id", h.UpdateIngredient).
		GET("/:id/batches", h.ListBatches).
		POST("/:id/batches", h.AddBatch).
		GET("/:id/transactions", h.ListTransactions).
		POST("/:id/consume", h.Consume).
		POST("/:id/adjust", h.AdjustStock).
		POST("/:id/movements", h.ProcessMovement).
		POST("/:id/audit", h.PerformAudit)
	return g
}

// ExpiryRoutes maps the expiry report and the manual sweep.
// Sweeping crosses tenants, so it needs the inventory admin role.
func ExpiryRoutes(h *handler.InventoryHandler) *DomainGroup {
	g := NewDomainGroup("expiry", "/expiry")
	g.GET("", h.CheckExpiry).
		POST("/sweep", middleware.RequireRole(auth.RoleInventoryAdmin), h.SweepExpired)
	return g
}

// SystemRoutes maps authenticated system endpoints
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", h.GetSystemInfo)
	return g
}
