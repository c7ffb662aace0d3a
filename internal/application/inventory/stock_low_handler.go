package inventory

import (
	"context"
	"fmt"

	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StockAlert represents a low stock alert for one ingredient
type StockAlert struct {
	TenantID       string `json:"tenant_id"`
	OutletID       string `json:"outlet_id"`
	IngredientID   string `json:"ingredient_id"`
	IngredientName string `json:"ingredient_name"`
	CurrentStock   string `json:"current_stock"`
	MinimumStock   string `json:"minimum_stock"`
	Unit           string `json:"unit"`
	AlertType      string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// StockAlertNotifier is the interface for sending stock alerts
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockLowHandler turns StockLow events into alerts
type StockLowHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// NewStockLowHandler creates a new handler for StockLow events
func NewStockLowHandler(logger *zap.Logger) *StockLowHandler {
	return &StockLowHandler{logger: logger}
}

// WithNotifier sets the notifier for sending alerts
func (h *StockLowHandler) WithNotifier(notifier StockAlertNotifier) *StockLowHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *StockLowHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockLow}
}

// Handle processes a StockLowEvent
func (h *StockLowHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	lowEvent, ok := event.(*inventory.StockLowEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockLow, event.EventType())
	}

	alertType := "low_stock"
	if lowEvent.CurrentStock.IsZero() {
		alertType = "out_of_stock"
	}

	alert := StockAlert{
		TenantID:       event.TenantID().String(),
		OutletID:       lowEvent.OutletID.String(),
		IngredientID:   lowEvent.IngredientID.String(),
		IngredientName: lowEvent.IngredientName,
		CurrentStock:   lowEvent.CurrentStock.String(),
		MinimumStock:   lowEvent.MinimumStock.String(),
		Unit:           lowEvent.Unit.String(),
		AlertType:      alertType,
	}

	h.logger.Warn("ingredient below minimum stock",
		zap.String("tenant_id", alert.TenantID),
		zap.String("ingredient_id", alert.IngredientID),
		zap.String("ingredient", alert.IngredientName),
		zap.String("current_stock", alert.CurrentStock),
		zap.String("minimum_stock", alert.MinimumStock),
		zap.String("alert_type", alertType),
	)

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			// Notification failure shouldn't fail event handling
			h.logger.Error("failed to send stock alert",
				zap.String("ingredient_id", alert.IngredientID),
				zap.Error(err),
			)
		}
	}
	return nil
}

var _ shared.EventHandler = (*StockLowHandler)(nil)

// LoggingStockAlertNotifier is a notifier that only logs alerts
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{logger: logger}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("outlet_id", alert.OutletID),
		zap.String("ingredient", alert.IngredientName),
		zap.String("current", alert.CurrentStock+" "+alert.Unit),
		zap.String("minimum", alert.MinimumStock+" "+alert.Unit),
	)
	return nil
}

var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
