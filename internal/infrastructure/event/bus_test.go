package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var eventTime = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newFlour(t *testing.T) *inventory.Ingredient {
	t.Helper()
	flour, err := inventory.NewIngredient(inventory.NewIngredientParams{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		OutletID:     uuid.New(),
		Name:         "Flour",
		Unit:         valueobject.Kilogram,
		Currency:     valueobject.USD,
		MinimumStock: decimal.NewFromInt(5),
		Now:          eventTime,
	})
	require.NoError(t, err)
	return flour
}

type recordingHandler struct {
	mu      sync.Mutex
	types   []string
	handled []shared.DomainEvent
	err     error
	panics  bool
}

func (h *recordingHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	if h.panics {
		panic("handler bug")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, evt)
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	flour := newFlour(t)

	low := &recordingHandler{types: []string{inventory.EventTypeStockLow}}
	all := &recordingHandler{}
	bus.Subscribe(low)
	bus.Subscribe(all)

	received := inventory.NewStockReceivedEvent(flour, valueobject.MustNewQuantity(2, valueobject.Kilogram), valueobject.NewMoney(1, valueobject.USD), eventTime)
	lowEvt := inventory.NewStockLowEvent(flour, eventTime)

	require.NoError(t, bus.Publish(context.Background(), received, lowEvt))
	assert.Equal(t, 1, low.count())
	assert.Equal(t, 2, all.count())

	bus.Unsubscribe(all)
	require.NoError(t, bus.Publish(context.Background(), received))
	assert.Equal(t, 2, all.count())
}

func TestInMemoryEventBus_FailuresDoNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	flour := newFlour(t)

	failing := &recordingHandler{err: errors.New("smtp down")}
	panicking := &recordingHandler{panics: true}
	healthy := &recordingHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), inventory.NewStockLowEvent(flour, eventTime))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Contains(t, err.Error(), "handler panicked")
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()
	evt := inventory.NewStockLowEvent(newFlour(t), eventTime)

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, evt))

	require.NoError(t, bus.Stop(ctx))
	assert.ErrorIs(t, bus.Publish(ctx, evt), ErrBusStopped)

	require.NoError(t, bus.Start(ctx))
	assert.NoError(t, bus.Publish(ctx, evt))
}

func TestHandlerRegistry(t *testing.T) {
	r := NewHandlerRegistry()
	a := &recordingHandler{}
	b := &recordingHandler{}

	r.Register(a, "StockLow", "StockConsumed")
	r.Register(b)
	assert.Equal(t, 2, r.Len())

	handlers := r.Handlers("StockLow")
	require.Len(t, handlers, 2)
	assert.Same(t, a, handlers[0], "typed handlers come first")
	assert.Len(t, r.Handlers("BatchExpired"), 1)

	r.Unregister(a)
	assert.Equal(t, 1, r.Len())
	assert.Len(t, r.Handlers("StockLow"), 1)
}
