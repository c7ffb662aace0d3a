package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
)

// Envelope is the wire form of a domain event
type Envelope struct {
	EventID     uuid.UUID       `json:"event_id"`
	EventType   string          `json:"event_type"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// EventSerializer converts domain events to and from JSON envelopes
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates a serializer with no registered types
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{registry: make(map[string]reflect.Type)}
}

// NewInventorySerializer creates a serializer that knows the inventory events
func NewInventorySerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(inventory.EventTypeStockReceived, &inventory.StockReceivedEvent{})
	s.Register(inventory.EventTypeStockConsumed, &inventory.StockConsumedEvent{})
	s.Register(inventory.EventTypeStockLow, &inventory.StockLowEvent{})
	s.Register(inventory.EventTypeBatchExpired, &inventory.BatchExpiredEvent{})
	return s
}

// Register maps eventType to the concrete type of sample
func (s *EventSerializer) Register(eventType string, sample shared.DomainEvent) {
	t := reflect.TypeOf(sample)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.mu.Lock()
	s.registry[eventType] = t
	s.mu.Unlock()
}

// IsRegistered reports whether eventType can be decoded
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}

// Marshal wraps evt in an Envelope and encodes it
func (s *EventSerializer) Marshal(evt shared.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", evt.EventType(), err)
	}
	return json.Marshal(Envelope{
		EventID:     evt.EventID(),
		EventType:   evt.EventType(),
		TenantID:    evt.TenantID(),
		AggregateID: evt.AggregateID(),
		OccurredAt:  evt.OccurredAt(),
		Payload:     payload,
	})
}

// Unmarshal decodes an Envelope back into its registered event type
func (s *EventSerializer) Unmarshal(data []byte) (shared.DomainEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	s.mu.RLock()
	t, ok := s.registry[env.EventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", env.EventType)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(env.Payload, ptr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s payload: %w", env.EventType, err)
	}
	evt, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("%s does not implement DomainEvent", t)
	}
	return evt, nil
}
