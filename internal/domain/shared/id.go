package shared

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces identifiers for new entities.
// Services receive one at construction instead of calling uuid functions directly.
type IDGenerator interface {
	NewID() uuid.UUID
}

// UUIDv7Generator generates time-ordered UUIDs.
type UUIDv7Generator struct{}

// NewID returns a UUIDv7, falling back to a random UUID if the clock source fails
func (UUIDv7Generator) NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// SequenceIDGenerator hands out deterministic, increasing UUIDs.
// Useful in tests where batch ordering by ID must be predictable.
type SequenceIDGenerator struct {
	mu   sync.Mutex
	next uint64
}

// NewSequenceIDGenerator creates a generator whose first ID encodes start
func NewSequenceIDGenerator(start uint64) *SequenceIDGenerator {
	return &SequenceIDGenerator{next: start}
}

// NewID returns the next UUID in sequence
func (g *SequenceIDGenerator) NewID() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	var id uuid.UUID
	n := g.next
	for i := 15; i >= 8 && n > 0; i-- {
		id[i] = byte(n)
		n >>= 8
	}
	g.next++
	return id
}
