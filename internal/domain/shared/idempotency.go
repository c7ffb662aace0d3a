package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys of requests that were already applied,
// so that a retried stock mutation is not booked twice.
//
// A key moves through two states: claimed (the request is running) and
// completed (its response is stored and can be replayed).
type IdempotencyStore interface {
	// Claim reserves key for ttl. It returns false when the key is already
	// claimed or completed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete stores the response for a claimed key
	Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error

	// Response returns the stored response, or nil while the key is only claimed
	// or unknown
	Response(ctx context.Context, key string) ([]byte, error)

	// Forget removes a key so the request can be retried after a failure
	Forget(ctx context.Context, key string) error

	// Close releases resources
	Close() error
}
