package event

import (
	"context"
	"fmt"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultChannelPrefix prefixes the per-tenant Redis channels
const DefaultChannelPrefix = "kitchen:inventory:events"

// redisPublisher is the part of the Redis client the forwarder uses
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisForwarder re-publishes committed domain events on a Redis channel per
// tenant, so dashboards and other services can follow stock movements.
type RedisForwarder struct {
	client     redisPublisher
	serializer *EventSerializer
	prefix     string
}

// NewRedisForwarder creates a forwarder publishing on "<prefix>:<tenant id>"
func NewRedisForwarder(client redisPublisher, serializer *EventSerializer, prefix string) *RedisForwarder {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &RedisForwarder{client: client, serializer: serializer, prefix: prefix}
}

// EventTypes returns nil: the forwarder receives every event
func (f *RedisForwarder) EventTypes() []string {
	return nil
}

// Channel returns the channel events of tenantID are published on
func (f *RedisForwarder) Channel(evt shared.DomainEvent) string {
	return fmt.Sprintf("%s:%s", f.prefix, evt.TenantID())
}

// Handle publishes evt
func (f *RedisForwarder) Handle(ctx context.Context, evt shared.DomainEvent) error {
	data, err := f.serializer.Marshal(evt)
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, f.Channel(evt), data).Err(); err != nil {
		return fmt.Errorf("failed to forward %s to redis: %w", evt.EventType(), err)
	}
	return nil
}

var _ shared.EventHandler = (*RedisForwarder)(nil)
