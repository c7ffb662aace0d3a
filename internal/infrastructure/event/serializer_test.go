package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_RoundTrip(t *testing.T) {
	s := NewInventorySerializer()
	flour := newFlour(t)
	require.NoError(t, flour.ReceiveStock(valueobject.MustNewQuantity(2, valueobject.Kilogram), valueobject.NewMoney(1.25, valueobject.USD), eventTime))
	original := inventory.NewStockLowEvent(flour, eventTime)

	data, err := s.Marshal(original)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, inventory.EventTypeStockLow, env.EventType)
	assert.Equal(t, flour.TenantID, env.TenantID)
	assert.Equal(t, flour.ID, env.AggregateID)

	decoded, err := s.Unmarshal(data)
	require.NoError(t, err)
	low, ok := decoded.(*inventory.StockLowEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), low.EventID())
	assert.Equal(t, "Flour", low.IngredientName)
	assert.True(t, low.CurrentStock.Equal(original.CurrentStock))
	assert.Equal(t, valueobject.Kilogram, low.Unit)
}

func TestEventSerializer_UnknownType(t *testing.T) {
	s := NewEventSerializer()
	assert.False(t, s.IsRegistered(inventory.EventTypeStockLow))

	data, err := NewInventorySerializer().Marshal(inventory.NewStockLowEvent(newFlour(t), eventTime))
	require.NoError(t, err)

	_, err = s.Unmarshal(data)
	assert.ErrorContains(t, err, "unknown event type")

	_, err = s.Unmarshal([]byte("{"))
	assert.Error(t, err)
}

type fakeRedis struct {
	channel string
	message interface{}
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message = message
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisForwarder(t *testing.T) {
	flour := newFlour(t)
	evt := inventory.NewStockLowEvent(flour, eventTime)

	t.Run("publishes the envelope on the tenant channel", func(t *testing.T) {
		client := &fakeRedis{}
		f := NewRedisForwarder(client, NewInventorySerializer(), "")

		require.NoError(t, f.Handle(context.Background(), evt))
		assert.Equal(t, DefaultChannelPrefix+":"+flour.TenantID.String(), client.channel)
		data, ok := client.message.([]byte)
		require.True(t, ok)
		assert.Contains(t, string(data), `"event_type":"StockLow"`)
		assert.Nil(t, f.EventTypes())
	})

	t.Run("redis errors are wrapped", func(t *testing.T) {
		client := &fakeRedis{err: errors.New("connection refused")}
		f := NewRedisForwarder(client, NewInventorySerializer(), "kitchen:test")

		err := f.Handle(context.Background(), evt)
		assert.ErrorContains(t, err, "failed to forward StockLow to redis")
		assert.Equal(t, "kitchen:test:"+flour.TenantID.String(), client.channel)
	})
}
