package detector

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentimentWatch/internal/model"
)

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisStore(client, "sentiment:test")
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "EUR/USD")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "EUR/USD", State{Signal: model.SignalBuy, BuyPercentage: 31.25}))
	st, ok, err := store.Get(ctx, "EUR/USD")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.SignalBuy, st.Signal)
	assert.Equal(t, 31.25, st.BuyPercentage)

	assert.True(t, mr.Exists("sentiment:test"))
	keys, err := mr.HKeys("sentiment:test")
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR/USD"}, keys)
}

func TestRedisStore_WithDetector(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	d := New(NewRedisStore(client, "sentiment:last_state"))
	ctx := context.Background()

	ev, err := d.Observe(ctx, rec("USD/CHF", 20))
	require.NoError(t, err)
	assert.Nil(t, ev)

	ev, err = d.Observe(ctx, rec("USD/CHF", 80))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, model.ImportanceCritical, ev.Importance)
}

func TestRedisStore_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, _, err = NewRedisStore(client, "k").Get(context.Background(), "EUR/USD")
	assert.Error(t, err)
}
