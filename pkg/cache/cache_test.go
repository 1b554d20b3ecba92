package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/store"
)

func TestMemoryClient(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	defer c.Close()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Set(ctx, "expired", []byte("v"), time.Nanosecond))
	time.Sleep(time.Millisecond)
	_, err = c.Get(ctx, "expired")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Close(), "close is idempotent")
}

func TestParamCache(t *testing.T) {
	ctx := context.Background()
	client := NewMemoryClient()
	defer client.Close()

	pc := NewParamCache(client, time.Minute, zap.NewNop())

	_, ok := pc.Get(ctx)
	assert.False(t, ok)

	params := &store.Params{AssetName: []string{"Before Scrub"}, SensorType: []string{"co2", "voc"}}
	pc.Set(ctx, params)

	got, ok := pc.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, params.AssetName, got.AssetName)
	assert.Equal(t, params.SensorType, got.SensorType)

	pc.Invalidate(ctx)
	_, ok = pc.Get(ctx)
	assert.False(t, ok)
}

func TestParamCacheDiscardsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	client := NewMemoryClient()
	defer client.Close()

	require.NoError(t, client.Set(ctx, ParamsKey, []byte("{not json"), 0))

	_, ok := NewParamCache(client, 0, nil).Get(ctx)
	assert.False(t, ok)
}

func TestNilParamCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	var pc *ParamCache

	pc.Set(ctx, &store.Params{})
	pc.Invalidate(ctx)
	_, ok := pc.Get(ctx)
	assert.False(t, ok)

	_, ok = NewParamCache(nil, time.Minute, nil).Get(ctx)
	assert.False(t, ok)
}

func TestNewRedisClientUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisClient(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "sensor_data:params", ParamsKey)
	assert.Equal(t, "a", Key("a"))
}
