package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionRecord struct {
	ID        string `json:"id"`
	LoginName string `json:"login_name"`
}

func newMemoryProvider(t *testing.T) Provider {
	t.Helper()
	p, err := NewProvider("memory", map[string]interface{}{
		"num_counters": 1000,
		"max_cost":     1 << 20,
		"buffer_items": 64,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	p := newMemoryProvider(t)
	ctx := context.Background()

	require.NoError(t, p.Set(ctx, "session:a", sessionRecord{ID: "u1", LoginName: "took"}, time.Minute))

	var got sessionRecord
	require.NoError(t, p.Get(ctx, "session:a", &got))
	assert.Equal(t, sessionRecord{ID: "u1", LoginName: "took"}, got)

	exists, err := p.Exists(ctx, "session:a")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, p.Delete(ctx, "session:a"))

	err = p.Get(ctx, "session:a", &got)
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_Miss(t *testing.T) {
	p := newMemoryProvider(t)

	var got string
	err := p.Get(context.Background(), "nope", &got)
	assert.True(t, IsCacheMiss(err))
	assert.False(t, IsCacheMiss(nil))
}

func TestMemoryCache_Expiration(t *testing.T) {
	p := newMemoryProvider(t)
	ctx := context.Background()

	require.NoError(t, p.Set(ctx, "short", "v", 50*time.Millisecond))

	assert.Eventually(t, func() bool {
		var v string
		return IsCacheMiss(p.Get(ctx, "short", &v))
	}, 3*time.Second, 20*time.Millisecond)
}

func TestMemoryCache_Health(t *testing.T) {
	p := newMemoryProvider(t)
	assert.NoError(t, p.Health(context.Background()))
	assert.Equal(t, "memory", p.Name())
}

func TestNewProvider_Unsupported(t *testing.T) {
	_, err := NewProvider("memcached", nil)
	assert.EqualError(t, err, "unsupported cache provider type: memcached")
}

func TestNewProvider_RedisUnreachable(t *testing.T) {
	_, err := NewProvider("redis", map[string]interface{}{
		"address": "127.0.0.1:1",
	})
	assert.Error(t, err)
}
