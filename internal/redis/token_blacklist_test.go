package redis

import (
	"context"
	"testing"
	"time"

	"socialchat/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlacklist(t *testing.T) (*miniredis.Miniredis, *redisTokenBlacklist) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, &redisTokenBlacklist{client: client}
}

func TestBlacklistAddAndExpire(t *testing.T) {
	ctx := context.Background()
	mr, bl := newTestBlacklist(t)

	ok, err := bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, bl.Add(ctx, "jti-1", time.Now().Add(time.Minute)))
	ok, err = bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("bl:jti:jti-1"))

	mr.FastForward(2 * time.Minute)
	ok, err = bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlacklistSkipsExpiredToken(t *testing.T) {
	ctx := context.Background()
	mr, bl := newTestBlacklist(t)

	require.NoError(t, bl.Add(ctx, "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("bl:jti:old"))
}

func TestBlacklistStoreDown(t *testing.T) {
	ctx := context.Background()
	mr, bl := newTestBlacklist(t)
	mr.Close()

	_, err := bl.IsBlacklisted(ctx, "jti-1")
	assert.Error(t, err)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	addr := mr.Addr()
	client, err := NewClient(ctx, configFor(addr))
	require.NoError(t, err)
	_ = client.Close()

	// 关闭后不能再调用 mr.Addr()
	mr.Close()
	_, err = NewClient(ctx, configFor(addr))
	assert.Error(t, err)
}

func configFor(addr string) config.RedisConfig {
	return config.RedisConfig{Enabled: true, Addr: addr}
}
