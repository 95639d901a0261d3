package repository

import (
	"context"
	"testing"
	"time"

	"guesthouse/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimiter(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer Close(client)

	limiter := NewRedisRateLimiter(client, "gh")
	ctx := context.Background()
	userID := int64(42)

	allowed, err := limiter.CheckRateLimit(ctx, userID, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.CheckRateLimit(ctx, userID, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.CheckRateLimit(ctx, userID, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	assert.True(t, s.Exists("gh:rate_limit:42"))

	s.FastForward(2 * time.Minute)
	allowed, err = limiter.CheckRateLimit(ctx, userID, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	t.Run("NilClient", func(t *testing.T) {
		_, err := NewRedisRateLimiter(nil, "gh").CheckRateLimit(ctx, 1, 1, time.Minute)
		assert.Error(t, err)
	})
}

func TestMemoryRateLimiter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryRateLimiter()
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.CheckRateLimit(ctx, 7, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, _ := limiter.CheckRateLimit(ctx, 7, 3, time.Minute)
	assert.False(t, allowed)

	other, _ := limiter.CheckRateLimit(ctx, 8, 3, time.Minute)
	assert.True(t, other)

	now = now.Add(61 * time.Second)
	allowed, _ = limiter.CheckRateLimit(ctx, 7, 3, time.Minute)
	assert.True(t, allowed)
}
