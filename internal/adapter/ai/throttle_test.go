package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/service/ratelimiter"
)

func TestThrottle_DisabledReturnsInner(t *testing.T) {
	inner := &fakeAdapter{id: domain.ProviderGemini}
	assert.Same(t, domain.ProviderAdapter(inner), Throttle(inner, 0, nil))

	var nilLimiter *ratelimiter.RedisLuaLimiter
	assert.Same(t, domain.ProviderAdapter(inner), Throttle(inner, 0, nilLimiter))
}

func TestThrottle_LocalSpacing(t *testing.T) {
	inner := &fakeAdapter{id: domain.ProviderGemini, text: "Yes"}
	a := Throttle(inner, 40*time.Millisecond, nil)
	assert.Equal(t, domain.ProviderGemini, a.ID())

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := a.Call(context.Background(), "q")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
	assert.Equal(t, 3, inner.calls)
}

func TestThrottle_SharedBucketWaitAbortsOnContext(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	lim := ratelimiter.NewRedisLuaLimiter(rdb, map[string]ratelimiter.BucketConfig{
		BucketKey(domain.ProviderGPT4o): {Capacity: 1, RefillRate: 0.01},
	})

	inner := &fakeAdapter{id: domain.ProviderGPT4o, text: "No"}
	a := Throttle(inner, 0, lim)

	got, err := a.Call(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "No", got.Text)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = a.Call(ctx, "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, inner.calls)
}

func TestThrottle_SharedLimiterDownFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	lim := ratelimiter.NewRedisLuaLimiter(rdb, map[string]ratelimiter.BucketConfig{
		BucketKey(domain.ProviderGemini): ratelimiter.NewBucketConfigFromPerMinute(60),
	})
	mr.Close()

	inner := &fakeAdapter{id: domain.ProviderGemini, text: "Yes"}
	_, err := Throttle(inner, 0, lim).Call(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}
