package ai

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/service/ratelimiter"
)

// BucketKey is the shared limiter key for a provider.
func BucketKey(id domain.ProviderID) string { return "provider:" + string(id) }

// throttled spaces calls to one provider locally and, when a shared limiter
// is configured, across every process using the same Redis.
type throttled struct {
	inner  domain.ProviderAdapter
	local  *rate.Limiter
	shared ratelimiter.Limiter
}

// Throttle wraps inner. minInterval <= 0 disables local spacing; a nil shared
// limiter disables the distributed bucket. With both disabled inner is
// returned unchanged.
func Throttle(inner domain.ProviderAdapter, minInterval time.Duration, shared ratelimiter.Limiter) domain.ProviderAdapter {
	var local *rate.Limiter
	if minInterval > 0 {
		local = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	if isNilLimiter(shared) {
		shared = nil
	}
	if local == nil && shared == nil {
		return inner
	}
	return &throttled{inner: inner, local: local, shared: shared}
}

func isNilLimiter(l ratelimiter.Limiter) bool {
	if l == nil {
		return true
	}
	rl, ok := l.(*ratelimiter.RedisLuaLimiter)
	return ok && rl == nil
}

func (t *throttled) ID() domain.ProviderID { return t.inner.ID() }

func (t *throttled) Call(ctx context.Context, question string) (domain.RawAnswer, error) {
	if err := t.wait(ctx); err != nil {
		return domain.RawAnswer{}, &domain.ProviderError{
			Provider: t.inner.ID(),
			Class:    domain.FailureTransient,
			Message:  "throttle wait aborted",
			Cause:    err,
		}
	}
	return t.inner.Call(ctx, question)
}

func (t *throttled) wait(ctx context.Context) error {
	if t.local != nil {
		if err := t.local.Wait(ctx); err != nil {
			return err
		}
	}
	if t.shared == nil {
		return nil
	}
	key := BucketKey(t.inner.ID())
	for {
		allowed, retryAfter, err := t.shared.Allow(ctx, key, 1)
		if err != nil {
			slog.Warn("shared rate limiter unavailable; continuing", slog.String("provider", string(t.inner.ID())), slog.Any("error", err))
			return nil
		}
		if allowed {
			return nil
		}
		if retryAfter <= 0 {
			retryAfter = 100 * time.Millisecond
		}
		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
