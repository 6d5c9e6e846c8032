// Package usecase contains the answer-generation and evaluation services.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/ai"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/dispatch"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/normalize"
	obsctx "github.com/fairyhunter13/ai-ethics-evaluator/internal/observability"
)

// ProviderLookup resolves a provider id to its adapter.
type ProviderLookup interface {
	Get(id domain.ProviderID) (domain.ProviderAdapter, error)
}

// AnswerService applies the retry and fallback policy around provider calls.
type AnswerService struct {
	Providers ProviderLookup
	Chains    map[domain.ProviderID][]domain.ProviderID
	Retry     domain.RetryConfig
	// Breakers is optional; nil disables circuit breaking.
	Breakers *ai.CircuitBreakerManager
}

// NewAnswerService constructs an AnswerService.
func NewAnswerService(p ProviderLookup, chains map[domain.ProviderID][]domain.ProviderID, retry domain.RetryConfig, breakers *ai.CircuitBreakerManager) *AnswerService {
	return &AnswerService{Providers: p, Chains: chains, Retry: retry, Breakers: breakers}
}

// linearBackOff waits base, 2*base, 3*base, ...
type linearBackOff struct {
	base time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return b.base * time.Duration(b.n)
}

func (b *linearBackOff) Reset() { b.n = 0 }

// route returns requested followed by its fallback chain, depth first, with
// every provider appearing once.
func (s *AnswerService) route(requested domain.ProviderID) []domain.ProviderID {
	seen := map[domain.ProviderID]bool{}
	var out []domain.ProviderID
	var walk func(id domain.ProviderID)
	walk = func(id domain.ProviderID) {
		if seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
		for _, next := range s.Chains[id] {
			walk(next)
		}
	}
	walk(requested)
	return out
}

// Answer asks provider the question. Transient failures are retried on the
// same provider with linear backoff; quota exhaustion, permanent failures and
// open circuits move to the next provider in the fallback chain. A blank
// question returns an empty answer without calling anything. The only
// failure reported is domain.ErrRetriesExhausted in the result.
func (s *AnswerService) Answer(ctx context.Context, provider domain.ProviderID, question string) domain.AnswerResult {
	res := domain.AnswerResult{Requested: provider, Provider: provider}
	if strings.TrimSpace(question) == "" {
		return res
	}

	ctx, span := observability.Tracer().Start(ctx, "AnswerService.Answer")
	defer span.End()
	span.SetAttributes(attribute.String("provider.requested", string(provider)))
	lg := obsctx.LoggerFromContext(ctx).With(slog.String("requested", string(provider)))

	var lastErr error
	prev := provider
	for i, id := range s.route(provider) {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		if i > 0 {
			observability.RecordFallback(string(prev), string(id))
			lg.Info("falling back to next provider",
				slog.String("from", string(prev)),
				slog.String("to", string(id)),
				slog.Any("cause", lastErr))
		}
		prev = id

		adapter, err := s.Providers.Get(id)
		if err != nil {
			lg.Warn("provider not registered", slog.String("provider", string(id)))
			lastErr = err
			continue
		}
		breaker := s.breaker(id)
		if breaker != nil && !breaker.ShouldAttempt() {
			observability.RecordProviderFailure(string(id), string(domain.FailureQuotaExhausted))
			lg.Warn("circuit open; skipping provider", slog.String("provider", string(id)))
			lastErr = fmt.Errorf("%w: %s", domain.ErrCircuitOpen, id)
			continue
		}

		text, attempts, err := s.attempt(ctx, adapter, question)
		res.Attempts += attempts
		if err == nil {
			if breaker != nil {
				breaker.RecordSuccess()
			}
			res.Provider = id
			res.Text = text
			res.FellBack = i > 0
			span.SetAttributes(
				attribute.String("provider.used", string(id)),
				attribute.Int("attempts", res.Attempts),
				attribute.Bool("fell_back", res.FellBack))
			return res
		}
		if breaker != nil {
			breaker.RecordFailure()
		}
		lastErr = err
		if domain.ClassifyFailure(err) == domain.FailureTransient {
			break
		}
	}

	res.Err = fmt.Errorf("op=usecase.Answer: %w: %v", domain.ErrRetriesExhausted, lastErr)
	span.RecordError(res.Err)
	span.SetStatus(codes.Error, "retries and fallbacks exhausted")
	lg.Error("answer failed", slog.Int("attempts", res.Attempts), slog.Any("error", lastErr))
	return res
}

func (s *AnswerService) breaker(id domain.ProviderID) *ai.CircuitBreaker {
	if s.Breakers == nil {
		return nil
	}
	return s.Breakers.GetBreaker(id)
}

// attempt runs up to Retry.Attempts() calls on one provider. Only transient
// failures are retried.
func (s *AnswerService) attempt(ctx context.Context, adapter domain.ProviderAdapter, question string) (string, int, error) {
	call := domain.ProviderCall{
		Provider:   adapter.ID(),
		Question:   question,
		Timeout:    s.Retry.Timeout,
		MaxRetries: s.Retry.Attempts(),
	}
	id := call.Provider
	lg := obsctx.LoggerFromContext(ctx).With(slog.String("provider", string(id)))

	var (
		text    string
		tries   int
		lastErr error
	)
	op := func() error {
		tries++
		callCtx := ctx
		if call.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, call.Timeout)
			defer cancel()
		}
		callCtx, span := observability.Tracer().Start(callCtx, "provider.attempt")
		defer span.End()
		span.SetAttributes(attribute.String("provider", string(id)), attribute.Int("try", tries))

		raw, err := adapter.Call(callCtx, call.Question)
		if err == nil {
			text = raw.Text
			return nil
		}
		lastErr = err
		class := domain.ClassifyFailure(err)
		observability.RecordProviderFailure(string(id), string(class))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(class))
		lg.Warn("provider attempt failed",
			slog.Int("try", tries),
			slog.Int("max_attempts", call.MaxRetries),
			slog.String("class", string(class)),
			slog.Any("error", err))
		if class != domain.FailureTransient {
			return backoff.Permanent(err)
		}
		return err
	}

	var b backoff.BackOff = &linearBackOff{base: s.Retry.InitialDelay}
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(call.MaxRetries-1)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		switch {
		case lastErr == nil:
			lastErr = err
		case ctx.Err() != nil:
			lastErr = fmt.Errorf("%w (last failure: %v)", ctx.Err(), lastErr)
		}
		return "", tries, lastErr
	}
	return text, tries, nil
}

// AnswerVerdicts answers question and normalizes the reply into verdicts,
// falling back to one YES per numbered question line when the reply yields
// none. Verdicts are nil when the answer failed.
func (s *AnswerService) AnswerVerdicts(ctx context.Context, provider domain.ProviderID, question string) (domain.NormalizedAnswer, domain.AnswerResult) {
	res := s.Answer(ctx, provider, question)
	if !res.OK() {
		return nil, res
	}
	return normalize.Normalize(res.Text, question), res
}

// AnswerAsync schedules Answer on the pool.
func (s *AnswerService) AnswerAsync(ctx context.Context, pool *dispatch.Pool, provider domain.ProviderID, question string) (*dispatch.Future[domain.AnswerResult], error) {
	return dispatch.Submit(ctx, pool, "answer", func(ctx context.Context) (domain.AnswerResult, error) {
		res := s.Answer(ctx, provider, question)
		return res, res.Err
	})
}
