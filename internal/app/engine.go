// Package app wires configuration into a ready-to-use evaluation engine and
// builds the ops HTTP router.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/ai"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/ai/chat"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/ai/gemini"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/sentiment"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/config"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/dispatch"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/service/ratelimiter"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/usecase"
)

// Engine holds every long-lived component of one engine process.
type Engine struct {
	Cfg      config.Config
	Profile  config.Profile
	Registry *ai.Registry
	Breakers *ai.CircuitBreakerManager
	// Limiter is nil when REDIS_URL is unset.
	Limiter  *ratelimiter.RedisLuaLimiter
	Pool     *dispatch.Pool
	Bridge   *sentiment.Bridge
	Answers  *usecase.AnswerService
	Evaluate *usecase.EvaluateService
}

// NewEngine builds the engine from cfg. Call Close when done.
func NewEngine(cfg config.Config) (*Engine, error) {
	profile, allowed, chains, err := cfg.ResolveProfile()
	if err != nil {
		return nil, fmt.Errorf("op=app.NewEngine: %w", err)
	}

	var limiter *ratelimiter.RedisLuaLimiter
	if cfg.RedisURL != "" {
		keys := make([]string, 0, 5)
		for _, id := range []domain.ProviderID{domain.ProviderGPT35, domain.ProviderGPT4, domain.ProviderGPT4o, domain.ProviderGemini, domain.ProviderGroq} {
			keys = append(keys, ai.BucketKey(id))
		}
		limiter, err = ratelimiter.NewFromURL(cfg.RedisURL, cfg.ProviderRatePerMin, keys...)
		if err != nil {
			return nil, fmt.Errorf("op=app.NewEngine: %w", err)
		}
	}

	reg, err := ai.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("op=app.NewEngine: %w", err)
	}
	for _, a := range BuildProviders(cfg, profile.Prompts, ai.NewHTTPClient(cfg.ProviderTimeout), tokencount.NewCounter()) {
		if err := reg.Register(ai.Throttle(a, cfg.ProviderMinInterval, limiter)); err != nil {
			return nil, fmt.Errorf("op=app.NewEngine: %w", err)
		}
	}
	if len(reg.IDs()) == 0 {
		slog.Warn("no provider API keys configured; every answer will fail")
	}

	minW, maxW := cfg.PoolSize()
	pool := dispatch.NewPool(dispatch.Options{
		MinWorkers:    minW,
		MaxWorkers:    maxW,
		QueueCapacity: cfg.PoolQueueCapacity,
	})
	bridge := sentiment.New(sentiment.Options{
		Interpreter: cfg.SentimentInterpreter,
		Script:      cfg.SentimentScript,
		Timeout:     cfg.SentimentTimeout,
		MaxProcs:    maxW,
	})

	breakers := ai.NewCircuitBreakerManager()
	answers := usecase.NewAnswerService(reg, chains, cfg.GetRetryConfig(), breakers)
	eval := usecase.NewEvaluateService(answers, bridge, pool, allowed)

	slog.Info("engine ready",
		slog.Any("providers", reg.IDs()),
		slog.Int("min_workers", minW),
		slog.Int("max_workers", maxW),
		slog.Bool("shared_rate_limit", limiter != nil),
		slog.Any("allowed_categories", allowed))

	return &Engine{
		Cfg:      cfg,
		Profile:  profile,
		Registry: reg,
		Breakers: breakers,
		Limiter:  limiter,
		Pool:     pool,
		Bridge:   bridge,
		Answers:  answers,
		Evaluate: eval,
	}, nil
}

// BuildProviders returns one adapter per provider whose API key is set.
func BuildProviders(cfg config.Config, prompts config.Prompts, hc *http.Client, tokens *tokencount.Counter) []domain.ProviderAdapter {
	var out []domain.ProviderAdapter
	if cfg.OpenAIAPIKey != "" {
		for _, id := range []domain.ProviderID{domain.ProviderGPT35, domain.ProviderGPT4, domain.ProviderGPT4o} {
			out = append(out, chat.New(chat.Options{
				ID:         id,
				APIKey:     cfg.OpenAIAPIKey,
				BaseURL:    cfg.OpenAIBaseURL,
				MaxTokens:  cfg.ChatMaxTokens,
				HTTPClient: hc,
				Prompts:    prompts,
				Tokens:     tokens,
			}))
		}
	}
	if cfg.GroqAPIKey != "" {
		out = append(out, chat.New(chat.Options{
			ID:         domain.ProviderGroq,
			Model:      cfg.GroqModel,
			APIKey:     cfg.GroqAPIKey,
			BaseURL:    cfg.GroqBaseURL,
			MaxTokens:  cfg.ChatMaxTokens,
			HTTPClient: hc,
			Prompts:    prompts,
			Tokens:     tokens,
		}))
	}
	if cfg.GeminiAPIKey != "" {
		out = append(out, gemini.New(gemini.Options{
			APIKey:     cfg.GeminiAPIKey,
			URL:        cfg.GeminiAPIURL,
			MaxTokens:  cfg.ChatMaxTokens,
			HTTPClient: hc,
			Prompts:    prompts,
			Tokens:     tokens,
		}))
	}
	return out
}

// Close drains the pool and releases the limiter connection.
func (e *Engine) Close() {
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.Limiter != nil {
		if err := e.Limiter.Close(); err != nil {
			slog.Warn("closing rate limiter", slog.Any("error", err))
		}
	}
}
