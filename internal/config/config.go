// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev" validate:"oneof=dev test prod"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1" validate:"required,url"`
	ChatMaxTokens int    `env:"CHAT_MAX_TOKENS" envDefault:"250" validate:"gt=0"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiAPIURL  string `env:"GEMINI_API_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent" validate:"required,url"`
	GroqAPIKey    string `env:"GROQ_API_KEY"`
	GroqBaseURL   string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel     string `env:"GROQ_MODEL" envDefault:"llama-3.1-8b-instant"`

	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"60s"`
	// ProviderMinInterval spaces consecutive calls to one provider; 0 disables throttling.
	ProviderMinInterval time.Duration `env:"PROVIDER_MIN_INTERVAL" envDefault:"0s"`
	ProviderRatePerMin  int           `env:"PROVIDER_RATE_PER_MIN" envDefault:"60" validate:"gte=0"`

	// Retry Configuration
	RetryMaxRetries   int           `env:"RETRY_MAX_RETRIES" envDefault:"3" validate:"gte=0"`
	RetryInitialDelay time.Duration `env:"RETRY_INITIAL_DELAY" envDefault:"1s"`
	// FallbackChain has the form "gpt-4o:gemini;gpt-4:gemini,groq".
	FallbackChain string `env:"FALLBACK_CHAIN"`

	// Worker pool configuration. Zero means derive from the CPU count.
	PoolMinWorkers    int `env:"POOL_MIN_WORKERS" envDefault:"0" validate:"gte=0"`
	PoolMaxWorkers    int `env:"POOL_MAX_WORKERS" envDefault:"0" validate:"gte=0"`
	PoolQueueCapacity int `env:"POOL_QUEUE_CAPACITY" envDefault:"500" validate:"gt=0"`

	SentimentInterpreter string        `env:"SENTIMENT_INTERPRETER" envDefault:"/app/venv/bin/python"`
	SentimentScript      string        `env:"SENTIMENT_SCRIPT" envDefault:"/app/python/sentiment_analysis.py"`
	SentimentTimeout     time.Duration `env:"SENTIMENT_TIMEOUT" envDefault:"30s"`

	EvalProfile           string   `env:"EVAL_PROFILE"`
	EvalAllowedCategories []string `env:"EVAL_ALLOWED_CATEGORIES" envSeparator:","`

	RedisURL string `env:"REDIS_URL"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"ai-ethics-evaluator"`
	MetricsAddr     string `env:"METRICS_ADDR" envDefault:":9090"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w: %v", domain.ErrInvalidArgument, err)
	}
	if _, err := cfg.FallbackChains(); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// PoolSize returns the effective min and max worker counts.
func (c Config) PoolSize() (minWorkers, maxWorkers int) {
	minWorkers = c.PoolMinWorkers
	if minWorkers <= 0 {
		minWorkers = runtime.NumCPU()
	}
	maxWorkers = c.PoolMaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 2 * runtime.NumCPU()
	}
	if maxWorkers < minWorkers {
		maxWorkers = minWorkers
	}
	return minWorkers, maxWorkers
}

// FallbackChains parses FALLBACK_CHAIN. When unset every chat provider falls
// back to gemini.
func (c Config) FallbackChains() (map[domain.ProviderID][]domain.ProviderID, error) {
	if strings.TrimSpace(c.FallbackChain) == "" {
		return DefaultFallbackChains(), nil
	}
	return ParseFallbackChains(c.FallbackChain)
}

// DefaultFallbackChains returns the chain used when none is configured.
func DefaultFallbackChains() map[domain.ProviderID][]domain.ProviderID {
	return map[domain.ProviderID][]domain.ProviderID{
		domain.ProviderGPT35: {domain.ProviderGemini},
		domain.ProviderGPT4:  {domain.ProviderGemini},
		domain.ProviderGPT4o: {domain.ProviderGemini},
		domain.ProviderGroq:  {domain.ProviderGemini},
	}
}

// ParseFallbackChains parses "a:b,c;d:e" into a chain map.
func ParseFallbackChains(s string) (map[domain.ProviderID][]domain.ProviderID, error) {
	out := map[domain.ProviderID][]domain.ProviderID{}
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		from, to, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("%w: fallback entry %q", domain.ErrInvalidArgument, entry)
		}
		src, err := domain.ParseProviderID(from)
		if err != nil {
			return nil, err
		}
		for _, t := range strings.Split(to, ",") {
			if strings.TrimSpace(t) == "" {
				continue
			}
			dst, err := domain.ParseProviderID(t)
			if err != nil {
				return nil, err
			}
			out[src] = append(out[src], dst)
		}
	}
	return out, nil
}
