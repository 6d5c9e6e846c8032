package config

import (
	"time"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

// GetRetryConfig returns the per-provider retry configuration.
// In test environments delays are shortened so suites stay fast.
func (c Config) GetRetryConfig() domain.RetryConfig {
	rc := domain.RetryConfig{
		MaxRetries:   c.RetryMaxRetries,
		InitialDelay: c.RetryInitialDelay,
		Timeout:      c.ProviderTimeout,
	}
	if c.IsTest() {
		rc.InitialDelay = 10 * time.Millisecond
		if rc.Timeout > 5*time.Second {
			rc.Timeout = 5 * time.Second
		}
	}
	return rc
}
