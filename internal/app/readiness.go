package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	httpserver "github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/config"
)

// Pinger is the minimal interface for a backend capable of Ping.
type Pinger interface{ Ping(ctx context.Context) error }

// BuildReadinessChecks returns the ops readiness probes: the sentiment
// interpreter and script must exist, and the shared limiter must answer when
// one is configured.
func BuildReadinessChecks(cfg config.Config, limiter Pinger) []httpserver.Check {
	checks := []httpserver.Check{{
		Name: "sentiment",
		Run: func(context.Context) error {
			if _, err := exec.LookPath(cfg.SentimentInterpreter); err != nil {
				return fmt.Errorf("interpreter: %w", err)
			}
			if _, err := os.Stat(cfg.SentimentScript); err != nil {
				return fmt.Errorf("script: %w", err)
			}
			return nil
		},
	}}
	if limiter != nil {
		checks = append(checks, httpserver.Check{Name: "redis", Run: limiter.Ping})
	}
	return checks
}
