// Package main provides the engine CLI: single answers, sentiment scoring and
// batch evaluation against the configured AI providers.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; real deployments use the process environment.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
