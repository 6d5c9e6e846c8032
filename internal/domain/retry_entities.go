// Package domain defines failure classification and retry entities for provider calls.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// FailureClass tells the retry policy what to do with a failed provider call.
type FailureClass string

const (
	// FailureTransient covers network errors, 5xx, plain 429 and timeouts. Retryable.
	FailureTransient FailureClass = "transient"
	// FailureQuotaExhausted is a provider quota/billing signal. Triggers fallback, never retry.
	FailureQuotaExhausted FailureClass = "quota_exhausted"
	// FailureMalformed is a 200 OK without the expected fields. Degrades to empty text.
	FailureMalformed FailureClass = "malformed"
	// FailurePermanent covers other client errors (auth, bad request).
	FailurePermanent FailureClass = "permanent"
)

// MaxAttemptsPerProvider caps attempts on a single provider regardless of configuration.
const MaxAttemptsPerProvider = 3

// ProviderError is returned by adapters for every failed call.
type ProviderError struct {
	Provider   ProviderID
	Class      FailureClass
	StatusCode int
	Code       string
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Provider, e.Class)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// Is maps the class onto the sentinel taxonomy so callers can use errors.Is.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrTransient:
		return e.Class == FailureTransient
	case ErrQuotaExhausted:
		return e.Class == FailureQuotaExhausted
	case ErrPermanent:
		return e.Class == FailurePermanent
	}
	return false
}

// ClassifyFailure returns the failure class of err. Typed provider errors win,
// then sentinels, then message patterns. Unknown errors are transient.
func ClassifyFailure(err error) FailureClass {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Class
	}
	switch {
	case errors.Is(err, ErrQuotaExhausted), errors.Is(err, ErrCircuitOpen):
		return FailureQuotaExhausted
	case errors.Is(err, ErrPermanent), errors.Is(err, ErrInvalidArgument):
		return FailurePermanent
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrUpstreamTimeout):
		return FailureTransient
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient_quota"), strings.Contains(msg, "resource_exhausted"):
		return FailureQuotaExhausted
	case strings.Contains(msg, "unauthorized"), strings.Contains(msg, "invalid api key"):
		return FailurePermanent
	}
	return FailureTransient
}

// RetryConfig defines per-provider retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of attempts per provider, clamped to MaxAttemptsPerProvider.
	MaxRetries int
	// InitialDelay is the base of the linear backoff (delay = InitialDelay * attempt).
	InitialDelay time.Duration
	// Timeout bounds a single provider call.
	Timeout time.Duration
}

// DefaultRetryConfig mirrors the observed production values.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Second,
		Timeout:      60 * time.Second,
	}
}

// Attempts returns the effective attempt budget per provider.
func (c RetryConfig) Attempts() int {
	if c.MaxRetries <= 0 {
		return 1
	}
	if c.MaxRetries > MaxAttemptsPerProvider {
		return MaxAttemptsPerProvider
	}
	return c.MaxRetries
}

// AttemptRecord tracks one provider attempt inside a logical request.
type AttemptRecord struct {
	Provider ProviderID
	Try      int
	Class    FailureClass
	Err      string
	At       time.Time
}
