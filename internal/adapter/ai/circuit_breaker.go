package ai

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	// CircuitClosed lets calls through.
	CircuitClosed CircuitState = iota
	// CircuitOpen skips the provider until the recovery timeout passes.
	CircuitOpen
	// CircuitHalfOpen lets a probe call through after recovery.
	CircuitHalfOpen
)

// Breaker defaults.
const (
	DefaultFailureThreshold = 3
	DefaultRecoveryTimeout  = 30 * time.Second
)

// CircuitBreaker counts consecutive terminal failures of one provider.
type CircuitBreaker struct {
	mu               sync.Mutex
	provider         domain.ProviderID
	failureThreshold int
	recoveryTimeout  time.Duration
	state            CircuitState
	failureCount     int
	lastFailureTime  time.Time
	now              func() time.Time
}

// NewCircuitBreaker creates a breaker that opens after 3 consecutive failures
// and probes again after 30 seconds.
func NewCircuitBreaker(provider domain.ProviderID) *CircuitBreaker {
	return &CircuitBreaker{
		provider:         provider,
		failureThreshold: DefaultFailureThreshold,
		recoveryTimeout:  DefaultRecoveryTimeout,
		state:            CircuitClosed,
		now:              time.Now,
	}
}

// ShouldAttempt reports whether a call may go through. An open breaker whose
// recovery timeout has passed moves to half-open.
func (cb *CircuitBreaker) ShouldAttempt() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.recoveryTimeout {
			return false
		}
		cb.state = CircuitHalfOpen
		slog.Info("circuit breaker half-open", slog.String("provider", string(cb.provider)))
		return true
	default:
		return true
	}
}

// RecordSuccess closes the breaker and resets the failure streak.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount = 0
	if cb.state != CircuitClosed {
		cb.state = CircuitClosed
		slog.Info("circuit breaker closed after successful recovery", slog.String("provider", string(cb.provider)))
	}
}

// RecordFailure extends the failure streak and opens the breaker at the
// threshold. A failed half-open probe reopens it immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = cb.now()
	if cb.state == CircuitHalfOpen || cb.failureCount >= cb.failureThreshold {
		if cb.state != CircuitOpen {
			slog.Warn("circuit breaker opened due to consecutive failures",
				slog.String("provider", string(cb.provider)),
				slog.Int("failure_count", cb.failureCount),
				slog.Int("threshold", cb.failureThreshold))
		}
		cb.state = CircuitOpen
	}
}

// GetState returns the current circuit state
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// String returns a string representation of the circuit state
func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerManager holds one breaker per provider.
type CircuitBreakerManager struct {
	mu       sync.Mutex
	breakers map[domain.ProviderID]*CircuitBreaker
	now      func() time.Time
}

// NewCircuitBreakerManager creates an empty manager.
func NewCircuitBreakerManager() *CircuitBreakerManager {
	return &CircuitBreakerManager{breakers: make(map[domain.ProviderID]*CircuitBreaker), now: time.Now}
}

// GetBreaker returns or creates the breaker for provider.
func (cbm *CircuitBreakerManager) GetBreaker(provider domain.ProviderID) *CircuitBreaker {
	cbm.mu.Lock()
	defer cbm.mu.Unlock()
	if b, ok := cbm.breakers[provider]; ok {
		return b
	}
	b := NewCircuitBreaker(provider)
	b.now = cbm.now
	cbm.breakers[provider] = b
	return b
}

// States reports every known breaker's state, keyed by provider.
func (cbm *CircuitBreakerManager) States() map[domain.ProviderID]CircuitState {
	cbm.mu.Lock()
	defer cbm.mu.Unlock()
	out := make(map[domain.ProviderID]CircuitState, len(cbm.breakers))
	for id, b := range cbm.breakers {
		out[id] = b.GetState()
	}
	return out
}

// OpenProviders lists providers whose breaker is currently open.
func (cbm *CircuitBreakerManager) OpenProviders() []domain.ProviderID {
	var open []domain.ProviderID
	for id, st := range cbm.States() {
		if st == CircuitOpen {
			open = append(open, id)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i] < open[j] })
	return open
}
