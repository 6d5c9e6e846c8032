package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker() (*CircuitBreaker, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	cb := NewCircuitBreaker(domain.ProviderGPT4o)
	cb.now = clk.Now
	return cb, clk
}

func TestCircuitBreaker_Transitions(t *testing.T) {
	tests := []struct {
		name      string
		run       func(cb *CircuitBreaker, clk *fakeClock)
		wantState CircuitState
		wantTry   bool
	}{
		{
			name:      "closed allows attempts",
			run:       func(*CircuitBreaker, *fakeClock) {},
			wantState: CircuitClosed,
			wantTry:   true,
		},
		{
			name: "two failures stay closed",
			run: func(cb *CircuitBreaker, _ *fakeClock) {
				cb.RecordFailure()
				cb.RecordFailure()
			},
			wantState: CircuitClosed,
			wantTry:   true,
		},
		{
			name: "three consecutive failures open",
			run: func(cb *CircuitBreaker, _ *fakeClock) {
				for i := 0; i < 3; i++ {
					cb.RecordFailure()
				}
			},
			wantState: CircuitOpen,
			wantTry:   false,
		},
		{
			name: "success resets the streak",
			run: func(cb *CircuitBreaker, _ *fakeClock) {
				cb.RecordFailure()
				cb.RecordFailure()
				cb.RecordSuccess()
				cb.RecordFailure()
			},
			wantState: CircuitClosed,
			wantTry:   true,
		},
		{
			name: "open becomes half-open after recovery timeout",
			run: func(cb *CircuitBreaker, clk *fakeClock) {
				for i := 0; i < 3; i++ {
					cb.RecordFailure()
				}
				clk.Advance(31 * time.Second)
			},
			wantState: CircuitHalfOpen,
			wantTry:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, clk := newTestBreaker()
			tt.run(cb, clk)
			assert.Equal(t, tt.wantTry, cb.ShouldAttempt())
			assert.Equal(t, tt.wantState, cb.GetState())
		})
	}
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb, clk := newTestBreaker()
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	clk.Advance(30 * time.Second)
	assert.True(t, cb.ShouldAttempt())
	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.GetState())
	assert.False(t, cb.ShouldAttempt())

	clk.Advance(30 * time.Second)
	assert.True(t, cb.ShouldAttempt())
	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.GetState())
}

func TestCircuitBreakerManager(t *testing.T) {
	m := NewCircuitBreakerManager()
	b := m.GetBreaker(domain.ProviderGemini)
	assert.Same(t, b, m.GetBreaker(domain.ProviderGemini))
	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	m.GetBreaker(domain.ProviderGPT4)
	assert.Equal(t, []domain.ProviderID{domain.ProviderGemini}, m.OpenProviders())
	assert.Equal(t, CircuitClosed, m.States()[domain.ProviderGPT4])
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
}
