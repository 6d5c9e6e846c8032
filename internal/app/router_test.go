package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/ai"
	httpserver "github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

func TestBuildRouter_Routes(t *testing.T) {
	breakers := ai.NewCircuitBreakerManager()
	breakers.GetBreaker(domain.ProviderGemini)

	srv := &httpserver.Server{
		Checks:    []httpserver.Check{{Name: "redis", Run: func(context.Context) error { return errors.New("down") }}},
		Providers: breakerStates{m: breakers},
	}
	h := BuildRouter(srv)

	tests := []struct {
		path string
		code int
	}{
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusServiceUnavailable},
		{"/v1/status", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestBuildRouter_StatusReportsBreakers(t *testing.T) {
	breakers := ai.NewCircuitBreakerManager()
	breakers.GetBreaker(domain.ProviderGPT4o)
	h := BuildRouter(&httpserver.Server{Providers: breakerStates{m: breakers}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Providers map[string]string `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "closed", body.Providers["gpt-4o"])
}

func TestBreakerStates_NilManager(t *testing.T) {
	assert.Empty(t, breakerStates{}.States())
}
