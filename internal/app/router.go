package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/ai"
	httpserver "github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

// breakerStates adapts the breaker manager to the ops status handler.
type breakerStates struct{ m *ai.CircuitBreakerManager }

func (b breakerStates) States() map[domain.ProviderID]string {
	out := map[domain.ProviderID]string{}
	if b.m == nil {
		return out
	}
	for id, st := range b.m.States() {
		out[id] = st.String()
	}
	return out
}

// BuildRouter constructs the ops handler: health, readiness, status and metrics.
func BuildRouter(srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(10 * time.Second))
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Get("/healthz", srv.HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	r.Get("/v1/status", srv.StatusHandler())
	r.Handle("/metrics", promhttp.Handler())

	return httpserver.SecurityHeaders(r)
}

// OpsServer builds the ops server for e.
func (e *Engine) OpsServer() *httpserver.Server {
	var limiter Pinger
	if e.Limiter != nil {
		limiter = e.Limiter
	}
	return &httpserver.Server{
		Checks:    BuildReadinessChecks(e.Cfg, limiter),
		Providers: breakerStates{m: e.Breakers},
		Pool:      e.Pool,
	}
}
