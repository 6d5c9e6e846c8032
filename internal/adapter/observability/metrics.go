package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and operation",
		},
		[]string{"provider", "operation"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "operation"},
	)
	AIPromptTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_prompt_tokens_total",
			Help: "Prompt tokens sent per provider",
		},
		[]string{"provider"},
	)
	AIFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_failures_total",
			Help: "Failed provider attempts by failure class",
		},
		[]string{"provider", "class"},
	)
	AIFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_fallbacks_total",
			Help: "Cross-provider fallbacks taken",
		},
		[]string{"from", "to"},
	)

	DispatchQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Tasks waiting in the dispatch queue",
		},
	)
	DispatchActiveWorkers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_active_workers",
			Help: "Workers currently running in the dispatch pool",
		},
	)
	DispatchTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_tasks_total",
			Help: "Dispatched tasks by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	SentimentRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_runs_total",
			Help: "Sentiment subprocess runs by outcome",
		},
		[]string{"outcome"},
	)

	// Evaluation outcome distributions
	CategoryScoreHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evaluation_category_score",
			Help:    "Distribution of per-category scores (fraction [0,1])",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{"mode"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(AIPromptTokensTotal)
	prometheus.MustRegister(AIFailuresTotal)
	prometheus.MustRegister(AIFallbacksTotal)
	prometheus.MustRegister(DispatchQueueDepth)
	prometheus.MustRegister(DispatchActiveWorkers)
	prometheus.MustRegister(DispatchTasksTotal)
	prometheus.MustRegister(SentimentRunsTotal)
	prometheus.MustRegister(CategoryScoreHistogram)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveProviderCall records one provider attempt.
func ObserveProviderCall(provider, operation string, d time.Duration) {
	AIRequestsTotal.WithLabelValues(provider, operation).Inc()
	AIRequestDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
}

// AddPromptTokens records prompt tokens sent to provider.
func AddPromptTokens(provider string, n int) {
	if n > 0 {
		AIPromptTokensTotal.WithLabelValues(provider).Add(float64(n))
	}
}

// RecordProviderFailure counts a failed attempt by class.
func RecordProviderFailure(provider, class string) {
	AIFailuresTotal.WithLabelValues(provider, class).Inc()
}

// RecordFallback counts a switch from one provider to another.
func RecordFallback(from, to string) {
	AIFallbacksTotal.WithLabelValues(from, to).Inc()
}

// RecordTask counts a finished dispatch task.
func RecordTask(kind, outcome string) {
	DispatchTasksTotal.WithLabelValues(kind, outcome).Inc()
}

// SetPoolState publishes the current queue depth and worker count.
func SetPoolState(queueDepth, activeWorkers int) {
	DispatchQueueDepth.Set(float64(queueDepth))
	DispatchActiveWorkers.Set(float64(activeWorkers))
}

// RecordSentimentRun counts a sentiment subprocess outcome.
func RecordSentimentRun(outcome string) {
	SentimentRunsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCategoryScore records a category score in [0,1] for the given mode.
func ObserveCategoryScore(mode string, score float64) {
	if score >= 0 && score <= 1 {
		CategoryScoreHistogram.WithLabelValues(mode).Observe(score)
	}
}
