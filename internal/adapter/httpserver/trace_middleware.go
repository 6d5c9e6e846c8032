package httpserver

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/observability"
)

// TraceMiddleware starts a span for each ops request.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := observability.Tracer().Start(r.Context(), "ops "+r.Method+" "+r.URL.Path)
		defer span.End()
		span.SetAttributes(attribute.String("http.method", r.Method), attribute.String("http.target", r.URL.Path))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
