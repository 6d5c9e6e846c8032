package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

// Check is a named readiness probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// ProviderStates reports circuit state per provider.
type ProviderStates interface {
	States() map[domain.ProviderID]string
}

// PoolStats reports dispatch pool occupancy.
type PoolStats interface {
	ActiveWorkers() int
	QueueDepth() int
}

// Server aggregates ops handler dependencies.
type Server struct {
	Checks    []Check
	Providers ProviderStates
	Pool      PoolStats
}

// HealthzHandler always answers 200 while the process is up.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type checkResult struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Details string `json:"details,omitempty"`
}

// ReadyzHandler runs every check with a 2s budget; any failure yields 503.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		out := make([]checkResult, 0, len(s.Checks))
		status := http.StatusOK
		for _, c := range s.Checks {
			res := checkResult{Name: c.Name, OK: true}
			if err := c.Run(ctx); err != nil {
				res.OK, res.Details = false, err.Error()
				status = http.StatusServiceUnavailable
			}
			out = append(out, res)
		}
		writeJSON(w, status, map[string]any{"checks": out})
	}
}

// StatusHandler reports provider circuit states and pool occupancy.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{}
		if s.Providers != nil {
			body["providers"] = s.Providers.States()
		}
		if s.Pool != nil {
			body["pool"] = map[string]int{
				"active_workers": s.Pool.ActiveWorkers(),
				"queue_depth":    s.Pool.QueueDepth(),
			}
		}
		writeJSON(w, http.StatusOK, body)
	}
}
