package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/landlord-risk-etl/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cast"
)

// ResultProvider returns the latest completed risk run, or nil before the first.
type ResultProvider interface {
	Latest() *domain.Result
}

// Server exposes health, readiness, metrics and the latest risk results.
type Server struct {
	httpServer *http.Server
	results    ResultProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api result routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, results ResultProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		results: results,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/properties", s.handleResult(func(r *domain.Result) any { return r.Properties }))
	mux.HandleFunc("GET /api/landlords", s.handleResult(func(r *domain.Result) any { return r.Landlords }))
	mux.HandleFunc("GET /api/districts", s.handleResult(func(r *domain.Result) any { return r.Districts }))
	mux.HandleFunc("GET /api/trends", s.handleResult(func(r *domain.Result) any { return r.YearlyTrend }))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// resultPage is the body of every /api response.
type resultPage struct {
	RunID      string    `json:"run_id"`
	ComputedAt time.Time `json:"computed_at"`
	Total      int       `json:"total"`
	Items      any       `json:"items"`
}

// handleResult serves one section of the latest result. Risk rows are
// already sorted by score, so ?limit=N returns the top N.
func (s *Server) handleResult(section func(*domain.Result) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := s.results.Latest()
		if res == nil {
			sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no risk run has completed yet"})
			return
		}

		limit := -1
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := cast.ToIntE(v)
			if err != nil || n < 0 {
				sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
				return
			}
			limit = n
		}

		items, total := truncate(section(res), limit)
		sharedobs.WriteJSON(w, http.StatusOK, resultPage{
			RunID:      res.RunID,
			ComputedAt: res.ComputedAt,
			Total:      total,
			Items:      items,
		})
	}
}

func truncate(items any, limit int) (any, int) {
	switch v := items.(type) {
	case []domain.PropertyRisk:
		return head(v, limit), len(v)
	case []domain.LandlordRisk:
		return head(v, limit), len(v)
	case []domain.DistrictRisk:
		return head(v, limit), len(v)
	case []domain.YearlyTrend:
		return head(v, limit), len(v)
	}
	return items, 0
}

func head[T any](s []T, limit int) []T {
	if s == nil {
		s = []T{}
	}
	if limit >= 0 && limit < len(s) {
		return s[:limit]
	}
	return s
}
