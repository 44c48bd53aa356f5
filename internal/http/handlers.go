package http

import (
	"context"
	"net/http"

	"financas/internal/cache"
	"financas/internal/log"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/trace"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "index", s.pageData())
}

// partial serves one named fragment of the page. Each fragment re-fetches
// itself when the ledger changes.
func (s *Server) partial(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resp := RequireGET(r); resp != nil {
			resp.Write(w)
			return
		}
		s.render(w, r, http.StatusOK, name, s.pageData())
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type metricsResponse struct {
	Requests           trace.Metrics     `json:"requests"`
	RateLimit          ratelimit.Metrics `json:"rate_limit"`
	ViewCache          cache.Stats       `json:"view_cache"`
	SuspiciousRequests int64             `json:"suspicious_requests"`
	Revision           uint64            `json:"revision"`
	Transactions       int               `json:"transactions"`
	Categories         int               `json:"categories"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	NewHTMXResponse().BodyJSON(metricsResponse{
		Requests:           s.tracer.GetMetrics(),
		RateLimit:          s.limiter.GetMetrics(),
		ViewCache:          s.views.Stats(),
		SuspiciousRequests: s.detector.SuspiciousCount(),
		Revision:           s.ledger.Revision(),
		Transactions:       len(s.ledger.Transactions()),
		Categories:         len(s.ledger.Categories()),
	}).Write(w)
}

// handleState returns a consistent JSON snapshot of the ledger.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	NewHTMXResponse().BodyJSON(s.ledger.Snapshot()).Write(w)
}
