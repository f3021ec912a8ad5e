// Package debugapi exposes a read-mostly HTTP surface over a running
// governor.Engine: per-CPU state snapshots, tunable thresholds, recent
// decision history and a Prometheus /metrics endpoint. Grounded in the
// teacher's internal/api Server: a chi router, a handful of JSON
// handlers, and a promhttp mount.
package debugapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erfan111/yawn-governor/governor"
	"github.com/erfan111/yawn-governor/internal/trace"
)

// Server is the governor's debug/inspection HTTP server.
type Server struct {
	engine   *governor.Engine
	recorder *trace.Recorder
	registry *prometheus.Registry
}

// NewServer builds a Server over engine. registry may be nil, in which
// case /metrics serves an empty registry rather than the global one, so
// tests never collide with other packages' metrics.
func NewServer(engine *governor.Engine, recorder *trace.Recorder, registry *prometheus.Registry) *Server {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &Server{engine: engine, recorder: recorder, registry: registry}
}

// Handler returns the chi router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/governor", func(r chi.Router) {
		r.Get("/{cpu}", s.handleSnapshot)
		r.Get("/{cpu}/history", s.handleHistory)
		r.Patch("/tunables", s.handleSetTunables)
	})

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return r
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	cpu, err := strconv.Atoi(chi.URLParam(r, "cpu"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid cpu"))
		return
	}
	snap, ok := s.engine.Snapshot(cpu)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("cpu not enabled"))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	cpu, err := strconv.Atoi(chi.URLParam(r, "cpu"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid cpu"))
		return
	}
	limit := 100
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, s.recorder.ForCPU(cpu, limit))
}

type tunablesRequest struct {
	DeepThresholdUs    uint64 `json:"deep_threshold_us"`
	ShallowThresholdUs uint64 `json:"shallow_threshold_us"`
}

func (s *Server) handleSetTunables(w http.ResponseWriter, r *http.Request) {
	var req tunablesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid body: "+err.Error()))
		return
	}
	s.engine.SetThresholds(req.DeepThresholdUs, req.ShallowThresholdUs)
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

func errorBody(msg string) map[string]string { return map[string]string{"error": msg} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
