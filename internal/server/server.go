// Package server exposes health, Prometheus metrics and ensemble details over
// HTTP while a run is in progress.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"det-ensemble/internal/ensemble"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// EnsembleSource is the read-only view of the loaded ensemble the server reports.
type EnsembleSource interface {
	Len() int
	DataWidth() int
	TotalWeight() uint64
	Info() []ensemble.ModelInfo
}

// HealthResponse is served on /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Models    int    `json:"models"`
	DataWidth int    `json:"data_width"`
}

// EnsembleResponse is served on /ensemble.
type EnsembleResponse struct {
	DataWidth   int                  `json:"data_width"`
	TotalWeight uint64               `json:"total_weight"`
	Models      []ensemble.ModelInfo `json:"models"`
}

// Server is the HTTP side channel of a run.
type Server struct {
	source EnsembleSource
	server *http.Server
}

// New creates a server on port. gatherer backs /metrics; nil means the default registry.
func New(source EnsembleSource, gatherer prometheus.Gatherer, port int) *Server {
	s := &Server{source: source}

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ensemble", s.handleEnsemble)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// Handler returns the routing handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start serves until Shutdown. A clean shutdown returns nil.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting metrics server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := HealthResponse{
		Status:    "ok",
		Models:    s.source.Len(),
		DataWidth: s.source.DataWidth(),
	}
	status := http.StatusOK
	if health.Models == 0 {
		health.Status = "empty"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, health)
}

func (s *Server) handleEnsemble(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, EnsembleResponse{
		DataWidth:   s.source.DataWidth(),
		TotalWeight: s.source.TotalWeight(),
		Models:      s.source.Info(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}
