// Package status serves the optional health, metrics and journal endpoints
// that sit beside the MCP transport.
package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/localrivet/ankimcp/internal/ankiconnect"
	"github.com/localrivet/ankimcp/internal/journal"
	"github.com/localrivet/ankimcp/internal/telemetry"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 1000
	probeTimeout        = 5 * time.Second
)

// Options configures a status Server.
type Options struct {
	// Address is the listen address, e.g. "127.0.0.1:8766".
	Address string
	Anki    ankiconnect.Invoker
	Metrics *telemetry.MetricsCollector
	// Journal is optional. Without it GET /journal answers 404.
	Journal journal.Recorder
	Logger  *slog.Logger
}

// Server exposes bridge health over HTTP.
type Server struct {
	anki     ankiconnect.Invoker
	metrics  *telemetry.MetricsCollector
	journal  journal.Recorder
	logger   *slog.Logger
	httpSrv  *http.Server
	listenAt string
}

// NewServer creates a status Server. It does not listen until Start.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetricsCollector()
	}

	s := &Server{
		anki:     opts.Anki,
		metrics:  metrics,
		journal:  opts.Journal,
		logger:   logger,
		listenAt: opts.Address,
	}
	s.httpSrv = &http.Server{
		Addr:              opts.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router serving the status endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/journal", s.handleJournal)
	return r
}

// Start listens on the configured address in the background. Listener
// failures other than a clean shutdown are logged.
func (s *Server) Start() {
	s.logger.Info("Starting status listener", "address", s.listenAt)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Status listener failed", "address", s.listenAt, "error", err)
		}
	}()
}

// Shutdown stops the listener, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Stopping status listener")
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.anki == nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, ErrorCodeUnavailable, "bridge is not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	report := CreateHealthReport(ctx, s.anki, s.metrics)
	status := http.StatusOK
	if report.Status == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// handleMetrics answers with a JSON snapshot, or the plain text report
// when format=text is given.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, s.metrics.GetReport())
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeErrorResponse(w, http.StatusNotFound, ErrorCodeUnavailable, "call journal is disabled", nil)
		return
	}

	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			handleBadRequest(w, "limit must be a positive integer", err)
			return
		}
		limit = min(n, maxJournalLimit)
	}

	entries, err := s.journal.Recent(limit)
	if err != nil {
		handleInternalError(w, "failed to read call journal", err)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
