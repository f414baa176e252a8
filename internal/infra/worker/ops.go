package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feedhub/internal/observability/metrics"
	"feedhub/internal/observability/tracing"
)

// Trigger starts a refresh cycle in the background and reports whether it
// was started.
type Trigger interface {
	Trigger() bool
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// OpsServer serves the worker's operational endpoints:
//
//	GET  /health        liveness, always 200
//	GET  /health/ready  200 once started and the database answers, else 503
//	GET  /metrics       Prometheus exposition
//	POST /refresh       starts a cycle: 202, or 409 when one is running
type OpsServer struct {
	addr     string
	logger   *slog.Logger
	trigger  Trigger
	db       Pinger
	gatherer prometheus.Gatherer
	isReady  atomic.Bool
	server   *http.Server
}

type statusResponse struct {
	Status string `json:"status"`
}

// NewOpsServer creates a server that is not ready and not started.
// db may be nil, in which case readiness only reflects SetReady.
func NewOpsServer(addr string, trigger Trigger, db Pinger, gatherer prometheus.Gatherer, logger *slog.Logger) *OpsServer {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &OpsServer{
		addr:     addr,
		logger:   logger,
		trigger:  trigger,
		db:       db,
		gatherer: gatherer,
	}
}

// Handler returns the routed handler.
func (s *OpsServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(tracing.Middleware)
	r.Use(requestMetrics)

	r.Get("/health", s.handleLiveness)
	r.Get("/health/ready", s.handleReadiness)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Post("/refresh", s.handleRefresh)
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
// It returns http.ErrServerClosed after a clean shutdown.
func (s *OpsServer) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("ops server starting", slog.String("addr", s.addr))
		if err := s.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("ops server shutting down")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("ops server shutdown failed", slog.Any("error", err))
			return err
		}
		return http.ErrServerClosed

	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ops server failed", slog.Any("error", err))
		}
		return err
	}
}

// SetReady sets the readiness state reported by /health/ready.
func (s *OpsServer) SetReady(ready bool) {
	s.isReady.Store(ready)
	s.logger.Info("ops server readiness changed", slog.Bool("ready", ready))
}

func (s *OpsServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	s.writeStatus(w, http.StatusOK, "ok")
}

func (s *OpsServer) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if !s.isReady.Load() {
		s.writeStatus(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.Any("error", err))
			s.writeStatus(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	s.writeStatus(w, http.StatusOK, "ok")
}

func (s *OpsServer) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	if !s.trigger.Trigger() {
		s.writeStatus(w, http.StatusConflict, "already running")
		return
	}
	s.writeStatus(w, http.StatusAccepted, "started")
}

func (s *OpsServer) writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(statusResponse{Status: status}); err != nil {
		s.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := tracing.NewStatusRecorder(w)
		next.ServeHTTP(rw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(rw.Status), time.Since(start))
	})
}
