package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
	"github.com/couchcryptid/flood-monitor-service/internal/pipeline"
)

// Ingester processes one raw reading payload.
type Ingester interface {
	Ingest(ctx context.Context, payload []byte) (pipeline.IngestResult, error)
}

// StatusReader reports the current flood risk.
type StatusReader interface {
	Current(ctx context.Context) (domain.CurrentStatus, bool, error)
}

// ReadingQuerier is the read side of the reading store used by the reports.
type ReadingQuerier interface {
	LatestReadings(ctx context.Context, limit int) ([]domain.Reading, error)
	LatestReading(ctx context.Context) (domain.Reading, bool, error)
	CountReadings(ctx context.Context) (int64, error)
	ReadingsSince(ctx context.Context, from time.Time) ([]domain.Reading, error)
}

// SummaryQuerier is the read side of the daily summary store.
type SummaryQuerier interface {
	RecentSummaries(ctx context.Context, limit int) ([]domain.DailySummary, error)
	CountSummaries(ctx context.Context) (total, adverse int64, err error)
}

// Deps are the collaborators behind the API routes.
type Deps struct {
	Ingester   Ingester
	Status     StatusReader
	Readings   ReadingQuerier
	Summaries  SummaryQuerier
	Classifier pipeline.Classifier
	Ready      sharedobs.ReadinessChecker
	Location   *time.Location
}

// Server exposes the sensor API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api routes plus /healthz, /readyz, and /metrics.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(deps.Ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/sensor", s.handleIngest)
		r.Post("/predict", s.handlePredict)
		r.Get("/latest", s.handleLatest)
		r.Get("/current-status", s.handleCurrentStatus)
		r.Get("/summary", s.handleSummary)
		r.Get("/stats", s.handleStats)
		r.Get("/chart-data", s.handleChartData)
		r.Get("/time", s.handleTime)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		s.writeError(w, http.StatusNotFound, "endpoint not found")
	})

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

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
