// Package http serves the earthquake dashboard and the operational
// endpoints on top of the refresh coordinator.
package http

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/quake-watch-service/internal/domain"
	"github.com/couchcryptid/quake-watch-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SnapshotSource is the coordinator surface the handlers need: read the
// current snapshot, trigger a refresh, report readiness.
type SnapshotSource interface {
	Snapshot() *domain.Snapshot
	RefreshNow(ctx context.Context) error
	CheckReadiness(ctx context.Context) error
}

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(
	template.New("index.html.tmpl").Funcs(template.FuncMap{
		"moment": formatMoment,
	}).ParseFS(templateFS, "templates/index.html.tmpl"),
)

// formatMoment renders an event time the way the table displays it.
// Zero times (events the feed left untimed) render empty.
func formatMoment(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Mon 02 Jan 2006 15:04:05")
}

// Server exposes the dashboard, manual update, health, readiness, and
// metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	source     SnapshotSource
	threshold  float64
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(addr string, source SnapshotSource, threshold float64, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		source:    source,
		threshold: threshold,
		logger:    logger,
		metrics:   metrics,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.withAccessLog(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /update", s.handleUpdate)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(source))
	mux.Handle("GET /metrics", promhttp.Handler())

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

// pageData is what the index template renders.
type pageData struct {
	Events []domain.Event
	Count  int

	// Toggled sort direction for each column header link.
	OrdreMagnitude domain.Order
	OrdreEndroit   domain.Order
	OrdreMoment    domain.Order
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.metrics.PageRequests.Inc()

	triParam := r.URL.Query().Get("tri")
	if triParam == "" {
		triParam = string(domain.SortTime)
	}
	tri := domain.ParseSortKey(triParam)
	ordre := domain.ParseOrder(r.URL.Query().Get("ordre"))

	snap := s.source.Snapshot()
	events := domain.Project(snap.Feed, tri, ordre, s.threshold)

	data := pageData{
		Events:         events,
		Count:          len(events),
		OrdreMagnitude: headerOrder(tri, ordre, domain.SortMagnitude),
		OrdreEndroit:   headerOrder(tri, ordre, domain.SortPlace),
		OrdreMoment:    headerOrder(tri, ordre, domain.SortTime),
	}

	// Render to a buffer first so a template error cannot produce a
	// half-written page.
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("render dashboard failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes()) //nolint:errcheck // client gone mid-response is not actionable
}

// headerOrder computes the direction a column header link should request:
// clicking the active column toggles it, any other column starts descending.
func headerOrder(active domain.SortKey, current domain.Order, col domain.SortKey) domain.Order {
	if active == col {
		return current.Toggle()
	}
	return domain.Descending
}

// handleUpdate triggers a refresh and redirects back to the table. A
// failed refresh is logged server-side only; the user sees the previous
// data, not an error page.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := s.source.RefreshNow(r.Context()); err != nil {
		s.logger.Warn("manual update failed", "kind", domain.KindOf(err).String(), "error", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// statusRecorder captures the response status for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Debug("request",
			"request_id", uuid.NewString(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
