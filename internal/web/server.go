package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vbonduro/bitacora/internal/metrics"
	"github.com/vbonduro/bitacora/internal/photostore"
	"github.com/vbonduro/bitacora/internal/service"
)

type Server struct {
	service    *service.ReportService
	photoStore photostore.PhotoStore
	// servePhotos exposes GET /fotos/{key} for the local photo backend.
	servePhotos bool
	mux         *http.ServeMux
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewServer(svc *service.ReportService, ps photostore.PhotoStore, servePhotos bool, m *metrics.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		service:     svc,
		photoStore:  ps,
		servePhotos: servePhotos,
		mux:         http.NewServeMux(),
		metrics:     m,
		logger:      logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/reportes", s.handleListReports)
	s.mux.HandleFunc("POST /api/reportes", s.handleCreateReport)
	s.mux.HandleFunc("GET /api/reportes/xlsx", s.handleExportXLSX)
	s.mux.HandleFunc("GET /api/reportes/{id}", s.handleGetReport)
	s.mux.HandleFunc("GET /api/reportes/{id}/pdf", s.handleExportPDF)
	s.mux.HandleFunc("GET /api/supervisor", s.handleGetSupervisor)
	s.mux.HandleFunc("GET /api/supervisores", s.handleListSupervisors)
	s.mux.HandleFunc("GET /api/catalogo", s.handleCatalog)
	s.mux.HandleFunc("POST /api/fotos", s.handleUploadPhoto)
	if s.servePhotos {
		s.mux.HandleFunc("GET /fotos/{key}", s.handleGetPhoto)
	}
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, envelope{"ok": true})
	})
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger logs every request once and records it by route pattern, so
// path parameters do not fan out into separate series.
func requestLogger(logger *slog.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(r.Method, route, rec.status, elapsed)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, s.metrics, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}
