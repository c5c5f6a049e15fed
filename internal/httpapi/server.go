// Package httpapi exposes the pipeline over HTTP: one route per operation
// in the download/transcode lifecycle, plus a small diagnostics surface.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"clipforge/internal/pool"
	"clipforge/internal/storage"
	"clipforge/internal/sysinfo"
	"clipforge/internal/worker"
)

// Server wires the HTTP edge to the pipeline's collaborators.
type Server struct {
	router *chi.Mux

	download  *worker.Download
	transcode *worker.Transcode
	store     *storage.Store
	logger    *slog.Logger

	downloadPool  *pool.Pool
	transcodePool *pool.Pool
	sysinfo       *sysinfo.Reporter
}

// Deps wires a Server to its collaborators. DownloadPool/TranscodePool and
// Sysinfo are optional: a nil Sysinfo omits the host fields from
// /diagnostics/health, and a nil pool reports its queue depth as 0.
type Deps struct {
	Download  *worker.Download
	Transcode *worker.Transcode
	Store     *storage.Store
	Logger    *slog.Logger

	DownloadPool  *pool.Pool
	TranscodePool *pool.Pool
	Sysinfo       *sysinfo.Reporter
}

// NewServer builds a Server and registers every route.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{
		router:        chi.NewRouter(),
		download:      deps.Download,
		transcode:     deps.Transcode,
		store:         deps.Store,
		logger:        deps.Logger,
		downloadPool:  deps.DownloadPool,
		transcodePool: deps.TranscodePool,
		sysinfo:       deps.Sysinfo,
	}
	s.setupRoutes()
	return s
}

// Router returns the handler to pass to http.Serve / httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.correlationMiddleware)
	s.router.Use(middleware.Logger)

	s.router.Get("/request_transcode/{id}/{fmt}", s.handleRequestTranscode)
	s.router.Get("/delete_download/{id}", s.handleDeleteDownload)
	s.router.Get("/delete_transcode/{id}/{fmt}", s.handleDeleteTranscode)
	s.router.Get("/get_downloads", s.handleGetDownloads)
	s.router.Get("/get_transcodes", s.handleGetTranscodes)
	s.router.Get("/get_download/{id}", s.handleGetDownload)
	s.router.Get("/get_transcode/{id}/{fmt}", s.handleGetTranscode)
	s.router.Get("/get_download_state/{id}", s.handleGetDownloadState)
	s.router.Get("/get_transcode_state/{id}/{fmt}", s.handleGetTranscodeState)
	s.router.Get("/get_download_link/{id}/{fmt}", s.handleGetDownloadLink)

	s.router.Get("/diagnostics/health", s.handleDiagnosticsHealth)
	s.router.Get("/diagnostics/speedtest", s.handleDiagnosticsSpeedTest)
}

type correlationIDKey struct{}

// correlationMiddleware attaches a per-request trace id to the request
// context and returns it in the X-Request-ID response header. logFor builds
// a logger carrying that id; the route handlers do not log through it.
func (s *Server) correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), correlationIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(r *http.Request) string {
	if id, ok := r.Context().Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

func (s *Server) logFor(r *http.Request) *slog.Logger {
	return s.logger.With("request_id", requestID(r))
}
