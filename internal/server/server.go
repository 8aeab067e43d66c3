package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"adopt-dashboard/internal/config"
	"adopt-dashboard/internal/handlers"
	"adopt-dashboard/internal/middleware"
	"adopt-dashboard/internal/session"
)

type Server struct {
	registry    *session.Registry
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

type Options struct {
	Session        config.SessionConfig
	MetricsEnabled bool
}

func NewServer(registry *session.Registry, logger *slog.Logger, templateHandlers *TemplateHandlers, opts Options) (*Server, error) {
	s := &Server{
		registry:    registry,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(registry, logger),
		sseHandlers: handlers.NewSSEHandlers(registry, logger),
	}
	if err := s.setupRoutes(templateHandlers, opts); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers, opts Options) error {
	compress, err := middleware.Compress()
	if err != nil {
		return err
	}
	withSession := middleware.Session(s.registry, opts.Session)

	// Compressed and session-scoped
	page := middleware.Chain(compress, withSession)
	// SSE streams are flushed per event and must not be compressed
	stream := withSession

	// Dashboard routes
	s.mux.Handle("GET /{$}", page(templateHandlers.Dashboard))
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.HandleFunc("POST /admin/reload", s.apiHandlers.HandleReload)
	if opts.MetricsEnabled {
		s.mux.Handle("GET /metrics", promhttp.Handler())
	}

	// REST API endpoints
	s.mux.Handle("GET /api/region-counts", page(http.HandlerFunc(s.apiHandlers.HandleRegionCounts)))
	s.mux.Handle("GET /api/breed-ranking", page(http.HandlerFunc(s.apiHandlers.HandleBreedRanking)))
	s.mux.Handle("GET /api/crosstab", page(http.HandlerFunc(s.apiHandlers.HandleCrosstab)))
	s.mux.Handle("GET /api/compatibility", page(http.HandlerFunc(s.apiHandlers.HandleCompatibility)))
	s.mux.Handle("GET /api/filter-state", page(http.HandlerFunc(s.apiHandlers.HandleFilterState)))
	s.mux.Handle("POST /api/events", page(http.HandlerFunc(s.apiHandlers.HandleEvent)))

	// Datastar SSE endpoints
	s.mux.Handle("GET /sse/refresh-all", stream(http.HandlerFunc(s.sseHandlers.HandleRefreshAll)))
	s.mux.Handle("POST /sse/region", stream(http.HandlerFunc(s.sseHandlers.HandleRegion)))
	s.mux.Handle("POST /sse/breed", stream(http.HandlerFunc(s.sseHandlers.HandleBreed)))
	s.mux.Handle("POST /sse/trait", stream(http.HandlerFunc(s.sseHandlers.HandleTrait)))
	s.mux.Handle("POST /sse/reset", stream(http.HandlerFunc(s.sseHandlers.HandleReset)))

	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
