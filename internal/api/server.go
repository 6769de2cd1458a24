// Package api serves a read-only HTTP view of the page annotation cache and its event stream.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/normalized"
	"github.com/spacemark/pagecache/internal/ratelimit"
	"github.com/spacemark/pagecache/internal/sse"
)

// Inspector is the read side of the cache the API exposes.
type Inspector interface {
	Annotation(unifiedID string) *domain.Annotation
	AnnotationByLocalID(localID string) *domain.Annotation
	AnnotationByRemoteID(remoteID string) *domain.Annotation
	AnnotationCount() int
	AnnotationsArray() []*domain.Annotation
	AnnotationsState() *normalized.State[domain.Annotation]
	List(unifiedID string) *domain.List
	ListCount() int
	ListsByParentID(parentID string) []*domain.List
	ListsArray() []*domain.List
	ListsState() *normalized.State[domain.List]
	PageListIDs(normalizedPageURL string) []string
	SharedPageListIDs(normalizedPageURL string) []string
}

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string

	// RateLimit is the per-client request rate in requests per second. Zero disables limiting.
	RateLimit float64
	RateBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	cache      Inspector
	sseManager *sse.Manager
	sseHandler *sse.Handler
	router     *chi.Mux
	logger     *slog.Logger
	limiter    *ratelimit.KeyedRateLimiter
	opts       Options
	startedAt  time.Time
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cache Inspector, sseManager *sse.Manager, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		cache:      cache,
		sseManager: sseManager,
		sseHandler: sse.NewHandler(sseManager, logger),
		router:     chi.NewRouter(),
		logger:     logger,
		opts:       opts,
		startedAt:  time.Now(),
	}
	if opts.RateLimit > 0 {
		s.limiter = ratelimit.New(opts.RateLimit, max(opts.RateBurst, 1), 10*time.Minute)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Close releases background resources.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.rateLimit)

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Last-Event-ID"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/annotations", func(r chi.Router) {
			r.Get("/", s.handleListAnnotations)
			r.Get("/{id}", s.handleGetAnnotation)
			r.Get("/local/{id}", s.handleGetAnnotationByLocalID)
			r.Get("/remote/{id}", s.handleGetAnnotationByRemoteID)
		})

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", s.handleListLists)
			r.Get("/roots", s.handleListRoots)
			r.Get("/{id}", s.handleGetList)
			r.Get("/{id}/children", s.handleListChildren)
		})

		r.Route("/pages", func(r chi.Router) {
			r.Get("/lists", s.handlePageLists)
			r.Get("/shared-lists", s.handlePageSharedLists)
			r.Get("/export", s.handlePageExport)
		})

		r.Get("/stream", s.sseHandler.ServeHTTP)
	})
}

// requestLogger logs one line per request with structured attributes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}
