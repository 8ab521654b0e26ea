// Package api provides the HTTP API server and handlers for recipebox.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/recipeboxapp/recipebox-server/internal/media"
	"github.com/recipeboxapp/recipebox-server/internal/ratelimit"
	"github.com/recipeboxapp/recipebox-server/internal/store"
)

// Route prefixes.
const (
	recipePrefix = "/api/recipe"
	userPrefix   = "/api/user"
)

// bearer is the security requirement attached to authenticated operations.
var bearer = []map[string][]string{{"bearer": {}}}

// Config holds the HTTP-facing settings of the server.
type Config struct {
	// CORSAllowedOrigins lists origins allowed to call the API; "*" allows any.
	CORSAllowedOrigins []string
	// MediaURL is the public prefix of stored blobs. When it is a path
	// ("/media/") the server serves blobs itself.
	MediaURL string
	// TokenRateLimit is token requests per client IP per minute; zero disables.
	TokenRateLimit int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        store.Store
	services     *Services
	media        media.Storage
	router       *chi.Mux
	api          huma.API
	metrics      *Metrics
	tokenLimiter *ratelimit.KeyedRateLimiter
	logger       *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	st store.Store,
	services *Services,
	storage media.Storage,
	metrics *Metrics,
	cfg Config,
	logger *slog.Logger,
) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}

	s := &Server{
		store:    st,
		services: services,
		media:    storage,
		router:   chi.NewRouter(),
		metrics:  metrics,
		logger:   logger,
	}
	if cfg.TokenRateLimit > 0 {
		s.tokenLimiter = ratelimit.PerMinute(cfg.TokenRateLimit, 10*time.Minute)
	}

	// Middleware must be registered before humachi mounts routes on the router.
	s.setupMiddleware(cfg)

	humaConfig := huma.DefaultConfig("recipebox API", "1.0.0")
	// No $schema links: bodies, errors included, are written as their own JSON.
	humaConfig.CreateHooks = nil
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()
	s.api.UseMiddleware(s.requireAuth)

	s.setupRoutes(cfg)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.tokenLimiter != nil {
		s.tokenLimiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(cfg Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.metrics.Middleware)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.StripSlashes)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	s.router.Use(authMiddleware(s.services.Users))

	s.router.NotFound(notFound)
	s.router.MethodNotAllowed(methodNotAllowed)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(cfg Config) {
	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerAttributeRoutes()
	s.registerRecipeRoutes()
	s.registerUploadRoutes()

	s.router.Handle("/metrics", s.metrics.Handler())

	if strings.HasPrefix(cfg.MediaURL, "/") {
		prefix := strings.TrimSuffix(cfg.MediaURL, "/")
		s.router.Get(prefix+"/*", s.handleServeMedia)
	}
}
