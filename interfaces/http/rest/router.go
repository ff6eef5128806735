package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/swaggo/swag"
	"go.uber.org/zap"

	_ "pathfinder-backend/docs"
	"pathfinder-backend/interfaces/http/rest/handlers"
	"pathfinder-backend/interfaces/http/rest/middleware"
	pkgerrors "pathfinder-backend/pkg/errors"
	"pathfinder-backend/pkg/observability"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterOptions holds the cross-cutting HTTP settings. CORS is off when
// CORSOrigins is empty.
type RouterOptions struct {
	CORSOrigins   []string
	EnableMetrics bool
}

// Router creates and configures the HTTP router
type Router struct {
	auth     *handlers.AuthHandler
	graphs   *handlers.GraphHandler
	roadmaps *handlers.RoadmapHandler
	uploads  *handlers.UploadHandler
	learning *handlers.LearningHandler

	authenticator *middleware.Authenticator
	errors        *pkgerrors.ErrorHandler
	metrics       *observability.Collector
	store         Pinger
	options       RouterOptions
	logger        *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	authHandler *handlers.AuthHandler,
	graphHandler *handlers.GraphHandler,
	roadmapHandler *handlers.RoadmapHandler,
	uploadHandler *handlers.UploadHandler,
	learningHandler *handlers.LearningHandler,
	authenticator *middleware.Authenticator,
	errs *pkgerrors.ErrorHandler,
	metrics *observability.Collector,
	store Pinger,
	options RouterOptions,
	logger *zap.Logger,
) *Router {
	return &Router{
		auth:          authHandler,
		graphs:        graphHandler,
		roadmaps:      roadmapHandler,
		uploads:       uploadHandler,
		learning:      learningHandler,
		authenticator: authenticator,
		errors:        errs,
		metrics:       metrics,
		store:         store,
		options:       options,
		logger:        logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))
	router.Use(rt.errors.Middleware)

	if len(rt.options.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.options.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.Handle(w, r, pkgerrors.NewNotFoundError("route"))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.Handle(w, r, pkgerrors.NewValidationError("method not allowed").WithCode("METHOD_NOT_ALLOWED"))
	})

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.options.EnableMetrics {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}
	router.Get("/api/docs/doc.json", rt.apiDocs)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(rt.authenticator.LimitIP).Post("/register", rt.auth.Register)
			r.With(rt.authenticator.LimitIP).Post("/login", rt.auth.Login)
			r.With(rt.authenticator.Authenticate).Get("/me", rt.auth.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.authenticator.Authenticate)

			r.Route("/graphs", func(r chi.Router) {
				r.Post("/", rt.graphs.CreateGraph)
				r.Get("/", rt.graphs.ListGraphs)

				r.Route("/{graphID}", func(r chi.Router) {
					r.Get("/", rt.graphs.GetGraph)
					r.Delete("/", rt.graphs.DeleteGraph)
					r.Post("/import", rt.graphs.Import)
					r.Post("/hierarchy", rt.graphs.Hierarchy)
					r.Get("/nodes", rt.graphs.ListNodes)
					r.Get("/nodes/{topicID}", rt.graphs.GetNode)
					r.Post("/nodes/{topicID}/explain", rt.learning.Explain)
					r.Get("/edges", rt.graphs.ListEdges)
					r.Get("/roadmap", rt.roadmaps.GetRoadmap)
				})
			})

			r.Post("/decompose", rt.learning.Decompose)

			r.Route("/uploads", func(r chi.Router) {
				r.Post("/", rt.uploads.Upload)
				r.Get("/{uploadID}", rt.uploads.GetUpload)
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, "healthy")
}

// readinessCheck reports ready once the store answers
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := rt.store.Ping(ctx); err != nil {
		rt.logger.Warn("Readiness check failed", zap.Error(err))
		writeStatus(w, http.StatusServiceUnavailable, "unavailable")
		return
	}
	writeStatus(w, http.StatusOK, "ready")
}

// apiDocs serves the generated OpenAPI document
func (rt *Router) apiDocs(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		rt.errors.Handle(w, r, pkgerrors.NewInternalError("api docs unavailable").WithCause(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
