package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lazypower/mindgraph/internal/engine"
	"github.com/lazypower/mindgraph/internal/store"
)

// Options configures a Server.
type Options struct {
	Version        string
	AllowedOrigins []string // CORS is enabled only when set
}

// Server is the mindgraph HTTP API server.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	log     *zap.Logger
	opts    Options
	router  chi.Router
	started time.Time
	now     func() time.Time
}

// New creates a Server over a loaded engine. A nil logger discards output.
func New(db *store.DB, eng *engine.Engine, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		db:      db,
		engine:  eng,
		log:     logger,
		opts:    opts,
		started: time.Now(),
		now:     time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/graph", s.handleGraph)
		r.Get("/links", s.handleLinks)
		r.Get("/trace", s.handleTrace)
		r.Post("/view", s.handleView)

		r.Route("/nodes", func(r chi.Router) {
			r.Get("/", s.handleListNodes)
			r.Post("/", s.handleAddNode)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetNode)
				r.Patch("/", s.handleUpdateNode)
				r.Delete("/", s.handleDeleteNode)
				r.Post("/touch", s.handleTouchNode)
				r.Post("/drag/start", s.handleDragStart)
				r.Post("/drag/move", s.handleDragMove)
				r.Post("/drag/end", s.handleDragEnd)
			})
		})

		r.Get("/clusters", s.handleListClusters)
		r.Put("/clusters", s.handleSetClusters)

		r.Post("/simulation/step", s.handleStep)
		r.Post("/simulation/start", s.handleStart)
		r.Post("/simulation/stop", s.handleStop)

		r.Get("/review/due", s.handleDueReviews)
		r.Post("/review/{id}", s.handleReview)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
	})

	r.Handle("/metrics", promhttp.HandlerFor(s.engine.Metrics().Registry, promhttp.HandlerOpts{}))
	r.Get("/*", s.spaHandler())

	s.router = r
}

// requestLogger logs one line per request once it has been served.
func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	dbOK := s.db.PingContext(ctx) == nil

	snap := s.engine.Snapshot()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.opts.Version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
		"nodes":   len(snap.Nodes),
		"links":   len(snap.Links),
		"running": snap.Running,
	})
}
