// Package server exposes classification, layout sessions, the graph store
// and the sync job over HTTP.
//
// Every layout request creates a session holding the collapse state of that
// layout. Toggles are applied to the session under a per-session lock, so
// concurrent toggles of one layout are serialized while different layouts
// proceed independently.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/superrelativity/relgraph/pkg/pipeline"
	"github.com/superrelativity/relgraph/pkg/session"
	"github.com/superrelativity/relgraph/pkg/store"
	"github.com/superrelativity/relgraph/pkg/syncjob"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 10 << 20

// Options configures New. Nil fields get in-memory defaults, except Sync:
// without it the sync endpoints answer 501.
type Options struct {
	Runner     *pipeline.Runner
	Sessions   session.Store
	Store      store.Store
	Sync       *syncjob.Service
	Gatherer   prometheus.Gatherer
	Logger     *log.Logger
	SessionTTL time.Duration
	// Pipeline holds the layout and classification defaults applied to
	// every request.
	Pipeline pipeline.Options
	// AllowedOrigin is the CORS origin; empty means "*".
	AllowedOrigin string
}

// Server is the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	sessions session.Store
	store    store.Store
	sync     *syncjob.Service
	logger   *log.Logger
	ttl      time.Duration
	defaults pipeline.Options
	locks    *keyedMutex
	router   chi.Router
}

// New creates a server and its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemoryStore()
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = session.DefaultTTL
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}

	s := &Server{
		runner:   opts.Runner,
		sessions: opts.Sessions,
		store:    opts.Store,
		sync:     opts.Sync,
		logger:   opts.Logger,
		ttl:      opts.SessionTTL,
		defaults: opts.Pipeline,
		locks:    newKeyedMutex(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(opts.AllowedOrigin))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/classify", s.handleClassify)
		r.Get("/rules", s.handleRules)
		r.Post("/parse/context-diagram", s.handleParseDiagram)

		r.Route("/layouts", func(r chi.Router) {
			r.Post("/", s.handleCreateLayout)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetLayout)
				r.Delete("/", s.handleDeleteLayout)
				r.Post("/toggle/{nodeID}", s.handleToggle)
				r.Post("/expand", s.handleExpandAll)
				r.Post("/collapse", s.handleCollapseAll)
				r.Get("/render", s.handleRender)
			})
		})

		r.Get("/graph", s.handleGraph)
		r.Get("/impact/{entityID}", s.handleImpact)

		r.Post("/sync/trigger", s.handleSyncTrigger)
		r.Get("/sync/status", s.handleSyncStatus)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. Expired sessions are purged every cleanupInterval.
func (s *Server) ListenAndServe(ctx context.Context, addr string, cleanupInterval time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cleanupInterval > 0 {
		go s.cleanupSessions(ctx, cleanupInterval)
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) cleanupSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sessions.Cleanup(ctx); err != nil {
				s.logger.Warn("session cleanup failed", "err", err)
			}
		}
	}
}
