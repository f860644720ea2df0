// Package server exposes the inspector over a read-only JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/logger"
	"github.com/koustreak/dbinspect/internal/metrics"
	"github.com/koustreak/dbinspect/internal/schema"
)

// InspectorFunc builds a fresh inspector. The server calls it once per
// request so ?schema= never leaks between requests.
type InspectorFunc func() (schema.Inspector, error)

type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	QueryTimeout time.Duration // per-request deadline for catalog reads; 0 disables

	Inspector InspectorFunc
	DB        database.DB        // pinged by /healthz
	Logger    *logger.Logger     // nil discards
	Metrics   *metrics.Collector // nil disables /metrics and request metrics
}

type Server struct {
	cfg    Config
	log    *logger.Logger
	router chi.Router
}

func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{cfg: cfg, log: log}
	s.router = s.routes()
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if s.cfg.QueryTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.QueryTimeout))
		}
		r.Use(s.withInspector)

		r.Get("/tables", s.handleTables)
		r.Get("/foreign-keys", s.handleForeignKeys)
		r.Route("/tables/{table}", func(r chi.Router) {
			r.Get("/", s.handleTable)
			r.Get("/columns", s.handleColumns)
			r.Get("/columns/{column}", s.handleColumn)
			r.Get("/primary", s.handlePrimary)
			r.Get("/foreign-keys", s.handleTableForeignKeys)
		})
	})
	return r
}

// logRequests logs each request once it completes and feeds the request
// metrics, labelled by route pattern rather than raw path.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)

		s.log.With().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Int("duration_ms", int(elapsed.Milliseconds())).
			Logger().
			Info("request")

		if s.cfg.Metrics != nil {
			s.cfg.Metrics.ObserveRequest(r.Method, route, status, elapsed)
		}
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
