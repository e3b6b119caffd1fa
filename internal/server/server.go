package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/splitcheck/splitcheck/internal/analyze"
	"github.com/splitcheck/splitcheck/internal/store"
)

// Options configures the API server.
type Options struct {
	Port      int
	Alpha     float64 // nominal alpha used when a request does not set one
	Validator analyze.Options
}

type Server struct {
	store     store.Store // nil disables run persistence and history routes
	opts      Options
	logger    zerolog.Logger
	router    chi.Router
	startTime time.Time
}

func New(s store.Store, opts Options, logger zerolog.Logger) *Server {
	srv := &Server{
		store:     s,
		opts:      opts,
		logger:    logger,
		router:    chi.NewRouter(),
		startTime: time.Now(),
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestLogger)

	s.router.Get("/health", s.handleHealth)
	s.router.Post("/api/analyze", s.handleAnalyze)
	if s.store != nil {
		s.router.Get("/api/runs", s.handleListRuns)
		s.router.Get("/api/runs/{id}", s.handleGetRun)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.opts.Port)
	s.logger.Info().Str("addr", addr).Msg("server listening")
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
