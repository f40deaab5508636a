// Package api wires the normalized upstream services to HTTP. Routing and
// middleware only; all feed logic lives in internal/lta and internal/nea.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"

	"smarttravel/internal/api/middleware"
	"smarttravel/internal/config"
	"smarttravel/internal/lta"
	"smarttravel/internal/nea"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

const (
	projectName = "smart-travel"
	version     = "0.2.0"
)

type Server struct {
	cfg    *config.Config
	logger *log.Logger

	lta *lta.Service
	nea *nea.Service

	srv    *http.Server
	routes []string
}

func NewServer(cfg *config.Config, ltaSvc *lta.Service, neaSvc *nea.Service, logger *log.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		lta:    ltaSvc,
		nea:    neaSvc,
	}

	r := chi.NewRouter()
	s.registerRoutes(r)

	s.srv = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      middleware.Logging(logger)(r),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Printf("api: starting server on %s", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		s.logger.Printf("api: server stopped")
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Print("api: shutting down server")
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Printf("api: error during server shutdown: %v", err)
		return err
	}
	return nil
}

func (s *Server) registerRoutes(r chi.Router) {
	origins := s.cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Security)

	s.get(r, "/", s.rootHandler)
	s.get(r, "/health", s.healthHandler)
	s.get(r, "/config", s.configHandler)
	s.get(r, "/routes", s.routesHandler)

	s.get(r, "/mrt", s.mrtAlertsHandler)
	s.get(r, "/mrt/crowd", s.mrtCrowdHandler)
	s.get(r, "/mrt/crowd-forecast", s.mrtCrowdForecastHandler)
	s.get(r, "/mrt/summary", s.mrtSummaryHandler)

	s.get(r, "/bus/arrivals", s.busArrivalsHandler)
	s.get(r, "/weather", s.weatherHandler)

	sort.Strings(s.routes)
}

// get registers a GET route and records its pattern for /routes.
func (s *Server) get(r chi.Router, pattern string, h http.HandlerFunc) {
	r.Get(pattern, h)
	s.routes = append(s.routes, pattern)
}

// helper for consistent JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// best-effort encode; in the event of error there's not much we can do
	_ = json.NewEncoder(w).Encode(v)
}
