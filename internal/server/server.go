// Package server provides the HTTP server and routing for finboard.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/akistler/finboard/internal/config"
	"github.com/akistler/finboard/internal/database"
	positionshandlers "github.com/akistler/finboard/internal/modules/positions/handlers"
	rateshandlers "github.com/akistler/finboard/internal/modules/rates/handlers"
	valuationhandlers "github.com/akistler/finboard/internal/modules/valuation/handlers"
)

// Config holds server configuration.
type Config struct {
	Log               zerolog.Logger
	Cfg               *config.Config
	PortfolioDB       *database.DB
	CacheDB           *database.DB
	RatesHandlers     *rateshandlers.Handler
	PositionsHandlers *positionshandlers.Handler
	ValuationHandlers *valuationhandlers.Handler
}

// Server is the HTTP server.
type Server struct {
	router      *chi.Mux
	server      *http.Server
	log         zerolog.Logger
	cfg         *config.Config
	portfolioDB *database.DB
	cacheDB     *database.DB
}

// New creates a new HTTP server with all routes registered.
func New(cfg Config) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		log:         cfg.Log.With().Str("service", "server").Logger(),
		cfg:         cfg.Cfg,
		portfolioDB: cfg.PortfolioDB,
		cacheDB:     cfg.CacheDB,
	}

	s.setupMiddleware(cfg.Cfg.DevMode)

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		cfg.RatesHandlers.RegisterRoutes(r)
		cfg.PositionsHandlers.RegisterRoutes(r)
		cfg.ValuationHandlers.RegisterRoutes(r)
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// handleHealth reports server and database health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	databases := map[string]string{}
	for name, db := range map[string]*database.DB{
		"portfolio":   s.portfolioDB,
		"client_data": s.cacheDB,
	} {
		if db == nil {
			continue
		}
		if err := db.QuickCheck(r.Context()); err != nil {
			databases[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		databases[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"databases": databases,
		"timestamp": time.Now().Format(time.RFC3339),
	}); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode health response")
	}
}

// Start begins listening. It blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
