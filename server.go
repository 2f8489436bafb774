package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/studylens/document-analysis-service/common/auth"
	"github.com/studylens/document-analysis-service/common/config"
	"github.com/studylens/document-analysis-service/common/jobs"
	"github.com/studylens/document-analysis-service/handler"
	"github.com/studylens/document-analysis-service/middlewares"
)

type AppHttpServer struct {
	router   *chi.Mux
	cfg      config.Config
	server   *http.Server
	jobs     *jobs.Service
	verifier auth.Verifier
}

func NewAppHttpServer(cfg config.Config) (*AppHttpServer, error) {
	r := chi.NewRouter()

	// Basic CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Submissions return immediately; the extraction backend's bounded wait
	// lives in the background unit, not the request, so a short request
	// timeout is enough.
	r.Use(middleware.Timeout(1 * time.Minute))

	server := &AppHttpServer{
		router: r,
		cfg:    cfg,
	}
	return server, nil
}

// SetJobService sets the job service dependency
func (s *AppHttpServer) SetJobService(svc *jobs.Service) {
	s.jobs = svc
}

// SetVerifier sets the identity verifier dependency
func (s *AppHttpServer) SetVerifier(verifier auth.Verifier) {
	s.verifier = verifier
}

func (s *AppHttpServer) setupRoute() {
	r := s.router

	if s.jobs == nil {
		log.Fatal().Msg("Job service dependency not set")
	}
	if s.verifier == nil {
		log.Fatal().Msg("Identity verifier dependency not set")
	}

	// Public health endpoint (no authentication required)
	healthHandler := handler.NewHealthHandler()
	r.Mount("/health", healthHandler.Router())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middlewares.Authentication(s.verifier))

		analysisHandler := handler.NewAnalysisHandler(s.jobs, s.cfg)
		uploadsHandler := handler.NewUploadsHandler(s.jobs)

		r.Mount("/analyses", analysisHandler.Router())
		r.Mount("/uploads", uploadsHandler.Router())
	})
}

func (s *AppHttpServer) start() error {
	r := s.router
	cfg := s.cfg
	log.Info().Msg("Starting up server...")

	s.server = &http.Server{
		Addr:         cfg.Listen.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// stop gracefully shuts down the server
func (s *AppHttpServer) stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
