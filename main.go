package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/studylens/document-analysis-service/common/auth"
	"github.com/studylens/document-analysis-service/common/config"
	"github.com/studylens/document-analysis-service/common/jobs"
	"github.com/studylens/document-analysis-service/common/storage"
	"github.com/studylens/document-analysis-service/pipeline/analysis"
	"github.com/studylens/document-analysis-service/pipeline/extraction"
	"github.com/studylens/document-analysis-service/pipeline/search"
)

func main() {
	// INITIATE CONFIGURATION
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("Error loading .env file, using environment variables")
	}

	cfg := config.DefaultConfig()
	cfg.LoadFromEnv()

	// Base context for every background job unit; cancelling it on shutdown
	// stops all in-flight jobs.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// INITIATE BLOB STORAGE
	gcsStorage, err := storage.NewGCSStorage(ctx, storage.GCSConfig{
		ProjectID:       cfg.GCS.ProjectID,
		CredentialsFile: cfg.GCS.CredentialsFile,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup GCS storage")
	}

	// INITIATE STAGE ADAPTERS
	extractor, err := extraction.NewDocumentAIExtractor(ctx, extraction.DocumentAIConfig{
		ProjectID:   cfg.DocumentAI.ProjectID,
		Location:    cfg.DocumentAI.Location,
		ProcessorID: cfg.DocumentAI.ProcessorID,
		Bucket:      cfg.GCS.Bucket,
	}, gcsStorage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup Document AI extractor")
	}
	defer extractor.Close()

	analyzer := analysis.NewLLMAnalyzer(analysis.LLMConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	})

	searcher := search.NewTavilySearcher(search.TavilyConfig{
		APIKey:   cfg.Search.APIKey,
		Endpoint: cfg.Search.Endpoint,
	})

	// INITIATE IDENTITY VERIFIER
	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Auth.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup identity verifier")
	}

	// INITIATE JOB SERVICE
	jobService := jobs.NewService(ctx, gcsStorage, cfg.GCS.Bucket, jobs.Stages{
		Extractor: extractor,
		Analyzer:  analyzer,
		Searcher:  searcher,
	})

	// INITIATE SERVER
	server, err := NewAppHttpServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create the server")
	}

	// Inject dependencies
	server.SetJobService(jobService)
	server.SetVerifier(verifier)

	// Setup routes
	server.setupRoute()

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.start()
	}()

	log.Info().Str("address", cfg.Listen.Addr()).Msg("Server started successfully")

	// Wait for a shutdown signal or a server failure
	select {
	case err := <-serverErrors:
		log.Error().Err(err).Msg("Server error")
	case <-shutdown:
		log.Info().Msg("Shutdown signal received")
	}

	// Create a timeout context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server gracefully stopped")
}
