package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpcosta/agency-ops/internal/api/handlers"
	"github.com/rpcosta/agency-ops/internal/api/middleware"
	"github.com/rpcosta/agency-ops/internal/auth"
	"github.com/rpcosta/agency-ops/internal/gcsuploader"
	"github.com/rpcosta/agency-ops/internal/jobs/inmemory"
	"github.com/rpcosta/agency-ops/internal/llm"
	"github.com/rpcosta/agency-ops/internal/logger"
	"github.com/rpcosta/agency-ops/internal/mailer"
	"github.com/rpcosta/agency-ops/internal/pipeline"
	storebq "github.com/rpcosta/agency-ops/internal/store/bigquery"
)

func main() {
	cfg := loadConfig()
	log := logger.New()

	ctx := context.Background()

	repo, err := storebq.New(ctx, cfg.projectID, cfg.datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	objects := gcsuploader.NewClient(cfg.bucket)
	if cfg.bucket == "" {
		log.Warn().Msg("No GCS bucket configured - image uploads will fail")
	}

	chat := llm.NewOpenAIClient(cfg.openAIBaseURL, cfg.openAIKey, cfg.openAIModel)
	if cfg.openAIKey == "" {
		log.Warn().Msg("No OpenAI API key configured - text extraction will report a configuration error")
	}
	vision := llm.NewGeminiVision(cfg.geminiModel)

	var mail mailer.Sender
	mail, err = mailer.NewGmailSender(ctx, cfg.gmailClientID, cfg.gmailClientSecret, cfg.gmailRefreshToken)
	if err == mailer.ErrNotConfigured {
		log.Warn().Msg("Gmail credentials missing - lead notifications disabled")
		mail = mailer.Disabled{}
	} else if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gmail sender")
	}

	verifier := auth.NewHTTPVerifier(cfg.authURL, cfg.authAnonKey)
	allowList := auth.ParseAllowList(cfg.financeAllowList)
	if allowList.Len() == 0 {
		log.Warn().Msg("Finance allow-list is empty - every finance request will be rejected")
	}

	// Job infrastructure: receipt extraction runs on an in-process worker
	// pool fed by the upload handler.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, cfg.workers, jobStore)

	receiptPipeline := pipeline.New(log, objects, vision, repo, repo)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	go func() {
		log.Info().Int("workers", cfg.workers).Msg("Starting receipt extraction workers")
		if err := jobQueue.Start(workerCtx, receiptPipeline.Handle); err != nil {
			log.Error().Err(err).Msg("Job consumer stopped with error")
		}
	}()

	server := handlers.NewServer(handlers.Deps{
		Log:           log,
		Chat:          chat,
		Vision:        vision,
		Transactions:  repo,
		Receipts:      repo,
		Leads:         repo,
		Odometer:      repo,
		Objects:       objects,
		Publisher:     jobQueue,
		Mail:          mail,
		PublicBaseURL: cfg.publicBaseURL,
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					server.Routes(verifier, allowList),
				),
			),
		),
	)

	httpServer := &http.Server{
		Addr:         ":" + cfg.port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.port).Msg("Starting API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
