// Standalone receipt extraction worker. The API binary runs the same
// pipeline in-process; this exists for deployments that want uploads and
// extraction scaled separately.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpcosta/agency-ops/internal/gcsuploader"
	"github.com/rpcosta/agency-ops/internal/jobs/inmemory"
	"github.com/rpcosta/agency-ops/internal/llm"
	"github.com/rpcosta/agency-ops/internal/logger"
	"github.com/rpcosta/agency-ops/internal/pipeline"
	storebq "github.com/rpcosta/agency-ops/internal/store/bigquery"
)

func main() {
	var (
		project     = flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project id (or GOOGLE_CLOUD_PROJECT)")
		dataset     = flag.String("dataset", envOr("BQ_DATASET", "ops"), "BigQuery dataset (or BQ_DATASET)")
		bucket      = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for uploaded images (or GCS_BUCKET)")
		geminiModel = flag.String("gemini-model", os.Getenv("GEMINI_MODEL"), "vision model name (or GEMINI_MODEL)")
		workers     = flag.Int("workers", 4, "worker count")
	)
	flag.Parse()

	log := logger.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := storebq.New(ctx, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	objects := gcsuploader.NewClient(*bucket)
	vision := llm.NewGeminiVision(*geminiModel)
	receiptPipeline := pipeline.New(log, objects, vision, repo, repo)

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, *workers, jobStore)

	if err := jobQueue.Start(ctx, receiptPipeline.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Int("workers", *workers).Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
