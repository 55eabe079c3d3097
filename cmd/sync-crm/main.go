// Mirrors leads from BigQuery into the Notion CRM board. Run on a
// schedule (Cloud Scheduler hitting a job, or cron) or by hand with
// -dry-run to preview.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/rpcosta/agency-ops/internal/crmsync"
	"github.com/rpcosta/agency-ops/internal/logger"
	storebq "github.com/rpcosta/agency-ops/internal/store/bigquery"
)

func main() {
	var (
		project     = flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project id (or GOOGLE_CLOUD_PROJECT)")
		dataset     = flag.String("dataset", envOr("BQ_DATASET", "ops"), "BigQuery dataset (or BQ_DATASET)")
		notionToken = flag.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion API token (or NOTION_TOKEN)")
		notionDB    = flag.String("notion-db", os.Getenv("NOTION_LEADS_DB"), "Notion leads database id (or NOTION_LEADS_DB)")
		dryRun      = flag.Bool("dry-run", false, "log what would change without writing to Notion")
	)
	flag.Parse()

	log := logger.New()

	if *notionToken == "" || *notionDB == "" {
		log.Fatal().Msg("Both -notion-token and -notion-db are required")
	}

	ctx := context.Background()

	repo, err := storebq.New(ctx, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	notion := crmsync.NewNotionClient(*notionToken)

	res, err := crmsync.SyncLeads(ctx, log, repo, notion, *notionDB, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Lead sync failed")
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("total", res.Total).
		Bool("dry_run", *dryRun).
		Msg("Sync finished")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
