package main

import (
	"flag"
	"os"
)

type config struct {
	port    string
	workers int

	projectID string
	datasetID string
	bucket    string

	authURL          string
	authAnonKey      string
	financeAllowList string

	openAIKey     string
	openAIBaseURL string
	openAIModel   string
	geminiModel   string

	gmailClientID     string
	gmailClientSecret string
	gmailRefreshToken string

	publicBaseURL string
}

// loadConfig reads flags with environment variables as defaults, the
// same convention every binary in this repo uses.
func loadConfig() config {
	var cfg config

	flag.StringVar(&cfg.port, "port", envOr("PORT", "8080"), "HTTP server port (or PORT)")
	flag.IntVar(&cfg.workers, "workers", 4, "receipt extraction worker count")

	flag.StringVar(&cfg.projectID, "project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project id (or GOOGLE_CLOUD_PROJECT)")
	flag.StringVar(&cfg.datasetID, "dataset", envOr("BQ_DATASET", "ops"), "BigQuery dataset (or BQ_DATASET)")
	flag.StringVar(&cfg.bucket, "bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for uploaded images (or GCS_BUCKET)")

	flag.StringVar(&cfg.authURL, "auth-url", os.Getenv("AUTH_URL"), "identity provider base URL (or AUTH_URL)")
	flag.StringVar(&cfg.authAnonKey, "auth-anon-key", os.Getenv("AUTH_ANON_KEY"), "identity provider anon key (or AUTH_ANON_KEY)")
	flag.StringVar(&cfg.financeAllowList, "finance-allowlist", os.Getenv("FINANCE_ALLOWLIST"), "comma-separated emails allowed on finance endpoints (or FINANCE_ALLOWLIST)")

	flag.StringVar(&cfg.openAIKey, "openai-key", os.Getenv("OPENAI_API_KEY"), "OpenAI API key (or OPENAI_API_KEY)")
	flag.StringVar(&cfg.openAIBaseURL, "openai-base-url", os.Getenv("OPENAI_BASE_URL"), "OpenAI-compatible base URL (or OPENAI_BASE_URL)")
	flag.StringVar(&cfg.openAIModel, "openai-model", os.Getenv("OPENAI_MODEL"), "chat model name (or OPENAI_MODEL)")
	flag.StringVar(&cfg.geminiModel, "gemini-model", os.Getenv("GEMINI_MODEL"), "vision model name (or GEMINI_MODEL)")

	flag.StringVar(&cfg.gmailClientID, "gmail-client-id", os.Getenv("GMAIL_CLIENT_ID"), "Gmail OAuth client id (or GMAIL_CLIENT_ID)")
	flag.StringVar(&cfg.gmailClientSecret, "gmail-client-secret", os.Getenv("GMAIL_CLIENT_SECRET"), "Gmail OAuth client secret (or GMAIL_CLIENT_SECRET)")
	flag.StringVar(&cfg.gmailRefreshToken, "gmail-refresh-token", os.Getenv("GMAIL_REFRESH_TOKEN"), "Gmail OAuth refresh token (or GMAIL_REFRESH_TOKEN)")

	flag.StringVar(&cfg.publicBaseURL, "public-base-url", envOr("PUBLIC_BASE_URL", "http://localhost:8080"), "externally reachable base URL for decision links (or PUBLIC_BASE_URL)")

	flag.Parse()
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
