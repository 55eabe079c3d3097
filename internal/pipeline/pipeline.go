// Package pipeline runs receipt extraction for the background worker:
// fetch the image from storage, OCR it with the vision model, normalize
// the answer and persist a pending transaction linked back to the
// receipt.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rpcosta/agency-ops/internal/extract"
	"github.com/rpcosta/agency-ops/internal/gcsuploader"
	"github.com/rpcosta/agency-ops/internal/jobs"
	"github.com/rpcosta/agency-ops/internal/llm"
	"github.com/rpcosta/agency-ops/internal/store"
)

// ReceiptPipeline processes one ExtractReceiptJob end to end.
type ReceiptPipeline struct {
	log zerolog.Logger

	objects gcsuploader.ObjectStore
	vision  llm.VisionClient

	transactions store.TransactionRepository
	receipts     store.ReceiptRepository

	now func() time.Time
}

// New creates a pipeline from its dependencies.
func New(log zerolog.Logger, objects gcsuploader.ObjectStore, vision llm.VisionClient,
	transactions store.TransactionRepository, receipts store.ReceiptRepository) *ReceiptPipeline {
	return &ReceiptPipeline{
		log:          log,
		objects:      objects,
		vision:       vision,
		transactions: transactions,
		receipts:     receipts,
		now:          time.Now,
	}
}

// Handle adapts the pipeline to the worker's job handler signature.
func (p *ReceiptPipeline) Handle(ctx context.Context, job jobs.Job) error {
	rj, ok := job.(*jobs.ExtractReceiptJob)
	if !ok {
		return fmt.Errorf("Handle: unexpected job type %s", job.GetType())
	}
	return p.Process(ctx, rj)
}

// Process runs extraction for one receipt. A failure before the
// transaction insert marks the receipt FAILED; the insert itself going
// through but the receipt back-reference failing is logged and tolerated,
// the transaction already sits in the review queue.
func (p *ReceiptPipeline) Process(ctx context.Context, job *jobs.ExtractReceiptJob) error {
	log := p.log.With().
		Str("job_id", job.JobID).
		Str("receipt_id", job.ReceiptID).
		Logger()

	log.Info().Str("gcs_uri", job.GCSURI).Msg("Processing receipt")

	image, err := p.objects.Fetch(ctx, job.GCSURI)
	if err != nil {
		p.receipts.MarkReceiptFailed(ctx, job.ReceiptID, err)
		return fmt.Errorf("Process: fetch receipt image: %w", err)
	}

	raw, err := p.vision.ReadImage(ctx, extract.ReceiptPrompt, image, job.MimeType)
	if err != nil {
		p.receipts.MarkReceiptFailed(ctx, job.ReceiptID, err)
		return fmt.Errorf("Process: vision extraction: %w", err)
	}

	record := extract.NormalizeTransaction(raw, "", extract.SourceOCR, p.now())
	row := store.NewPendingTransaction(record, job.UserEmail, job.ReceiptID, p.now())

	if err := p.transactions.InsertTransaction(ctx, row); err != nil {
		p.receipts.MarkReceiptFailed(ctx, job.ReceiptID, err)
		return fmt.Errorf("Process: insert transaction: %w", err)
	}

	if err := p.receipts.LinkTransaction(ctx, job.ReceiptID, row.TransactionID); err != nil {
		log.Warn().Err(err).Str("transaction_id", row.TransactionID).
			Msg("Receipt back-reference failed; transaction is already pending review")
	}

	log.Info().
		Str("transaction_id", row.TransactionID).
		Str("category", record.Category).
		Float64("confidence", record.Confidence).
		Msg("Receipt processed")

	return nil
}
