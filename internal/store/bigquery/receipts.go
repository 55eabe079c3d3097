package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"

	"github.com/rpcosta/agency-ops/internal/store"
)

// InsertReceipt inserts a receipt row.
func (r *Repository) InsertReceipt(ctx context.Context, row *store.ReceiptRow) error {
	inserter := r.table(receiptsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertReceipt: inserting row: %w", err)
	}
	return nil
}

// GetReceipt retrieves a receipt by id.
func (r *Repository) GetReceipt(ctx context.Context, receiptID string) (*store.ReceiptRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			receipt_id,
			user_email,
			gcs_uri,
			mime_type,
			status,
			transaction_id,
			upload_ts,
			processed_ts
		FROM %s.%s
		WHERE receipt_id = @receipt_id
		LIMIT 1
	`, r.datasetID, receiptsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "receipt_id", Value: receiptID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetReceipt: query read: %w", err)
	}

	var row store.ReceiptRow
	if err := it.Next(&row); err != nil {
		if err == iterator.Done {
			return nil, fmt.Errorf("GetReceipt: receipt %s: %w", receiptID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("GetReceipt: iter next: %w", err)
	}

	return &row, nil
}

// LinkTransaction back-references the transaction created from a receipt
// and marks the receipt processed. Callers treat a failure here as
// non-fatal; the transaction insert has already committed.
func (r *Repository) LinkTransaction(ctx context.Context, receiptID, transactionID string) error {
	return r.runDML(ctx, "LinkTransaction", fmt.Sprintf(`
		UPDATE %s.%s
		SET transaction_id = @transaction_id,
		    status = @status,
		    processed_ts = @processed_ts
		WHERE receipt_id = @receipt_id
	`, r.datasetID, receiptsTable), []bigquery.QueryParameter{
		{Name: "transaction_id", Value: transactionID},
		{Name: "status", Value: store.ReceiptStatusProcessed},
		{Name: "processed_ts", Value: time.Now()},
		{Name: "receipt_id", Value: receiptID},
	})
}

// MarkReceiptFailed marks a receipt as failed. Best effort: errors are
// logged, never returned, mirroring how parse failures are recorded.
func (r *Repository) MarkReceiptFailed(ctx context.Context, receiptID string, procErr error) {
	errMsg := ""
	if procErr != nil {
		errMsg = procErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	err := r.runDML(ctx, "MarkReceiptFailed", fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    processed_ts = @processed_ts
		WHERE receipt_id = @receipt_id
	`, r.datasetID, receiptsTable), []bigquery.QueryParameter{
		{Name: "status", Value: store.ReceiptStatusFailed},
		{Name: "processed_ts", Value: time.Now()},
		{Name: "receipt_id", Value: receiptID},
	})
	if err != nil {
		log.Warn().Err(err).Str("receipt_id", receiptID).Str("processing_error", errMsg).
			Msg("MarkReceiptFailed: status update failed")
	}
}
