package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/rpcosta/agency-ops/internal/store"
)

// InsertTransaction inserts a single transaction row via the streaming
// inserter.
func (r *Repository) InsertTransaction(ctx context.Context, row *store.TransactionRow) error {
	inserter := r.table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertTransaction: inserting row: %w", err)
	}
	return nil
}

// ListTransactionsByStatus lists transactions in the given review state,
// newest first.
func (r *Repository) ListTransactionsByStatus(ctx context.Context, status string, limit int) ([]*store.TransactionRow, error) {
	if limit <= 0 {
		limit = 100
	}

	q := r.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			user_email,
			kind,
			amount,
			currency,
			occurred_on,
			counterparty,
			description,
			category,
			confidence,
			source,
			status,
			receipt_id,
			created_ts,
			verified_ts
		FROM %s.%s
		WHERE status = @status
		ORDER BY created_ts DESC
		LIMIT @limit
	`, r.datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: status},
		{Name: "limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactionsByStatus: query read: %w", err)
	}

	var rows []*store.TransactionRow
	for {
		var row store.TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactionsByStatus: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}
