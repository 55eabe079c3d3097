// Package bigquery implements the store repositories on BigQuery. One
// Repository holds a shared client so each operation does not open its own
// connection.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/rpcosta/agency-ops/internal/store"
)

const (
	transactionsTable     = "transactions"
	receiptsTable         = "receipts"
	leadsTable            = "leads"
	odometerReadingsTable = "odometer_readings"

	dateFormat = "2006-01-02"
)

// Repository implements every store interface against a single BigQuery
// dataset.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// New creates a Repository for the given project and dataset.
func New(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("New: bigquery client: %w", err)
	}
	return &Repository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the underlying BigQuery client.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Repository) table(name string) *bigquery.Table {
	return r.client.DatasetInProject(r.projectID, r.datasetID).Table(name)
}

// runDML runs a parameterized INSERT/UPDATE statement and waits for it.
func (r *Repository) runDML(ctx context.Context, op, statement string, params []bigquery.QueryParameter) error {
	q := r.client.Query(statement)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", op, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", op, err)
	}
	return nil
}

var (
	_ store.TransactionRepository = (*Repository)(nil)
	_ store.ReceiptRepository     = (*Repository)(nil)
	_ store.LeadRepository        = (*Repository)(nil)
	_ store.OdometerRepository    = (*Repository)(nil)
)
