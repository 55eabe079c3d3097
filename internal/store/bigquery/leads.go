package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/rpcosta/agency-ops/internal/store"
)

const leadColumns = `
	lead_id,
	name,
	email,
	company,
	message,
	status,
	score,
	fit,
	analysis_summary,
	created_ts,
	decided_ts`

// GetLead retrieves a lead by id.
func (r *Repository) GetLead(ctx context.Context, leadID string) (*store.LeadRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s.%s
		WHERE lead_id = @lead_id
		LIMIT 1
	`, leadColumns, r.datasetID, leadsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "lead_id", Value: leadID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetLead: query read: %w", err)
	}

	var row store.LeadRow
	if err := it.Next(&row); err != nil {
		if err == iterator.Done {
			return nil, fmt.Errorf("GetLead: lead %s: %w", leadID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("GetLead: iter next: %w", err)
	}

	return &row, nil
}

// UpdateLeadAnalysis stores the AI triage result on a lead.
func (r *Repository) UpdateLeadAnalysis(ctx context.Context, leadID string, score int, fit, summary string) error {
	return r.runDML(ctx, "UpdateLeadAnalysis", fmt.Sprintf(`
		UPDATE %s.%s
		SET score = @score,
		    fit = @fit,
		    analysis_summary = @summary
		WHERE lead_id = @lead_id
	`, r.datasetID, leadsTable), []bigquery.QueryParameter{
		{Name: "score", Value: int64(score)},
		{Name: "fit", Value: fit},
		{Name: "summary", Value: summary},
		{Name: "lead_id", Value: leadID},
	})
}

// UpdateLeadStatus records a human approve/reject decision.
func (r *Repository) UpdateLeadStatus(ctx context.Context, leadID, status string) error {
	return r.runDML(ctx, "UpdateLeadStatus", fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    decided_ts = @decided_ts
		WHERE lead_id = @lead_id
	`, r.datasetID, leadsTable), []bigquery.QueryParameter{
		{Name: "status", Value: status},
		{Name: "decided_ts", Value: time.Now()},
		{Name: "lead_id", Value: leadID},
	})
}

// ListLeads lists all leads, newest first.
func (r *Repository) ListLeads(ctx context.Context, limit int) ([]*store.LeadRow, error) {
	if limit <= 0 {
		limit = 200
	}

	q := r.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s.%s
		ORDER BY created_ts DESC
		LIMIT @limit
	`, leadColumns, r.datasetID, leadsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListLeads: query read: %w", err)
	}

	var rows []*store.LeadRow
	for {
		var row store.LeadRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListLeads: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}
