package crmsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/rpcosta/agency-ops/internal/store"
)

// Result summarizes a sync run.
type Result struct {
	Created int
	Updated int
	Total   int
}

// SyncLeads mirrors leads into the Notion CRM board, keyed by Lead ID.
// Existing pages are updated (so status changes propagate), missing ones
// created. A single failed page is logged and skipped; the run continues.
func SyncLeads(ctx context.Context, log zerolog.Logger, repo store.LeadRepository, notion NotionService, databaseID string, dryRun bool) (Result, error) {
	var res Result

	leads, err := repo.ListLeads(ctx, 0)
	if err != nil {
		return res, fmt.Errorf("SyncLeads: list leads: %w", err)
	}
	res.Total = len(leads)

	log.Info().Int("lead_count", len(leads)).Bool("dry_run", dryRun).Msg("Starting lead sync")

	pages, err := queryAllPages(ctx, notion, databaseID)
	if err != nil {
		return res, fmt.Errorf("SyncLeads: %w", err)
	}

	pageIDByLead := make(map[string]string, len(pages))
	for _, page := range pages {
		if leadID := extractLeadID(page); leadID != "" {
			pageIDByLead[leadID] = string(page.ID)
		}
	}

	for _, lead := range leads {
		pageID, exists := pageIDByLead[lead.LeadID]

		if dryRun {
			if exists {
				log.Info().Str("lead_id", lead.LeadID).Str("page_id", pageID).
					Msg("[DRY RUN] Would update CRM page")
				res.Updated++
			} else {
				log.Info().Str("lead_id", lead.LeadID).Msg("[DRY RUN] Would create CRM page")
				res.Created++
			}
			continue
		}

		props := LeadToNotionProperties(lead)

		if exists {
			if _, err := notion.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Str("lead_id", lead.LeadID).Str("page_id", pageID).
					Msg("Failed to update CRM page")
				continue
			}
			res.Updated++
		} else {
			page, err := notion.CreatePage(ctx, databaseID, props)
			if err != nil {
				log.Warn().Err(err).Str("lead_id", lead.LeadID).Msg("Failed to create CRM page")
				continue
			}
			log.Info().Str("lead_id", lead.LeadID).Str("page_id", string(page.ID)).
				Msg("Created CRM page")
			res.Created++
		}
	}

	log.Info().Int("created", res.Created).Int("updated", res.Updated).Int("total", res.Total).
		Msg("Lead sync completed")

	return res, nil
}

// queryAllPages pages through a Notion database query.
func queryAllPages(ctx context.Context, notion NotionService, databaseID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}

		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return all, nil
}
