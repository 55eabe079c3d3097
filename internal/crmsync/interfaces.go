// Package crmsync mirrors leads into the team's Notion CRM board so
// account managers work from Notion while the dashboard stays the system
// of record.
package crmsync

import (
	"context"

	"github.com/jomei/notionapi"
)

// NotionService is the Notion API surface the sync uses; it exists so
// tests can run without the real API.
type NotionService interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// UpdatePage updates an existing Notion page with the given properties.
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)

	// QueryDatabase queries a Notion database with the given filter.
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}
